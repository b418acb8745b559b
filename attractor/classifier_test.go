package attractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want Tag
	}{
		{"excited opening", Line{Text: "What a fascinating idea!", Index: 0}, TagExcitedOpening},
		{"exclamation not first", Line{Text: "What a fascinating idea!", Index: 2}, TagExclamation},
		{"announcement", Line{Text: "Here is my plan:", Index: 1}, TagAnnouncement},
		{"announcement beats excited on first line", Line{Text: "Three things:", Index: 0}, TagAnnouncement},
		{"first person", Line{Text: "I believe this matters deeply", Index: 1}, TagFirstPersonStatement},
		{"first person contraction", Line{Text: "I'm delighted by this", Index: 1}, TagFirstPersonStatement},
		{"first person beats question", Line{Text: "I wonder about that?", Index: 1}, TagFirstPersonStatement},
		{"dash list item", Line{Text: "- a bullet point", Index: 3}, TagListItem},
		{"numbered list item", Line{Text: "2. second point", Index: 3}, TagListItem},
		{"paren list item", Line{Text: "3) third point", Index: 3}, TagListItem},
		{"question", Line{Text: "Do you agree with that assessment?", Index: 2}, TagQuestion},
		{"postscript", Line{Text: "P.S. more below", Index: 5}, TagPostscript},
		{"postscript exclamation wins", Line{Text: "P.S. amazing!", Index: 5}, TagExclamation},
		{"emoji line", Line{Text: "so much joy \U0001F389 today flows onward", Index: 2}, TagEmojiLine},
		{"short line", Line{Text: "indeed", Index: 2}, TagShortLine},
		{"long statement", Line{Text: strings.Repeat("x", 210), Index: 2}, TagLongStatement},
		{"default statement", Line{Text: "This is an ordinary declarative sentence of middling length", Index: 2}, TagStatement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLine(tt.line))
		})
	}
}

func TestSignature(t *testing.T) {
	content := "What a day!\n\nHere is why:\n- first reason\n- second reason\n\nDo you agree?"
	want := "EXCITED_OPENING|ANNOUNCEMENT|LIST_ITEM|LIST_ITEM|QUESTION"
	assert.Equal(t, want, Signature(content))
}

func TestSignature_EmptyAndBlank(t *testing.T) {
	assert.Equal(t, "", Signature(""))
	assert.Equal(t, "", Signature("\n\n   \n"))
}

func TestSignature_BlankLinesDoNotShiftFirstLine(t *testing.T) {
	// Leading blank lines still leave the first non-empty line eligible for
	// EXCITED_OPENING.
	assert.Equal(t, "EXCITED_OPENING", Signature("\n\nHello there my friend!"))
}

func TestSignatureElements(t *testing.T) {
	els := SignatureElements("QUESTION|SHORT_LINE")
	assert.Equal(t, []Tag{TagQuestion, TagShortLine}, els)
	assert.Nil(t, SignatureElements(""))
}
