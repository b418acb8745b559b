package attractor

import (
	"strings"
)

// Tag labels the structural kind of a single message line.
type Tag string

// The fixed tag set. Every non-empty line maps to exactly one tag.
const (
	TagExcitedOpening       Tag = "EXCITED_OPENING"
	TagAnnouncement         Tag = "ANNOUNCEMENT"
	TagFirstPersonStatement Tag = "FIRST_PERSON_STATEMENT"
	TagListItem             Tag = "LIST_ITEM"
	TagQuestion             Tag = "QUESTION"
	TagExclamation          Tag = "EXCLAMATION"
	TagPostscript           Tag = "POSTSCRIPT"
	TagEmojiLine            Tag = "EMOJI_LINE"
	TagShortLine            Tag = "SHORT_LINE"
	TagLongStatement        Tag = "LONG_STATEMENT"
	TagStatement            Tag = "STATEMENT"
)

// Line carries a trimmed non-empty message line plus its position.
type Line struct {
	Text  string
	Index int
}

// First reports whether this is the first non-empty line of the message.
func (l Line) First() bool { return l.Index == 0 }

// Rule pairs a predicate with the tag it assigns. Rules are evaluated in
// slice order; the first match wins.
type Rule struct {
	Tag   Tag
	Match func(Line) bool
}

// Rules is the ordered classification chain. The precedence is part of the
// detector's contract: reordering changes every signature.
var Rules = []Rule{
	{TagExcitedOpening, func(l Line) bool { return l.First() && strings.HasSuffix(l.Text, "!") }},
	{TagAnnouncement, func(l Line) bool { return strings.HasSuffix(l.Text, ":") }},
	{TagFirstPersonStatement, isFirstPerson},
	{TagListItem, isListItem},
	{TagQuestion, func(l Line) bool { return strings.HasSuffix(l.Text, "?") }},
	{TagExclamation, func(l Line) bool { return strings.HasSuffix(l.Text, "!") }},
	{TagPostscript, isPostscript},
	{TagEmojiLine, func(l Line) bool { return containsEmoji(l.Text) }},
	{TagShortLine, func(l Line) bool { return len(l.Text) <= 20 }},
	{TagLongStatement, func(l Line) bool { return len(l.Text) >= 200 }},
}

// firstPersonOpeners are the lowercase leading words marking a first-person
// statement.
var firstPersonOpeners = []string{
	"i ", "i'm ", "i've ", "i'll ", "i'd ", "my ", "we ", "we're ", "we've ",
}

func isFirstPerson(l Line) bool {
	lower := strings.ToLower(l.Text)
	for _, opener := range firstPersonOpeners {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}
	return false
}

func isListItem(l Line) bool {
	if strings.HasPrefix(l.Text, "- ") || strings.HasPrefix(l.Text, "* ") || strings.HasPrefix(l.Text, "• ") {
		return true
	}
	i := 0
	for i < len(l.Text) && l.Text[i] >= '0' && l.Text[i] <= '9' {
		i++
	}
	return i > 0 && i < len(l.Text) && (l.Text[i] == '.' || l.Text[i] == ')')
}

func isPostscript(l Line) bool {
	lower := strings.ToLower(l.Text)
	return strings.HasPrefix(lower, "p.s.") || strings.HasPrefix(lower, "ps:") || strings.HasPrefix(lower, "p.p.s.")
}

// containsEmoji reports whether the line holds at least one rune from the
// common emoji blocks.
func containsEmoji(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
			return true
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
			return true
		case r == 0x2764 || r == 0x2B50: // heart, star
			return true
		}
	}
	return false
}

// ClassifyLine assigns a line its tag via the ordered rule chain.
func ClassifyLine(l Line) Tag {
	for _, rule := range Rules {
		if rule.Match(l) {
			return rule.Tag
		}
	}
	return TagStatement
}

// Signature reduces a message to its structural signature: the tags of its
// non-empty lines joined with "|". An empty or whitespace-only message has
// an empty signature.
func Signature(content string) string {
	var tags []string
	index := 0
	for _, raw := range strings.Split(content, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		tags = append(tags, string(ClassifyLine(Line{Text: text, Index: index})))
		index++
	}
	return strings.Join(tags, "|")
}

// SignatureElements splits a signature back into its tag sequence.
func SignatureElements(signature string) []Tag {
	if signature == "" {
		return nil
	}
	parts := strings.Split(signature, "|")
	tags := make([]Tag, len(parts))
	for i, p := range parts {
		tags[i] = Tag(p)
	}
	return tags
}
