package attractor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_ExactRepeat(t *testing.T) {
	d := NewDetector()

	content := "What an idea!\n- one\n- two\nAmazing!"
	contents := make([]string, 10)
	for i := range contents {
		contents[i] = content
	}

	det := d.Detect(contents)
	require.NotNil(t, det)
	assert.GreaterOrEqual(t, det.Confidence, 0.8)
	assert.Equal(t, 10, det.Frequency)
	assert.False(t, det.Alternating)
	assert.NotEqual(t, "generic_repetition", det.Type)
	assert.Equal(t, "excited_enumeration", det.Type)
	assert.Len(t, det.Positions, 10)
}

func TestDetect_VariedWindowNoDetection(t *testing.T) {
	d := NewDetector()

	contents := []string{
		"Just a plain statement of moderate length sitting here",
		"Why would you say that?",
		"- bullet\n- bullet\n- bullet",
		"I think we should reconsider the entire premise carefully",
		"short",
		"A declaration:\nfollowed by detail of reasonable length here",
		"Wonderful news everyone!",
		"P.S. always read the footnotes",
		"\U0001F389 celebration time \U0001F389 it continues",
		"One more ordinary line of text to close out the set here",
	}

	assert.Nil(t, d.Detect(contents))
}

func TestDetect_BelowShareThresholdNoDetection(t *testing.T) {
	d := NewDetector()

	// 7/10 identical: clears the absolute threshold but not the 0.8 share.
	contents := make([]string, 10)
	for i := 0; i < 7; i++ {
		contents[i] = "Same shape?\nSame shape?"
	}
	contents[7] = "- different\n- entirely"
	contents[8] = "I have another view on this whole matter today"
	contents[9] = "A completely ordinary statement of some length here now"

	assert.Nil(t, d.Detect(contents))
}

func TestDetect_AlternatingPair(t *testing.T) {
	d := NewDetector()

	a := "Do you ever wonder about it?" // QUESTION
	b := "- first\n- second\n- third"   // LIST_ITEM x3
	contents := []string{a, b, a, b, a, b, a, b, a, b}

	det := d.Detect(contents)
	require.NotNil(t, det)
	assert.True(t, det.Alternating)
	assert.Equal(t, 5, det.Frequency)
	assert.InDelta(t, 1.0, det.Confidence, 0.001)
	assert.Contains(t, det.Signature, "⇄")
	assert.Equal(t, []int{0, 2, 4, 6, 8}, det.Positions)
}

func TestDetect_AlternatingTieResolvesToEarliestPair(t *testing.T) {
	d := NewDetector(func(o *DetectorOptions) {
		o.MinConfidence = 0.5
	})

	a := "Do you ever wonder about it?"   // QUESTION
	b := "- first\n- second\n- third"     // LIST_ITEM x3
	c := "A declaration:"                 // ANNOUNCEMENT
	e := "P.S. always read the footnotes" // POSTSCRIPT
	contents := []string{a, b, a, b, c, e, c, e}

	// Both pairs complete two cycles; the earlier pair must win every run.
	for i := 0; i < 20; i++ {
		det := d.Detect(contents)
		require.NotNil(t, det)
		assert.True(t, det.Alternating)
		assert.Equal(t, 2, det.Frequency)
		assert.Equal(t, "QUESTION ⇄ LIST_ITEM|LIST_ITEM|LIST_ITEM", det.Signature)
		assert.Equal(t, []int{0, 2}, det.Positions)
	}
}

func TestDetect_ExactBeatsAlternating(t *testing.T) {
	d := NewDetector()

	// Window is both 100% one signature and trivially alternating-free;
	// with two interleaved signatures at 50/50 the exact check fails and
	// alternation is reported. With 10/10 identical the exact check must win.
	same := "Same line of text again"
	contents := make([]string, 10)
	for i := range contents {
		contents[i] = same
	}
	det := d.Detect(contents)
	require.NotNil(t, det)
	assert.False(t, det.Alternating)
}

func TestDetect_ShortWindow(t *testing.T) {
	d := NewDetector()
	assert.Nil(t, d.Detect(nil))
	assert.Nil(t, d.Detect([]string{"one message only"}))
}

func TestDetect_CustomThresholds(t *testing.T) {
	d := NewDetector(func(o *DetectorOptions) {
		o.WindowSize = 4
		o.Threshold = 2
		o.MinConfidence = 0.5
	})

	contents := []string{
		"Fine by me?",
		"Fine by me?",
		"- a\n- b",
		"Something else entirely happening here",
	}
	det := d.Detect(contents)
	require.NotNil(t, det)
	assert.Equal(t, 2, det.Frequency)
	assert.InDelta(t, 0.5, det.Confidence, 0.001)
}

func TestRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	name, desc, typical := r.Lookup([]Tag{TagExcitedOpening, TagListItem, TagExclamation})
	assert.Equal(t, "excited_enumeration", name)
	assert.NotEmpty(t, desc)
	assert.NotEmpty(t, typical)

	// Overlap match: 3 of the pattern's tags plus one extra -> jaccard 0.75.
	name, _, _ = r.Lookup([]Tag{TagExcitedOpening, TagListItem, TagExclamation, TagQuestion})
	assert.Equal(t, "excited_enumeration", name)

	// Dominant-element heuristics.
	name, _, _ = r.Lookup([]Tag{TagStatement, TagStatement, TagStatement, TagLongStatement})
	assert.Equal(t, "generic_repetition", name)

	name, _, _ = r.Lookup([]Tag{TagListItem, TagListItem, TagListItem, TagListItem, TagStatement})
	assert.Equal(t, "structured_listing", name)
}

func TestRegistry_Register(t *testing.T) {
	r := DefaultRegistry()
	r.Register(Pattern{
		Name:        "haiku_drift",
		Elements:    []Tag{TagShortLine, TagShortLine, TagShortLine},
		Description: "three short lines, every time",
	})
	name, _, _ := r.Lookup([]Tag{TagShortLine})
	assert.Equal(t, "haiku_drift", name)
}

func TestManager_CadenceAndHistory(t *testing.T) {
	m := NewManager(func(o *ManagerOptions) { o.CheckInterval = 5 })

	repeated := make([]string, 10)
	for i := range repeated {
		repeated[i] = "Do you see?"
	}

	assert.Nil(t, m.Check(3, repeated), "off-cadence turn must not run analysis")
	assert.False(t, m.Due(3))
	assert.True(t, m.Due(5))

	det := m.Check(5, repeated)
	require.NotNil(t, det)

	det = m.Check(10, repeated)
	require.NotNil(t, det)

	history := m.History()
	assert.Len(t, history, 2)
	assert.Equal(t, 5, history[0].Turn)
	assert.Equal(t, 10, history[1].Turn)

	summary := m.Summary()
	assert.Equal(t, 2, summary[det.Type])
}

func TestManager_NoDetectionNotRecorded(t *testing.T) {
	m := NewManager(func(o *ManagerOptions) { o.CheckInterval = 1 })
	varied := []string{
		"plain statement of average length sitting right here",
		"Why though?",
		"- bullets\n- bullets",
	}
	for turn := 1; turn <= 3; turn++ {
		assert.Nil(t, m.Check(turn, varied))
	}
	assert.Empty(t, m.History())
}

func ExampleDetector_Detect() {
	d := NewDetector()
	contents := make([]string, 10)
	for i := range contents {
		contents[i] = "Incredible thought!\n- point\nWhat next?"
	}
	det := d.Detect(contents)
	fmt.Println(det.Frequency, det.Confidence >= 0.8)
	// Output: 10 true
}
