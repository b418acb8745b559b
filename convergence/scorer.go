// Package convergence computes a 0..1 stylistic-similarity score between the
// two agents' recent messages. High scores indicate the agents are drifting
// toward identical phrasing rhythm: similar lengths, sentence counts,
// structural features and punctuation profiles.
package convergence

import (
	"math"
	"strings"

	"github.com/parleykit/parley/core"
)

// Sub-score weights. They sum to 1.0.
const (
	weightLength      = 0.2
	weightSentences   = 0.3
	weightStructure   = 0.3
	weightPunctuation = 0.2
)

// Trend classifies the direction of the recent score history.
type Trend string

const (
	// TrendIncreasing means the last three scores rose consistently.
	TrendIncreasing Trend = "increasing"
	// TrendDecreasing means the last three scores fell consistently.
	TrendDecreasing Trend = "decreasing"
	// TrendStable means the last three scores moved within 0.1 of each other.
	TrendStable Trend = "stable"
	// TrendFluctuating means the last three scores changed direction.
	TrendFluctuating Trend = "fluctuating"
)

// Options configures a Scorer.
type Options struct {
	// WindowSize is the number of trailing non-system messages examined.
	WindowSize int
}

// Scorer computes and accumulates convergence scores for one conversation.
// It is owned by a single orchestrator instance and requires no locking.
type Scorer struct {
	windowSize int
	history    []float64
}

// NewScorer constructs a Scorer with optional overrides.
func NewScorer(optFns ...func(o *Options)) *Scorer {
	opts := Options{WindowSize: 10}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.WindowSize < 2 {
		opts.WindowSize = 2
	}
	return &Scorer{windowSize: opts.WindowSize}
}

// Calculate scores the trailing window of messages partitioned by the two
// agent IDs, appends the result to the history and returns it. Returns 0.0
// when either agent has no messages in the window.
func (s *Scorer) Calculate(messages []core.Message, agentA, agentB string) float64 {
	score := s.score(messages, agentA, agentB)
	s.history = append(s.history, score)
	return score
}

func (s *Scorer) score(messages []core.Message, agentA, agentB string) float64 {
	window := messages
	if len(window) > s.windowSize {
		window = window[len(window)-s.windowSize:]
	}

	var a, b []string
	for _, m := range window {
		if m.IsSystem() {
			continue
		}
		switch m.AgentID {
		case agentA:
			a = append(a, m.Content)
		case agentB:
			b = append(b, m.Content)
		}
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	score := weightLength*lengthSimilarity(a, b) +
		weightSentences*sentenceSimilarity(a, b) +
		weightStructure*structuralSimilarity(a, b) +
		weightPunctuation*punctuationSimilarity(a, b)

	return math.Round(score*100) / 100
}

// History returns a copy of all scores computed so far.
func (s *Scorer) History() []float64 {
	out := make([]float64, len(s.history))
	copy(out, s.history)
	return out
}

// Latest returns the most recent score, or 0.0 when none exists.
func (s *Scorer) Latest() float64 {
	if len(s.history) == 0 {
		return 0.0
	}
	return s.history[len(s.history)-1]
}

// TrendWindow classifies the last three scores. Fewer than three scores, or
// deltas all within 0.1, read as stable.
func (s *Scorer) TrendWindow() Trend {
	if len(s.history) < 3 {
		return TrendStable
	}
	last := s.history[len(s.history)-3:]
	d1 := last[1] - last[0]
	d2 := last[2] - last[1]

	switch {
	case math.Abs(d1) <= 0.1 && math.Abs(d2) <= 0.1:
		return TrendStable
	case d1 > 0 && d2 > 0:
		return TrendIncreasing
	case d1 < 0 && d2 < 0:
		return TrendDecreasing
	default:
		return TrendFluctuating
	}
}

// ratio implements the shared similarity convention: min/max of two
// non-negative quantities, with equal zeros scoring 1.0 and exactly one
// zero scoring 0.0.
func ratio(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1.0
	}
	if a == 0 || b == 0 {
		return 0.0
	}
	return math.Min(a, b) / math.Max(a, b)
}

func average(values []string, f func(string) float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += f(v)
	}
	return total / float64(len(values))
}

func lengthSimilarity(a, b []string) float64 {
	length := func(s string) float64 { return float64(len(s)) }
	return ratio(average(a, length), average(b, length))
}

func sentenceSimilarity(a, b []string) float64 {
	return ratio(average(a, countSentences), average(b, countSentences))
}

func countSentences(text string) float64 {
	count := 0
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			count++
		}
	}
	return float64(count)
}

// structuralFeatures are the per-message counts compared pairwise between
// the two agents.
var structuralFeatures = []func(string) float64{
	countParagraphs,
	countListMarkers,
	countQuestionMarks,
	countCodeFences,
}

func structuralSimilarity(a, b []string) float64 {
	var total float64
	for _, feature := range structuralFeatures {
		total += ratio(average(a, feature), average(b, feature))
	}
	return total / float64(len(structuralFeatures))
}

func countParagraphs(text string) float64 {
	blocks := strings.Split(text, "\n\n")
	count := 0
	for _, blk := range blocks {
		if strings.TrimSpace(blk) != "" {
			count++
		}
	}
	return float64(count)
}

func countListMarkers(text string) float64 {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "• ") {
			count++
			continue
		}
		if i := strings.IndexAny(trimmed, ".)"); i > 0 && isDigits(trimmed[:i]) {
			count++
		}
	}
	return float64(count)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func countQuestionMarks(text string) float64 {
	return float64(strings.Count(text, "?"))
}

func countCodeFences(text string) float64 {
	return float64(strings.Count(text, "```") / 2)
}

// punctuationMarks are compared as frequencies normalized by character count.
var punctuationMarks = []rune{'!', ',', ';', ':', '-'}

func punctuationSimilarity(a, b []string) float64 {
	profileA := punctuationProfile(a)
	profileB := punctuationProfile(b)

	var total float64
	for i := range punctuationMarks {
		total += ratio(profileA[i], profileB[i])
	}
	return total / float64(len(punctuationMarks))
}

// punctuationProfile returns per-mark frequencies over all of one agent's
// window text.
func punctuationProfile(messages []string) []float64 {
	text := strings.Join(messages, "")
	freqs := make([]float64, len(punctuationMarks))
	if len(text) == 0 {
		return freqs
	}
	for i, mark := range punctuationMarks {
		freqs[i] = float64(strings.Count(text, string(mark))) / float64(len(text))
	}
	return freqs
}
