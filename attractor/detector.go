package attractor

import (
	"fmt"
	"strings"
)

// Detection describes a qualifying structural pattern found in the trailing
// signature window.
type Detection struct {
	// Type is the registry label for the pattern ("question_volley", ...).
	Type string `json:"type"`
	// Signature is the repeated signature, or "a ⇄ b" for alternating pairs.
	Signature string `json:"signature"`
	// Confidence is the repeat share of the window, in [0,1].
	Confidence float64 `json:"confidence"`
	// Frequency is the number of repeats observed.
	Frequency int `json:"frequency"`
	// Positions are the window-relative message indexes where the pattern
	// occurred (for alternating patterns, the start of each full cycle).
	Positions []int `json:"positions"`
	// Description is the registry's human explanation of the pattern.
	Description string `json:"description"`
	// TypicalTurns is the registry's note on when the pattern tends to set
	// in, empty for unrecognized shapes.
	TypicalTurns string `json:"typical_turns,omitempty"`
	// Alternating marks a period-2 pattern.
	Alternating bool `json:"alternating,omitempty"`
}

// DetectorOptions configures a Detector.
type DetectorOptions struct {
	// WindowSize is the number of trailing signatures examined.
	WindowSize int
	// Threshold is the minimum exact-repeat count (alternating patterns
	// need Threshold-1 full cycles).
	Threshold int
	// MinConfidence is the minimum repeat share of the window for a
	// detection to be reported.
	MinConfidence float64
	// Registry names detected patterns. Defaults to the built-in registry.
	Registry *Registry
}

// Detector finds repeating or alternating structural signatures over a
// trailing window of messages. Owned by a single conversation's analysis;
// not safe for concurrent use.
type Detector struct {
	windowSize    int
	threshold     int
	minConfidence float64
	registry      *Registry
}

// NewDetector constructs a Detector with optional overrides.
func NewDetector(optFns ...func(o *DetectorOptions)) *Detector {
	opts := DetectorOptions{
		WindowSize:    10,
		Threshold:     3,
		MinConfidence: 0.8,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	return &Detector{
		windowSize:    opts.WindowSize,
		threshold:     opts.Threshold,
		minConfidence: opts.MinConfidence,
		registry:      opts.Registry,
	}
}

// Detect analyzes the trailing window of raw message contents and returns a
// qualifying detection or nil. Exact-repeat detection always takes priority
// over alternating detection.
func (d *Detector) Detect(contents []string) *Detection {
	if len(contents) == 0 {
		return nil
	}
	window := contents
	if len(window) > d.windowSize {
		window = window[len(window)-d.windowSize:]
	}

	signatures := make([]string, len(window))
	for i, c := range window {
		signatures[i] = Signature(c)
	}

	if det := d.detectExact(signatures); det != nil {
		return det
	}
	return d.detectAlternating(signatures)
}

// detectExact reports the most frequent exact signature if it clears both
// the absolute threshold and the window-share floor.
func (d *Detector) detectExact(signatures []string) *Detection {
	counts := map[string]int{}
	positions := map[string][]int{}
	for i, sig := range signatures {
		if sig == "" {
			continue
		}
		counts[sig]++
		positions[sig] = append(positions[sig], i)
	}

	var best string
	bestCount := 0
	for _, sig := range signatures {
		// Iterate in window order so ties resolve to the earliest signature.
		if c := counts[sig]; c > bestCount {
			best, bestCount = sig, c
		}
	}

	confidence := float64(bestCount) / float64(len(signatures))
	if bestCount < d.threshold || confidence < d.minConfidence {
		return nil
	}

	name, description, typical := d.registry.Lookup(SignatureElements(best))
	return &Detection{
		Type:         name,
		Signature:    best,
		Confidence:   confidence,
		Frequency:    bestCount,
		Positions:    positions[best],
		Description:  description,
		TypicalTurns: typical,
	}
}

// detectAlternating reports the most frequent contiguous period-2 pair. A
// full cycle is one occurrence of A followed by B with the alternation
// unbroken; cycles must number at least threshold-1 and cover at least
// MinConfidence of window/2.
func (d *Detector) detectAlternating(signatures []string) *Detection {
	if len(signatures) < 4 {
		return nil
	}

	type pairRun struct {
		cycles    int
		positions []int
	}
	runs := map[string]*pairRun{}
	var order []string

	i := 0
	for i < len(signatures)-1 {
		a, b := signatures[i], signatures[i+1]
		if a == "" || b == "" || a == b {
			i++
			continue
		}
		// Walk the longest unbroken a/b alternation starting at i.
		j := i
		var starts []int
		for j+1 < len(signatures) && signatures[j] == a && signatures[j+1] == b {
			starts = append(starts, j)
			j += 2
		}
		if len(starts) > 0 {
			key := a + "\x00" + b
			run, ok := runs[key]
			if !ok {
				run = &pairRun{}
				runs[key] = run
				order = append(order, key)
			}
			run.cycles += len(starts)
			run.positions = append(run.positions, starts...)
			i = j
			continue
		}
		i++
	}

	var bestKey string
	var best *pairRun
	for _, key := range order {
		// First-occurrence order so ties resolve to the earliest pair.
		if run := runs[key]; best == nil || run.cycles > best.cycles {
			bestKey, best = key, run
		}
	}
	if best == nil {
		return nil
	}

	confidence := float64(best.cycles) / float64(len(signatures)/2)
	if best.cycles < d.threshold-1 || confidence < d.minConfidence {
		return nil
	}

	parts := strings.SplitN(bestKey, "\x00", 2)
	elements := append(SignatureElements(parts[0]), SignatureElements(parts[1])...)
	name, description, typical := d.registry.Lookup(elements)
	return &Detection{
		Type:         name,
		Signature:    fmt.Sprintf("%s ⇄ %s", parts[0], parts[1]),
		Confidence:   confidence,
		Frequency:    best.cycles,
		Positions:    best.positions,
		Description:  description,
		TypicalTurns: typical,
		Alternating:  true,
	}
}
