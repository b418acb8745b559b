package attractor

// Pattern is a named structural shape conversations are known to collapse
// into.
type Pattern struct {
	// Name is the stable label reported in detections.
	Name string
	// Elements is the characteristic tag set of the pattern.
	Elements []Tag
	// Description explains the degenerate shape in human terms.
	Description string
	// TypicalTurns notes when the pattern tends to set in.
	TypicalTurns string
}

// Registry maps detected signatures to named patterns.
type Registry struct {
	patterns []Pattern
}

// DefaultRegistry returns the built-in pattern catalog.
func DefaultRegistry() *Registry {
	return &Registry{patterns: []Pattern{
		{
			Name:         "excited_enumeration",
			Elements:     []Tag{TagExcitedOpening, TagListItem, TagExclamation},
			Description:  "every message opens with excitement, enumerates points, and closes on an exclamation",
			TypicalTurns: "15-35",
		},
		{
			Name:         "gratitude_spiral",
			Elements:     []Tag{TagFirstPersonStatement, TagExclamation, TagShortLine},
			Description:  "agents trade escalating first-person appreciation in ever-shorter bursts",
			TypicalTurns: "20-40",
		},
		{
			Name:         "question_volley",
			Elements:     []Tag{TagQuestion},
			Description:  "each message is answered only with further questions",
			TypicalTurns: "10-25",
		},
		{
			Name:         "manifesto",
			Elements:     []Tag{TagAnnouncement, TagLongStatement, TagListItem},
			Description:  "announcement headers followed by long declarations and bullet programs, repeated verbatim in shape",
			TypicalTurns: "25-50",
		},
		{
			Name:         "emoji_collapse",
			Elements:     []Tag{TagEmojiLine, TagShortLine},
			Description:  "content dissolves into short lines and emoji exchanges",
			TypicalTurns: "30-60",
		},
		{
			Name:         "postscript_chain",
			Elements:     []Tag{TagStatement, TagPostscript},
			Description:  "messages end in ever-growing postscript trails",
			TypicalTurns: "20-45",
		},
	}}
}

// Register appends a custom pattern to the catalog.
func (r *Registry) Register(p Pattern) { r.patterns = append(r.patterns, p) }

// Lookup names a detected element sequence. Resolution order: exact element
// set match, then >= 0.6 overlap similarity, then dominant-element
// heuristics, then a generic label.
func (r *Registry) Lookup(elements []Tag) (name, description, typicalTurns string) {
	if len(elements) == 0 {
		return "generic_repetition", "an unnamed structural template repeats across messages", ""
	}

	set := tagSet(elements)

	for _, p := range r.patterns {
		if setsEqual(set, tagSet(p.Elements)) {
			return p.Name, p.Description, p.TypicalTurns
		}
	}

	bestScore := 0.0
	var bestPattern *Pattern
	for i := range r.patterns {
		score := overlap(set, tagSet(r.patterns[i].Elements))
		if score > bestScore {
			bestScore = score
			bestPattern = &r.patterns[i]
		}
	}
	if bestPattern != nil && bestScore >= 0.6 {
		return bestPattern.Name, bestPattern.Description, bestPattern.TypicalTurns
	}

	return dominantHeuristic(elements)
}

// dominantHeuristic labels a signature by its most frequent element.
func dominantHeuristic(elements []Tag) (string, string, string) {
	counts := map[Tag]int{}
	for _, e := range elements {
		counts[e]++
	}
	var dominant Tag
	best := 0
	for _, e := range elements {
		if counts[e] > best {
			dominant, best = e, counts[e]
		}
	}
	if best*2 < len(elements) {
		return "generic_repetition", "an unnamed structural template repeats across messages", ""
	}

	switch dominant {
	case TagListItem:
		return "structured_listing", "messages are dominated by bullet lists of near-identical shape", ""
	case TagQuestion:
		return "question_volley", "each message is answered only with further questions", ""
	case TagExclamation, TagExcitedOpening:
		return "exclamation_loop", "messages are dominated by exclamatory lines", ""
	case TagShortLine:
		return "terse_exchange", "messages have shrunk to repeated short lines", ""
	case TagEmojiLine:
		return "emoji_collapse", "content dissolves into short lines and emoji exchanges", ""
	default:
		return "generic_repetition", "an unnamed structural template repeats across messages", ""
	}
}

func tagSet(elements []Tag) map[Tag]struct{} {
	set := make(map[Tag]struct{}, len(elements))
	for _, e := range elements {
		set[e] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[Tag]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// overlap is the Jaccard similarity of two tag sets.
func overlap(a, b map[Tag]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
