package attractor

import "time"

// Record is a timestamped detection retained by the Manager.
type Record struct {
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`
	Detection Detection `json:"detection"`
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// CheckInterval is the turn cadence at which the detector runs.
	CheckInterval int
	// Detector overrides the default detector.
	Detector *Detector
}

// Manager wraps a Detector to run it on a turn cadence and accumulate a
// history of detections for summary export. Owned by one conversation's
// orchestrator; not safe for concurrent use.
type Manager struct {
	detector      *Detector
	checkInterval int
	history       []Record
}

// NewManager constructs a Manager with optional overrides.
func NewManager(optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{CheckInterval: 5}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CheckInterval < 1 {
		opts.CheckInterval = 1
	}
	if opts.Detector == nil {
		opts.Detector = NewDetector()
	}
	return &Manager{detector: opts.Detector, checkInterval: opts.CheckInterval}
}

// Due reports whether the detector should run after the given turn.
func (m *Manager) Due(turn int) bool {
	return turn > 0 && turn%m.checkInterval == 0
}

// Check runs the detector if the turn cadence is due, records any detection
// and returns it. Off-cadence turns return nil without analysis.
func (m *Manager) Check(turn int, contents []string) *Detection {
	if !m.Due(turn) {
		return nil
	}
	det := m.detector.Detect(contents)
	if det != nil {
		m.history = append(m.history, Record{Turn: turn, Timestamp: time.Now().UTC(), Detection: *det})
	}
	return det
}

// History returns a copy of all recorded detections.
func (m *Manager) History() []Record {
	out := make([]Record, len(m.history))
	copy(out, m.history)
	return out
}

// Summary aggregates detection counts by pattern type.
func (m *Manager) Summary() map[string]int {
	out := map[string]int{}
	for _, rec := range m.history {
		out[rec.Detection.Type]++
	}
	return out
}
