package prefilter

import "go.uber.org/zap/zapcore"

// TrackerConfig controls when a Tracker gives up on its prefilter.
type TrackerConfig struct {
	// Warmup is the number of candidates accepted before the first check.
	Warmup uint64
	// Interval is the number of candidates between later checks.
	Interval uint64
	// MinHitRate is the lowest ratio of confirmed matches to candidates
	// that keeps the prefilter in use.
	MinHitRate float64
}

// DefaultTrackerConfig returns the settings used by searches.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{Warmup: 128, Interval: 64, MinHitRate: 0.1}
}

// TrackerStats summarizes one search.
type TrackerStats struct {
	Candidates uint64
	Confirms   uint64
	Active     bool
}

// HitRate is Confirms over Candidates, zero before the first candidate.
func (s TrackerStats) HitRate() float64 {
	if s.Candidates == 0 {
		return 0
	}
	return float64(s.Confirms) / float64(s.Candidates)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s TrackerStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("candidates", s.Candidates)
	enc.AddUint64("confirms", s.Confirms)
	enc.AddFloat64("hitRate", s.HitRate())
	enc.AddBool("active", s.Active)
	return nil
}

// Tracker retires a prefilter whose candidates rarely turn into matches. A
// pattern such as `a\d` against text full of a's makes every candidate a
// failed attempt; trying each position is cheaper than asking the
// prefilter first. Once retired the prefilter stays off until Reset.
//
// A Tracker belongs to one search and is not safe for concurrent use.
type Tracker struct {
	pf     Prefilter
	config TrackerConfig
	stats  TrackerStats
	// nextCheck is the candidate count at which the hit rate is checked.
	nextCheck uint64
}

// NewTracker tracks pf with the default settings. It returns nil for a nil
// prefilter.
func NewTracker(pf Prefilter) *Tracker {
	return NewTrackerWithConfig(pf, DefaultTrackerConfig())
}

// NewTrackerWithConfig tracks pf with config.
func NewTrackerWithConfig(pf Prefilter, config TrackerConfig) *Tracker {
	if pf == nil {
		return nil
	}
	t := &Tracker{pf: pf, config: config}
	t.Reset()
	return t
}

// Find returns the next candidate at or after start, or -1 when there is
// none or the prefilter is retired. IsActive tells the two apart.
func (t *Tracker) Find(haystack []byte, start int) int {
	if !t.stats.Active {
		return -1
	}
	pos := t.pf.Find(haystack, start)
	if pos < 0 {
		return -1
	}
	t.stats.Candidates++
	if t.stats.Candidates >= t.nextCheck {
		t.nextCheck = t.stats.Candidates + t.config.Interval
		if t.stats.HitRate() < t.config.MinHitRate {
			t.stats.Active = false
		}
	}
	return pos
}

// ConfirmMatch records that the last candidate matched.
func (t *Tracker) ConfirmMatch() {
	t.stats.Confirms++
}

// IsActive reports whether the prefilter is still in use.
func (t *Tracker) IsActive() bool {
	return t.stats.Active
}

// Stats returns the counters of the current search.
func (t *Tracker) Stats() TrackerStats {
	return t.stats
}

// Reset clears the counters and puts the prefilter back in use.
func (t *Tracker) Reset() {
	t.stats = TrackerStats{Active: true}
	t.nextCheck = t.config.Warmup
}

// Prefilter returns the tracked prefilter.
func (t *Tracker) Prefilter() Prefilter {
	return t.pf
}
