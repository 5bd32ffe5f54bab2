package ahocorasick

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/endorses/acscan/internal/pkg/logger"
)

// Reloader holds the current automaton for a pattern set that may be replaced at
// runtime. Replacing patterns builds a whole new automaton and swaps it in atomically;
// the old automaton is never modified, so sessions opened on it keep working until
// their owners drop them.
//
// Key features:
//   - Lock-free reads via atomic.Pointer
//   - Background rebuilds without blocking matches
//   - A failed rebuild keeps the previous automaton in service
type Reloader struct {
	// automaton is the current automaton, accessed atomically.
	// nil indicates no automaton is available.
	automaton atomic.Pointer[Automaton]

	// firstMatch is the mode of sessions opened through NewSession.
	firstMatch bool

	// patterns stores the most recently requested pattern list.
	patterns   []string
	patternsMu sync.RWMutex

	// buildMu ensures only one rebuild runs at a time.
	buildMu sync.Mutex

	// building indicates a rebuild is in progress.
	building atomic.Bool

	lastBuildTime     atomic.Value // time.Time
	lastBuildDuration atomic.Value // time.Duration
	lastBuildError    atomic.Value // string
}

// NewReloader creates a Reloader with no automaton.
func NewReloader(firstMatch bool) *Reloader {
	r := &Reloader{firstMatch: firstMatch}
	r.lastBuildTime.Store(time.Time{})
	r.lastBuildDuration.Store(time.Duration(0))
	r.lastBuildError.Store("")
	return r
}

// Update replaces the pattern list and rebuilds in the background.
// Matches keep using the previous automaton until the new one is ready.
func (r *Reloader) Update(patterns []string) {
	r.setPatterns(patterns)
	go func() {
		_ = r.rebuild()
	}()
}

// UpdateSync replaces the pattern list and waits for the rebuild to complete.
func (r *Reloader) UpdateSync(patterns []string) error {
	r.setPatterns(patterns)
	return r.rebuild()
}

func (r *Reloader) setPatterns(patterns []string) {
	r.patternsMu.Lock()
	r.patterns = make([]string, len(patterns))
	copy(r.patterns, patterns)
	r.patternsMu.Unlock()
}

// rebuild builds a new automaton from the current pattern list and swaps it in.
func (r *Reloader) rebuild() error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	r.building.Store(true)
	defer r.building.Store(false)

	r.patternsMu.RLock()
	patterns := make([]string, len(r.patterns))
	copy(patterns, r.patterns)
	r.patternsMu.RUnlock()

	if len(patterns) == 0 {
		r.automaton.Store(nil)
		r.lastBuildError.Store("")
		logger.Debug("Cleared AC automaton (no patterns)")
		return nil
	}

	startTime := time.Now()
	next, err := Build(patterns)
	if err != nil {
		r.lastBuildError.Store(err.Error())
		logger.Error("Failed to build AC automaton, keeping previous one",
			"error", err,
			"pattern_count", len(patterns))
		return err
	}
	buildDuration := time.Since(startTime)

	r.automaton.Store(next)
	r.lastBuildTime.Store(time.Now())
	r.lastBuildDuration.Store(buildDuration)
	r.lastBuildError.Store("")

	logger.Info("AC automaton rebuilt",
		"pattern_count", len(patterns),
		"build_duration", buildDuration,
		"state_count", next.StateCount())

	return nil
}

// Current returns the automaton in service, or nil.
func (r *Reloader) Current() *Automaton {
	return r.automaton.Load()
}

// NewSession opens a session on the automaton currently in service.
// The session stays bound to that automaton even if a later rebuild replaces it.
func (r *Reloader) NewSession() (*Session, error) {
	a := r.automaton.Load()
	if a == nil {
		return nil, ErrNoAutomaton
	}
	return a.NewSession(r.firstMatch), nil
}

// Match matches input against the current automaton. It returns nil when no
// automaton is available.
func (r *Reloader) Match(input []byte) MatchSet {
	a := r.automaton.Load()
	if a == nil {
		return nil
	}
	return a.Match(input)
}

// MatchBatch matches multiple inputs against one snapshot of the current automaton.
func (r *Reloader) MatchBatch(inputs [][]byte) []MatchSet {
	a := r.automaton.Load()
	if a == nil {
		return make([]MatchSet, len(inputs))
	}
	return a.MatchBatch(inputs)
}

// PatternCount returns the number of patterns in the automaton currently in service.
func (r *Reloader) PatternCount() int {
	a := r.automaton.Load()
	if a == nil {
		return 0
	}
	return a.PatternCount()
}

// IsBuilding returns true if a rebuild is currently in progress.
func (r *Reloader) IsBuilding() bool {
	return r.building.Load()
}

// HasAutomaton returns true if an automaton is available.
func (r *Reloader) HasAutomaton() bool {
	return r.automaton.Load() != nil
}

// ReloaderStats is a snapshot of a Reloader's state.
type ReloaderStats struct {
	PatternCount      int           `json:"pattern_count"`
	HasAutomaton      bool          `json:"has_automaton"`
	IsBuilding        bool          `json:"is_building"`
	LastBuildTime     time.Time     `json:"last_build_time"`
	LastBuildDuration time.Duration `json:"last_build_duration"`
	LastBuildError    string        `json:"last_build_error,omitempty"`
	StateCount        int           `json:"state_count"`
	Holders           int           `json:"holders"`
}

// Stats returns current statistics.
func (r *Reloader) Stats() ReloaderStats {
	a := r.automaton.Load()
	stats := ReloaderStats{
		HasAutomaton:      a != nil,
		IsBuilding:        r.IsBuilding(),
		LastBuildTime:     r.lastBuildTime.Load().(time.Time),
		LastBuildDuration: r.lastBuildDuration.Load().(time.Duration),
		LastBuildError:    r.lastBuildError.Load().(string),
	}
	if a != nil {
		stats.PatternCount = a.PatternCount()
		stats.StateCount = a.StateCount()
		stats.Holders = a.Holders()
	}
	return stats
}
