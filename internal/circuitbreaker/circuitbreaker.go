// Package circuitbreaker tracks, per replenishment source, whether recent
// transfer attempts have actually moved stock. The planner (internal/engine)
// consults it to order source candidates, never to exclude one outright —
// spec.md §4.6 requires a zero-stock source stay visible as a task target.
//
// Unlike a network circuit breaker this one is not wall-clock driven: the
// engine is deterministic under replay (spec.md §5), so every state
// transition is keyed off the engine's own cursor time, passed in
// explicitly by the caller.
package circuitbreaker

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shelfworks/shelfengine/internal/logging"
)

// State mirrors the classic circuit breaker vocabulary.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config controls breaker sensitivity.
type Config struct {
	MaxFailures   int           // consecutive zero-movement outcomes before opening
	ResetTimeout  time.Duration // cursor time that must elapse before probing again
	HalfOpenLimit int           // successes required in half-open before closing
}

// DefaultConfig mirrors the teacher's conservative defaults.
func DefaultConfig() Config {
	return Config{MaxFailures: 3, ResetTimeout: 60 * time.Second, HalfOpenLimit: 1}
}

// Breaker is a single source's health tracker.
type Breaker struct {
	cfg Config

	mu            sync.Mutex
	state         State
	failures      int
	halfOpenCount int
	lastFailure   time.Time

	totalAttempts int64
	successCount  int64
	failureCount  int64
}

func newBreaker(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Allow reports whether a candidate from this source should be preferred
// (true) over an otherwise-equal candidate, given the engine cursor `now`.
// An open breaker past its reset timeout flips to half-open as a side
// effect, matching the teacher's shouldAttemptReset semantics.
func (b *Breaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if now.Sub(b.lastFailure) >= b.cfg.ResetTimeout {
			b.state = StateHalfOpen
			b.halfOpenCount = 0
			return true
		}
		return false
	case StateHalfOpen:
		return b.halfOpenCount < b.cfg.HalfOpenLimit
	default:
		return false
	}
}

// RecordSuccess registers a transfer that moved at least one unit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalAttempts++
	b.successCount++

	switch b.state {
	case StateHalfOpen:
		b.halfOpenCount++
		if b.halfOpenCount >= b.cfg.HalfOpenLimit {
			b.state = StateClosed
			b.failures = 0
			b.halfOpenCount = 0
		}
	case StateClosed:
		b.failures = 0
	}
}

// RecordFailure registers a `no_inventory_moved` outcome at cursor time now.
func (b *Breaker) RecordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalAttempts++
	b.failureCount++
	b.failures++
	b.lastFailure = now

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.halfOpenCount = 0
		return
	}
	if b.failures >= b.cfg.MaxFailures {
		b.state = StateOpen
	}
}

// StateNow returns the current state, for read models.
func (b *Breaker) StateNow() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Registry tracks one Breaker per replenishment source id.
type Registry struct {
	cfg      Config
	mu       sync.RWMutex
	breakers map[string]*Breaker
	logger   logging.EngineLogger
}

// NewRegistry creates a source-health breaker registry.
func NewRegistry(cfg Config, logger logging.EngineLogger) *Registry {
	if cfg.MaxFailures <= 0 {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{cfg: cfg, breakers: make(map[string]*Breaker), logger: logger}
}

func (r *Registry) get(sourceID string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[sourceID]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[sourceID]; ok {
		return b
	}
	b = newBreaker(r.cfg)
	r.breakers[sourceID] = b
	return b
}

// Allow reports whether sourceID's breaker currently favors new attempts.
func (r *Registry) Allow(sourceID string, now time.Time) bool {
	return r.get(sourceID).Allow(now)
}

// RecordOutcome logs a transfer attempt's result against sourceID's breaker.
func (r *Registry) RecordOutcome(sourceID string, moved bool, now time.Time) {
	b := r.get(sourceID)
	if moved {
		b.RecordSuccess()
		return
	}
	b.RecordFailure(now)
	if b.StateNow() == StateOpen {
		r.logger.Warn("source health breaker opened", zap.String("source_id", sourceID))
	}
}

// State reports a source's current breaker state for read models.
func (r *Registry) State(sourceID string) State {
	r.mu.RLock()
	b, ok := r.breakers[sourceID]
	r.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	return b.StateNow()
}
