// Package sweep runs the periodic zone sweep (spec.md §4.3, §6): a ticking
// goroutine that submits forceZoneSweep for every sales location on a
// fixed cadence, refreshing presence lastSeenAt without changing EPC
// bindings. Grounded on the teacher's internal/workerpool/workerpool.go:
// the same context/cancel/WaitGroup shutdown shape, scaled down to a
// single-consumer scheduler because every command the engine accepts is
// already serialized by its own mutex — there is nothing for a second
// worker to do in parallel.
package sweep

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shelfworks/shelfengine/internal/logging"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// Engine is the subset of *engine.Engine the scheduler needs: submit a
// sweep and list sales locations to sweep. Declared here rather than
// imported so the sweep package has no compile-time dependency on
// internal/engine's full surface.
type Engine interface {
	ForceZoneSweep(cmd types.ForceZoneSweepCmd) types.Result
	SalesLocationIDs() []string
}

// Scheduler ticks every interval and submits a sweep for each sales
// location, funneled one at a time through the engine's own mutex.
type Scheduler struct {
	engine   Engine
	interval time.Duration
	logger   logging.EngineLogger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Scheduler. now defaults to time.Now when nil; tests
// inject a deterministic clock instead.
func New(e Engine, interval time.Duration, logger logging.EngineLogger, now func() time.Time) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{engine: e, interval: interval, logger: logger, now: now}
}

// Start begins ticking in a background goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the scheduler and waits for its goroutine to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweep scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) tick() {
	at := s.now()
	for _, locationID := range s.engine.SalesLocationIDs() {
		res := s.engine.ForceZoneSweep(types.ForceZoneSweepCmd{LocationID: locationID, Timestamp: at})
		if res.Status != types.StatusAccepted {
			s.logger.Warn("sweep rejected",
				zap.String("location_id", locationID),
				zap.String("status", string(res.Status)),
			)
		}
	}
	s.logger.Debug("sweep tick completed", zap.Time("at", at))
}
