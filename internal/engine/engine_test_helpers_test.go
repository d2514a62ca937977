package engine

import (
	"time"

	"github.com/shelfworks/shelfengine/internal/circuitbreaker"
	"github.com/shelfworks/shelfengine/internal/logging"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// newTestEngine builds an engine with a sequential id generator so tests can
// assert on specific ids, a generous dedup/TTL window overridden per test
// where needed, and the default circuit breaker config.
func newTestEngine(dedupWindow, presenceTTL time.Duration) *Engine {
	return New(logging.NewNop(), NewSequentialGenerator("id"), dedupWindow, presenceTTL, circuitbreaker.DefaultConfig())
}

func mustAccept(t interface{ Fatalf(string, ...interface{}) }, label string, res types.Result) {
	if res.Status != types.StatusAccepted {
		t.Fatalf("%s: expected accepted, got %s", label, res.Status)
	}
}

func ts(seconds int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)
}
