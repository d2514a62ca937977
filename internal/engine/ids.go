package engine

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUIDGenerator implements ports.IDGenerator with random v4 uuids, used in
// production and by the CLI.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequentialGenerator implements ports.IDGenerator with a simple counter,
// used by tests that want to assert on specific ids.
type SequentialGenerator struct {
	prefix  string
	counter int64
}

// NewSequentialGenerator creates a generator producing "<prefix>-<n>" ids.
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix}
}

func (g *SequentialGenerator) NewID() string {
	n := atomic.AddInt64(&g.counter, 1)
	return g.prefix + "-" + strconv.FormatInt(n, 10)
}
