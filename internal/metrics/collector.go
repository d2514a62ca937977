// Package metrics holds the engine's in-process counters: a read-only
// snapshot of activity that the engine exposes through MetricsSnapshot
// alongside the other read models (spec.md §6). Nothing logs it
// periodically.
package metrics

import "sync"

// Snapshot is a point-in-time copy of the counters, safe to hand to
// collaborators (spec.md §5: "external readers receive defensive copies").
type Snapshot struct {
	CommandsAccepted    int64
	CommandsRejected    int64
	DedupRejections     int64
	PresenceTTLEvicted  int64
	TasksCreated        int64
	TasksConfirmed      int64
	TasksRejected       int64
	ReceivingOrdersOpen int64
	StaffFallbackCount  int64
}

// Collector accumulates engine activity counters. It is embedded in the
// engine and updated inline with command processing, never from a
// background goroutine, matching the single-threaded cooperative model of
// spec.md §5.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{}
}

func (c *Collector) IncCommandsAccepted() {
	c.mu.Lock()
	c.s.CommandsAccepted++
	c.mu.Unlock()
}

func (c *Collector) IncCommandsRejected() {
	c.mu.Lock()
	c.s.CommandsRejected++
	c.mu.Unlock()
}

func (c *Collector) IncDedupRejections() {
	c.mu.Lock()
	c.s.DedupRejections++
	c.mu.Unlock()
}

func (c *Collector) AddPresenceTTLEvicted(n int64) {
	c.mu.Lock()
	c.s.PresenceTTLEvicted += n
	c.mu.Unlock()
}

func (c *Collector) IncTasksCreated() {
	c.mu.Lock()
	c.s.TasksCreated++
	c.mu.Unlock()
}

func (c *Collector) IncTasksConfirmed() {
	c.mu.Lock()
	c.s.TasksConfirmed++
	c.mu.Unlock()
}

func (c *Collector) IncTasksRejected() {
	c.mu.Lock()
	c.s.TasksRejected++
	c.mu.Unlock()
}

func (c *Collector) SetReceivingOrdersOpen(n int64) {
	c.mu.Lock()
	c.s.ReceivingOrdersOpen = n
	c.mu.Unlock()
}

func (c *Collector) IncStaffFallback() {
	c.mu.Lock()
	c.s.StaffFallbackCount++
	c.mu.Unlock()
}

// Snapshot returns a defensive copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
