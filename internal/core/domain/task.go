package domain

import "time"

// TaskStatus is the replenishment task's state machine (spec.md §4.7).
type TaskStatus string

const (
	TaskCreated    TaskStatus = "CREATED"
	TaskAssigned   TaskStatus = "ASSIGNED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskConfirmed  TaskStatus = "CONFIRMED"
	TaskRejected   TaskStatus = "REJECTED"
)

// IsOpen reports whether the task still participates in planning.
func (s TaskStatus) IsOpen() bool {
	return s == TaskCreated || s == TaskAssigned || s == TaskInProgress
}

// AutoAdjustable reports whether the planner may merge/trim/close this
// task automatically (every open status except IN_PROGRESS, spec.md §4.6).
func (s TaskStatus) AutoAdjustable() bool {
	return s == TaskCreated || s == TaskAssigned
}

// SourceCandidate is a scored potential origin for a task's movement
// (spec.md §3, §4.6).
type SourceCandidate struct {
	ZoneID        string
	SortOrder     int
	AvailableQty  int
}

// ReplenishmentTask is one in-flight move from a source zone to a
// destination location for a given (SKU, source type) pair.
type ReplenishmentTask struct {
	ID         string
	RuleID     string
	LocationID string // destination
	SKUID      string
	Source     Source

	SourceCandidates []SourceCandidate
	SelectedSourceID string

	Status TaskStatus

	TriggerQty int
	DeficitQty int
	TargetQty  int

	AssignedStaffID *string
	AssignedAt      *time.Time
	StartedAt       *time.Time

	ConfirmedQty *int
	ConfirmedBy  *string
	ConfirmedAt  *time.Time

	CloseReason string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// AttemptedSourceIDs remembers sources confirmTask has already tried
	// and failed against within a single confirmation attempt (spec.md
	// §4.9), so the fallback walk never revisits one.
	AttemptedSourceIDs []string
}
