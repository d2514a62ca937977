package domain

import "time"

// SnapshotKey addresses one row of the per-(location, SKU, source) quantity
// table.
type SnapshotKey struct {
	LocationID string
	SKUID      string
	Source     Source
}

// Snapshot is the live quantity view the planner reads from. Versions
// increase monotonically on every write, even a no-op write (spec.md §9),
// so collaborators can detect drift.
type Snapshot struct {
	Key             SnapshotKey
	Qty             int
	Confidence      float64
	Version         int64
	LastCalculatedAt time.Time
}
