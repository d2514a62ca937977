// Package engine implements the store inventory engine described by the
// specification: event ingestion, presence/dedup tracking, per-location
// quantity computation, min/max evaluation, replenishment and receiving
// state machines, rule template projection, and staff auto-assignment.
//
// The engine is single-threaded cooperative (spec.md §5): every exported
// command and read-model method takes Engine.mu for its entire duration,
// including any cascading recompute it triggers, so a caller never
// observes a half-applied command. Two exceptions: Seed applies its
// dataset as a sequence of such commands, each taking the lock on its own,
// and MetricsSnapshot reads the metrics collector, which carries its own
// lock. There is no goroutine inside the engine itself; the only
// concurrency is external callers serialized by the mutex.
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shelfworks/shelfengine/internal/circuitbreaker"
	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/internal/core/ports"
	"github.com/shelfworks/shelfengine/internal/logging"
	"github.com/shelfworks/shelfengine/internal/metrics"
)

// Engine owns every piece of engine state. Nothing outside this package
// holds a pointer into it; all reads go through the read-model methods in
// readmodels.go, which return copies.
type Engine struct {
	mu sync.Mutex

	logger  logging.EngineLogger
	metrics *metrics.Collector
	sources *circuitbreaker.Registry
	ids     ports.IDGenerator

	dedupWindow time.Duration
	presenceTTL time.Duration

	cursor time.Time

	locations      map[string]*domain.Location
	antennas       map[string]*domain.Antenna
	antennaOrder   map[string][]string // locationID -> antenna ids in registration order
	skus           map[string]*domain.SKU
	epcMappings    map[string][]*domain.EPCMapping // epc -> mappings, oldest first

	presence map[string]*domain.Presence       // epc -> presence
	dedup    map[domain.DedupKey]time.Time     // last accepted read time
	recentReads map[string][]types_RecentRead  // locationID -> bounded recent reads

	ledgerBaselines map[string]*domain.LedgerBaseline // "loc|sku" -> baseline
	ledgerEntries   map[string][]domain.LedgerEntry   // "loc|sku" -> entries, oldest first

	snapshots map[domain.SnapshotKey]*domain.Snapshot
	rfidFloors map[domain.SnapshotKey]int // confidence-0.55 floor from an immediate sale deduction

	templates map[string]*domain.RuleTemplate
	rules     map[string]*domain.EffectiveRule // rule id -> effective rule

	tasks    map[string]*domain.ReplenishmentTask
	taskSeq  map[string]int64 // task id -> creation sequence, for stable ordering
	seqCount int64

	receivingOrders map[string]*domain.ReceivingOrder

	basketItems  map[string]*domain.BasketItem
	pendingPicks map[string]*domain.PendingPick // keyed by basket item id

	staff map[string]*domain.StaffMember

	audit []domain.AuditEntry
	flow  []FlowEvent
}

// FlowEvent is the engine-internal form of the flow timeline read model.
type FlowEvent struct {
	At      time.Time
	Kind    string
	Summary string
}

// types_RecentRead is the engine-internal entry of the small per-location
// ring buffer of recent reads; readmodels.go converts it to the pkg/types
// form at the boundary.
type types_RecentRead struct {
	EPC       string
	AntennaID string
	At        time.Time
}

const recentReadsPerZone = 25

// New constructs an empty engine. Callers build initial state through
// Seed (seed.go) rather than module-level initialization, per spec.md §9.
func New(logger logging.EngineLogger, ids ports.IDGenerator, dedupWindow, presenceTTL time.Duration, breakerCfg circuitbreaker.Config) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		logger:      logger,
		metrics:     metrics.New(),
		sources:     circuitbreaker.NewRegistry(breakerCfg, logger),
		ids:         ids,
		dedupWindow: dedupWindow,
		presenceTTL: presenceTTL,

		locations:    make(map[string]*domain.Location),
		antennas:     make(map[string]*domain.Antenna),
		antennaOrder: make(map[string][]string),
		skus:         make(map[string]*domain.SKU),
		epcMappings:  make(map[string][]*domain.EPCMapping),

		presence:    make(map[string]*domain.Presence),
		dedup:       make(map[domain.DedupKey]time.Time),
		recentReads: make(map[string][]types_RecentRead),

		ledgerBaselines: make(map[string]*domain.LedgerBaseline),
		ledgerEntries:   make(map[string][]domain.LedgerEntry),

		snapshots:  make(map[domain.SnapshotKey]*domain.Snapshot),
		rfidFloors: make(map[domain.SnapshotKey]int),

		templates: make(map[string]*domain.RuleTemplate),
		rules:     make(map[string]*domain.EffectiveRule),

		tasks:   make(map[string]*domain.ReplenishmentTask),
		taskSeq: make(map[string]int64),

		receivingOrders: make(map[string]*domain.ReceivingOrder),

		basketItems:  make(map[string]*domain.BasketItem),
		pendingPicks: make(map[string]*domain.PendingPick),

		staff: make(map[string]*domain.StaffMember),
	}
}

// Cursor exposes the current monotonic cursor, for diagnostics/tests.
func (e *Engine) Cursor() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// advanceCursor implements spec.md §4.1: the cursor only ever moves
// forward, and out-of-order events do not rewind it.
func (e *Engine) advanceCursor(t time.Time) {
	if t.After(e.cursor) {
		e.cursor = t
	}
}

func ledgerKey(locationID, skuID string) string {
	return locationID + "|" + skuID
}

func (e *Engine) recordFlow(kind, summary string) {
	e.flow = append(e.flow, FlowEvent{At: e.cursor, Kind: kind, Summary: summary})
}

func (e *Engine) appendAudit(taskID string, action domain.AuditAction, actor, details string) {
	e.audit = append(e.audit, domain.AuditEntry{
		ID:      e.ids.NewID(),
		TaskID:  taskID,
		Action:  action,
		Actor:   actor,
		Details: details,
		At:      e.cursor,
	})
	e.logger.Debug("audit",
		zap.String("task_id", taskID),
		zap.String("action", string(action)),
		zap.String("actor", actor),
	)
}

func (e *Engine) nextTaskSeq() int64 {
	e.seqCount++
	return e.seqCount
}
