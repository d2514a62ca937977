package engine

import (
	"sort"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// externalAvailableQty stands in for "effectively unlimited" when scoring an
// external-* source candidate, which the engine does not track a snapshot
// for (spec.md §4.6, §4.8).
const externalAvailableQty = 1 << 30

func (e *Engine) openTasksForRule(ruleID string) []*domain.ReplenishmentTask {
	var out []*domain.ReplenishmentTask
	for _, t := range e.tasks {
		if t.RuleID == ruleID && t.Status.IsOpen() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return e.taskSeq[out[i].ID] < e.taskSeq[out[j].ID] })
	return out
}

func (e *Engine) closeTask(t *domain.ReplenishmentTask, status domain.TaskStatus, reason string) {
	t.Status = status
	t.CloseReason = reason
	t.UpdatedAt = e.cursor
	action := domain.AuditClosed
	if status == domain.TaskRejected {
		action = domain.AuditCancelled
		e.metrics.IncTasksRejected()
	} else if status == domain.TaskConfirmed {
		e.metrics.IncTasksConfirmed()
	}
	e.appendAudit(t.ID, action, "system", reason)
}

func (e *Engine) snapshotQtyFor(locationID, skuID string, source domain.Source) int {
	if s, ok := e.snapshots[domain.SnapshotKey{LocationID: locationID, SKUID: skuID, Source: source}]; ok {
		return s.Qty
	}
	return 0
}

// reservedBySource sums the deficit every open task pulling from sourceID
// for skuID has already claimed, excluding excludeTaskID (spec.md §4.6's
// source-refresh pass).
func (e *Engine) reservedBySource(sourceID, skuID string, source domain.Source, excludeTaskID string) int {
	total := 0
	for _, t := range e.tasks {
		if t.ID == excludeTaskID || !t.Status.IsOpen() {
			continue
		}
		if t.SKUID == skuID && t.Source == source && t.SelectedSourceID == sourceID {
			total += t.DeficitQty
		}
	}
	return total
}

// buildSourceCandidates scores loc's configured replenishment sources for
// skuID/source, excluding reservations already held by excludeTaskID
// (spec.md §4.6's source-refresh pass, §3's SourceCandidate shape).
func (e *Engine) buildSourceCandidates(loc *domain.Location, skuID string, source domain.Source, excludeTaskID string) []domain.SourceCandidate {
	out := make([]domain.SourceCandidate, 0, len(loc.ReplenishSources))
	for i, srcID := range loc.ReplenishSources {
		var available int
		if domain.IsExternalSource(srcID) {
			available = externalAvailableQty
		} else {
			available = e.snapshotQtyFor(srcID, skuID, source) - e.reservedBySource(srcID, skuID, source, excludeTaskID)
			if available < 0 {
				available = 0
			}
		}
		out = append(out, domain.SourceCandidate{ZoneID: srcID, SortOrder: i, AvailableQty: available})
	}
	return out
}

// orderCandidatesForAllocation returns a copy of candidates ordered for
// trigger-time allocation: configured SortOrder first, but a source whose
// circuit breaker is currently open sorts after every source that is
// closed or half-open (SPEC_FULL.md's source-health breaker never excludes
// a candidate, only reorders it).
func (e *Engine) orderCandidatesForAllocation(candidates []domain.SourceCandidate) []domain.SourceCandidate {
	out := make([]domain.SourceCandidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		ai := e.sources.Allow(out[i].ZoneID, e.cursor)
		aj := e.sources.Allow(out[j].ZoneID, e.cursor)
		if ai != aj {
			return ai
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

func candidateStillPresent(candidates []domain.SourceCandidate, zoneID string) bool {
	for _, c := range candidates {
		if c.ZoneID == zoneID {
			return true
		}
	}
	return false
}

// evaluateLocation implements spec.md §4.6 for every active rule at
// locationID, then runs staff auto-assignment (§4.12).
func (e *Engine) evaluateLocation(locationID string) {
	loc, ok := e.locations[locationID]
	if !ok {
		return
	}
	for _, rule := range e.activeRulesForLocation(locationID) {
		if loc.IsSalesLocation {
			e.evaluateSalesRule(loc, rule)
		} else {
			e.evaluateNonSalesRule(loc, rule)
		}
	}
	e.autoAssignPending()
}

func (e *Engine) evaluateSalesRule(loc *domain.Location, rule *domain.EffectiveRule) {
	current := e.snapshotQtyFor(loc.ID, rule.SKUID, rule.Source)
	open := e.openTasksForRule(rule.ID)

	autoAdjustable := func() []*domain.ReplenishmentTask {
		var out []*domain.ReplenishmentTask
		for _, t := range open {
			if t.Status.AutoAdjustable() {
				out = append(out, t)
			}
		}
		return out
	}

	// Merge.
	adj := autoAdjustable()
	if len(adj) > 1 {
		oneSource := len(loc.ReplenishSources) <= 1
		if !oneSource {
			first := adj[0].SelectedSourceID
			oneSource = true
			for _, t := range adj[1:] {
				if t.SelectedSourceID != first {
					oneSource = false
					break
				}
			}
		}
		if oneSource {
			keep := adj[0]
			for _, t := range adj[1:] {
				keep.DeficitQty += t.DeficitQty
				keep.UpdatedAt = e.cursor
				e.closeTask(t, domain.TaskRejected, "merged_plan")
			}
			open = e.openTasksForRule(rule.ID)
		}
	}

	// Over-stock.
	if current >= rule.Max {
		for _, t := range open {
			if t.Status.AutoAdjustable() {
				e.closeTask(t, domain.TaskRejected, "stock_recovered")
			}
		}
		return
	}

	// Trim.
	desired := rule.Max - current
	if desired < 0 {
		desired = 0
	}
	totalDeficit := 0
	for _, t := range open {
		totalDeficit += t.DeficitQty
	}
	if totalDeficit > desired {
		excess := totalDeficit - desired
		adj = autoAdjustable()
		sort.Slice(adj, func(i, j int) bool { return e.taskSeq[adj[i].ID] > e.taskSeq[adj[j].ID] })
		for _, t := range adj {
			if excess <= 0 {
				break
			}
			if t.DeficitQty <= excess {
				excess -= t.DeficitQty
				e.closeTask(t, domain.TaskRejected, "plan_adjusted")
			} else {
				t.DeficitQty -= excess
				t.UpdatedAt = e.cursor
				excess = 0
			}
		}
		open = e.openTasksForRule(rule.ID)
	}

	// Source refresh.
	for _, t := range open {
		candidates := e.buildSourceCandidates(loc, rule.SKUID, rule.Source, t.ID)
		t.SourceCandidates = candidates
		if t.SelectedSourceID != "" && !candidateStillPresent(candidates, t.SelectedSourceID) {
			t.SelectedSourceID = ""
		}
		t.UpdatedAt = e.cursor
	}

	// Trigger.
	totalDeficit = 0
	for _, t := range open {
		totalDeficit += t.DeficitQty
	}
	remaining := desired - totalDeficit
	if current <= rule.Min && remaining > 0 {
		candidates := e.buildSourceCandidates(loc, rule.SKUID, rule.Source, "")
		allocationOrder := e.orderCandidatesForAllocation(candidates)

		created := false
		for _, cand := range allocationOrder {
			if remaining <= 0 {
				break
			}
			alloc := cand.AvailableQty
			if alloc > remaining {
				alloc = remaining
			}
			if alloc <= 0 {
				continue
			}
			e.createTask(loc, rule, cand.ZoneID, candidates, alloc)
			remaining -= alloc
			created = true
		}
		if !created && remaining > 0 && len(allocationOrder) > 0 {
			e.createTask(loc, rule, allocationOrder[0].ZoneID, candidates, remaining)
		}
	}
}

func (e *Engine) createTask(loc *domain.Location, rule *domain.EffectiveRule, sourceID string, candidates []domain.SourceCandidate, deficit int) *domain.ReplenishmentTask {
	id := e.ids.NewID()
	t := &domain.ReplenishmentTask{
		ID:               id,
		RuleID:           rule.ID,
		LocationID:       loc.ID,
		SKUID:            rule.SKUID,
		Source:           rule.Source,
		SourceCandidates: candidates,
		SelectedSourceID: sourceID,
		Status:           domain.TaskCreated,
		TriggerQty:       rule.Min,
		DeficitQty:       deficit,
		TargetQty:        rule.Max,
		CreatedAt:        e.cursor,
		UpdatedAt:        e.cursor,
	}
	e.tasks[id] = t
	e.taskSeq[id] = e.nextTaskSeq()
	e.metrics.IncTasksCreated()
	e.appendAudit(id, domain.AuditCreated, "system", "triggered by min/max evaluation")
	e.recordFlow("task_created", "replenishment task created for "+rule.SKUID+" at "+loc.ID)
	return t
}

func (e *Engine) evaluateNonSalesRule(loc *domain.Location, rule *domain.EffectiveRule) {
	for _, t := range e.openTasksForRule(rule.ID) {
		if t.Status != domain.TaskInProgress {
			e.closeTask(t, domain.TaskRejected, "non_sales_receiving_flow")
		}
	}

	current := e.snapshotQtyFor(loc.ID, rule.SKUID, rule.Source)
	if current > rule.Min {
		return
	}
	desired := rule.Max - current
	for _, ro := range e.receivingOrders {
		if ro.Status == domain.ReceivingInTransit && ro.DestinationLocationID == loc.ID && ro.SKUID == rule.SKUID && ro.Source == rule.Source {
			desired -= ro.RequestedQty
		}
	}
	if desired <= 0 {
		return
	}
	sourceID, ok := e.pickReceivingSource(loc, rule.SKUID, rule.Source, desired)
	if !ok {
		return
	}
	e.openReceivingOrder(sourceID, loc.ID, rule.SKUID, rule.Source, desired)
}

// pickReceivingSource implements spec.md §4.6's non-sales source selection:
// first internal source with sufficient stock, else first internal source
// with any stock, else first external source, else the first configured
// source.
func (e *Engine) pickReceivingSource(loc *domain.Location, skuID string, source domain.Source, qty int) (string, bool) {
	if len(loc.ReplenishSources) == 0 {
		return "", false
	}
	for _, srcID := range loc.ReplenishSources {
		if !domain.IsExternalSource(srcID) && e.snapshotQtyFor(srcID, skuID, source) >= qty {
			return srcID, true
		}
	}
	for _, srcID := range loc.ReplenishSources {
		if !domain.IsExternalSource(srcID) && e.snapshotQtyFor(srcID, skuID, source) > 0 {
			return srcID, true
		}
	}
	for _, srcID := range loc.ReplenishSources {
		if domain.IsExternalSource(srcID) {
			return srcID, true
		}
	}
	return loc.ReplenishSources[0], true
}

// AssignTask implements the CREATED -> ASSIGNED transition of spec.md §4.7.
func (e *Engine) AssignTask(cmd types.AssignTaskCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[cmd.TaskID]
	if !ok {
		return e.reject(types.StatusTaskNotFound)
	}
	if t.Status != domain.TaskCreated {
		return e.reject(types.StatusTaskNotOpen)
	}
	staff, ok := e.staff[cmd.StaffID]
	if !ok {
		return e.reject(types.StatusStaffNotFound)
	}
	if !staff.OnShift || !staff.InScope(t.LocationID) {
		return e.reject(types.StatusStaffNotEligible)
	}

	e.advanceCursor(cmd.Timestamp)
	e.assignTaskTo(t, staff, false)
	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

func (e *Engine) assignTaskTo(t *domain.ReplenishmentTask, staff *domain.StaffMember, fallback bool) {
	id := staff.ID
	t.AssignedStaffID = &id
	at := e.cursor
	t.AssignedAt = &at
	t.Status = domain.TaskAssigned
	t.UpdatedAt = e.cursor
	staff.Load++
	detail := "assigned"
	if fallback {
		detail = "assigned via zone-scope fallback"
		e.metrics.IncStaffFallback()
	}
	e.appendAudit(t.ID, domain.AuditAssigned, staff.ID, detail)
}

// StartTask implements the ASSIGNED/CREATED -> IN_PROGRESS transition of
// spec.md §4.7, including its documented out-of-scope fallback asymmetry
// with AssignTask (spec.md §9 Open Questions: preserved as-is).
func (e *Engine) StartTask(cmd types.StartTaskCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[cmd.TaskID]
	if !ok {
		return e.reject(types.StatusTaskNotFound)
	}
	if t.Status != domain.TaskCreated && t.Status != domain.TaskAssigned {
		return e.reject(types.StatusTaskNotOpen)
	}
	staff, ok := e.staff[cmd.StaffID]
	if !ok {
		return e.reject(types.StatusStaffNotFound)
	}

	eligible := staff.OnShift && staff.InScope(t.LocationID)
	if !eligible {
		alreadyAssigned := t.AssignedStaffID != nil && *t.AssignedStaffID == staff.ID
		if alreadyAssigned && !e.anyOtherEligibleStaff(t.LocationID, staff.ID) {
			eligible = true
		}
	}
	if !eligible {
		return e.reject(types.StatusStaffNotEligible)
	}

	e.advanceCursor(cmd.Timestamp)
	if t.AssignedStaffID == nil {
		e.assignTaskTo(t, staff, false)
	}
	t.Status = domain.TaskInProgress
	started := e.cursor
	t.StartedAt = &started
	t.UpdatedAt = e.cursor
	e.appendAudit(t.ID, domain.AuditStarted, staff.ID, "started")

	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

func (e *Engine) anyOtherEligibleStaff(locationID, excludeStaffID string) bool {
	for id, s := range e.staff {
		if id == excludeStaffID {
			continue
		}
		if s.OnShift && s.InScope(locationID) {
			return true
		}
	}
	return false
}
