package engine

import (
	"sort"

	"github.com/shelfworks/shelfengine/internal/core/domain"
)

func (e *Engine) currentLoad(staffID string) int {
	n := 0
	for _, t := range e.tasks {
		if t.Status.IsOpen() && t.AssignedStaffID != nil && *t.AssignedStaffID == staffID {
			n++
		}
	}
	for _, o := range e.receivingOrders {
		if o.Status == domain.ReceivingInTransit && o.AssignedStaffID != nil && *o.AssignedStaffID == staffID {
			n++
		}
	}
	return n
}

// eligiblePool implements spec.md §4.12's pool rule: active ASSOCIATEs, or
// every active member if none are on shift.
func (e *Engine) eligiblePool() []*domain.StaffMember {
	var associates, anyActive []*domain.StaffMember
	for _, s := range e.staff {
		if !s.OnShift {
			continue
		}
		anyActive = append(anyActive, s)
		if s.Role == domain.RoleAssociate {
			associates = append(associates, s)
		}
	}
	if len(associates) > 0 {
		return associates
	}
	return anyActive
}

// pickStaff selects the minimum-load member in scope of locationID, falling
// back to the whole pool when nobody is in scope (spec.md §4.12).
func pickStaff(pool []*domain.StaffMember, locationID string) (*domain.StaffMember, bool) {
	var inScope []*domain.StaffMember
	for _, s := range pool {
		if s.InScope(locationID) {
			inScope = append(inScope, s)
		}
	}
	candidates, fallback := inScope, false
	if len(candidates) == 0 {
		candidates, fallback = pool, true
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Load != candidates[j].Load {
			return candidates[i].Load < candidates[j].Load
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], fallback
}

// autoAssignPending implements spec.md §4.12, run after every task or order
// mutation: it assigns every unassigned CREATED task and IN_TRANSIT
// receiving order, in creation order, to the minimum-load eligible member.
func (e *Engine) autoAssignPending() {
	for _, s := range e.staff {
		s.Load = e.currentLoad(s.ID)
	}

	pool := e.eligiblePool()
	if len(pool) == 0 {
		return
	}

	var pendingTasks []*domain.ReplenishmentTask
	for _, t := range e.tasks {
		if t.Status == domain.TaskCreated && t.AssignedStaffID == nil {
			pendingTasks = append(pendingTasks, t)
		}
	}
	sort.Slice(pendingTasks, func(i, j int) bool {
		return e.taskSeq[pendingTasks[i].ID] < e.taskSeq[pendingTasks[j].ID]
	})
	for _, t := range pendingTasks {
		staff, fallback := pickStaff(pool, t.LocationID)
		if staff == nil {
			continue
		}
		e.assignTaskTo(t, staff, fallback)
	}

	var pendingOrders []*domain.ReceivingOrder
	for _, o := range e.receivingOrders {
		if o.Status == domain.ReceivingInTransit && o.AssignedStaffID == nil {
			pendingOrders = append(pendingOrders, o)
		}
	}
	sort.Slice(pendingOrders, func(i, j int) bool {
		if pendingOrders[i].CreatedAt.Equal(pendingOrders[j].CreatedAt) {
			return pendingOrders[i].ID < pendingOrders[j].ID
		}
		return pendingOrders[i].CreatedAt.Before(pendingOrders[j].CreatedAt)
	})
	for _, o := range pendingOrders {
		staff, fallback := pickStaff(pool, o.DestinationLocationID)
		if staff == nil {
			continue
		}
		id := staff.ID
		o.AssignedStaffID = &id
		o.UpdatedAt = e.cursor
		staff.Load++
		detail := "assigned"
		if fallback {
			detail = "assigned via zone-scope fallback"
			e.metrics.IncStaffFallback()
		}
		e.appendAudit(o.ID, domain.AuditAssigned, staff.ID, "receiving order "+detail)
	}
}
