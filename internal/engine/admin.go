package engine

import (
	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// UpsertLocation is the CRUD surface spec.md §6 calls out for locations.
func (e *Engine) UpsertLocation(cmd types.UpsertLocationCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advanceCursor(cmd.Timestamp)
	loc, ok := e.locations[cmd.ID]
	if !ok {
		loc = &domain.Location{ID: cmd.ID}
		e.locations[cmd.ID] = loc
	}
	loc.Name = cmd.Name
	if cmd.Polygon != nil {
		loc.Polygon = cmd.Polygon
	}
	if cmd.Color != "" {
		loc.Color = cmd.Color
	}
	loc.IsSalesLocation = cmd.IsSalesLocation
	if cmd.ReplenishSources != nil {
		loc.ReplenishSources = cmd.ReplenishSources
	}

	e.recomputeLocation(loc.ID)
	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

// DeleteLocationSource removes one replenishment source, cancelling every
// open task that pointed at it (spec.md §3).
func (e *Engine) DeleteLocationSource(cmd types.DeleteLocationSourceCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	loc, ok := e.locations[cmd.LocationID]
	if !ok {
		return e.reject(types.StatusZoneNotFound)
	}

	e.advanceCursor(cmd.Timestamp)
	kept := loc.ReplenishSources[:0:0]
	for _, id := range loc.ReplenishSources {
		if id != cmd.SourceID {
			kept = append(kept, id)
		}
	}
	loc.ReplenishSources = kept

	for _, t := range e.tasks {
		if t.LocationID == loc.ID && t.Status.IsOpen() && t.SelectedSourceID == cmd.SourceID {
			e.closeTask(t, domain.TaskRejected, "source_removed")
		}
	}

	e.recomputeLocation(loc.ID)
	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

// UpsertStaff creates or updates a staff member's shift state and zone
// scope (spec.md §6).
func (e *Engine) UpsertStaff(cmd types.UpsertStaffCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.staff[cmd.ID]
	if !ok {
		s = &domain.StaffMember{ID: cmd.ID}
		e.staff[cmd.ID] = s
	}
	s.Name = cmd.Name
	s.Role = domain.StaffRole(cmd.Role)
	s.OnShift = cmd.OnShift
	if len(cmd.ZoneScope) == 0 {
		s.ZoneScope = nil
	} else {
		scope := make(map[string]bool, len(cmd.ZoneScope))
		for _, z := range cmd.ZoneScope {
			scope[z] = true
		}
		s.ZoneScope = scope
	}

	e.autoAssignPending()
	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

// RegisterEPCMapping binds an EPC to a SKU from activeFrom, used by seed
// loading and replayed registerEPCMapping commands (spec.md §3).
// External-RFID receiving writes its synthesized mappings directly.
func (e *Engine) RegisterEPCMapping(cmd types.RegisterEPCMappingCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.skus[cmd.SKUID]; !ok {
		return e.reject(types.StatusSKURequired)
	}

	e.epcMappings[cmd.EPC] = append(e.epcMappings[cmd.EPC], &domain.EPCMapping{
		EPC:        cmd.EPC,
		SKUID:      cmd.SKUID,
		ActiveFrom: cmd.ActiveFrom,
	})
	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

// RegisterAntenna binds an antenna to a location, in registration order
// (the first becomes the location's primary, spec.md §3).
func (e *Engine) RegisterAntenna(antennaID, locationID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.antennas[antennaID] = &domain.Antenna{ID: antennaID, LocationID: locationID}
	e.antennaOrder[locationID] = append(e.antennaOrder[locationID], antennaID)
}

// RegisterSKU installs a catalog SKU. Source is immutable once set
// (spec.md §3).
func (e *Engine) RegisterSKU(sku domain.SKU) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := sku
	e.skus[sku.ID] = &cp
}
