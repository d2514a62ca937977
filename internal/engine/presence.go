package engine

import (
	"time"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// activeMapping returns the SKU id bound to epc at instant t, if any
// (spec.md §3: "at most one mapping is active for a given EPC at any
// instant").
func (e *Engine) activeMapping(epc string, t time.Time) (string, bool) {
	for _, m := range e.epcMappings[epc] {
		if m.ActiveAt(t) {
			return m.SKUID, true
		}
	}
	return "", false
}

// IngestRFIDRead implements spec.md §4.2/§4.3/§6.
func (e *Engine) IngestRFIDRead(cmd types.IngestRFIDReadCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	ant, ok := e.antennas[cmd.AntennaID]
	if !ok || ant.LocationID != cmd.LocationID {
		return e.reject(types.StatusInvalidAntennaOrZone)
	}
	if _, ok := e.locations[cmd.LocationID]; !ok {
		return e.reject(types.StatusInvalidAntennaOrZone)
	}

	key := domain.DedupKey{EPC: cmd.EPC, AntennaID: cmd.AntennaID}
	if prev, seen := e.dedup[key]; seen && !prev.Before(cmd.Timestamp.Add(-e.dedupWindow)) {
		// prev.t >= t - DEDUP_WINDOW: reject silently, cursor does not move.
		e.metrics.IncDedupRejections()
		e.metrics.IncCommandsRejected()
		return e.reject(types.StatusDuplicateIgnored)
	}

	skuID, ok := e.activeMapping(cmd.EPC, cmd.Timestamp)
	if !ok {
		e.metrics.IncCommandsRejected()
		return e.reject(types.StatusUnknownEPC)
	}

	e.advanceCursor(cmd.Timestamp)
	e.dedup[key] = cmd.Timestamp

	prevLocationID := ""
	if p, ok := e.presence[cmd.EPC]; ok {
		prevLocationID = p.LocationID
	}

	e.presence[cmd.EPC] = &domain.Presence{
		EPC:        cmd.EPC,
		SKUID:      skuID,
		LocationID: cmd.LocationID,
		AntennaID:  cmd.AntennaID,
		LastSeenAt: cmd.Timestamp,
		RSSI:       cmd.RSSI,
	}
	e.pushRecentRead(cmd.LocationID, cmd.EPC, cmd.AntennaID, cmd.Timestamp)

	// A pending cart pick in this location may be waiting on this exact
	// read (spec.md §4.10).
	e.resolvePendingPicksForRead(cmd.LocationID, skuID)

	e.recomputeLocation(cmd.LocationID)
	if prevLocationID != "" && prevLocationID != cmd.LocationID {
		e.recomputeLocation(prevLocationID)
	}

	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

func (e *Engine) pushRecentRead(locationID, epc, antennaID string, at time.Time) {
	rr := append(e.recentReads[locationID], types_RecentRead{EPC: epc, AntennaID: antennaID, At: at})
	if len(rr) > recentReadsPerZone {
		rr = rr[len(rr)-recentReadsPerZone:]
	}
	e.recentReads[locationID] = rr
}

// ForceZoneSweep implements spec.md §4.3/§6: refreshes lastSeenAt for every
// EPC currently present in locationID (bound there and still within the
// presence TTL), without changing their binding. Expired tags are not
// refreshed and age out in the recompute that follows.
func (e *Engine) ForceZoneSweep(cmd types.ForceZoneSweepCmd) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.locations[cmd.LocationID]; !ok {
		e.metrics.IncCommandsRejected()
		return e.reject(types.StatusZoneNotFound)
	}

	e.advanceCursor(cmd.Timestamp)
	for _, p := range e.presence {
		if p.LocationID == cmd.LocationID && p.ActiveAt(e.cursor, e.presenceTTL) {
			p.LastSeenAt = cmd.Timestamp
		}
	}
	e.recomputeLocation(cmd.LocationID)

	e.metrics.IncCommandsAccepted()
	return e.ok(types.StatusAccepted)
}

// evictExpiredPresence garbage-collects presence records bound to
// locationID that have fallen outside PRESENCE_TTL. Purely a housekeeping
// pass: the TTL filter in presentEPCsBySKU already excludes them from
// every quantity computation (spec.md §4.3, §8 property 3).
func (e *Engine) evictExpiredPresence(locationID string) {
	var evicted int64
	for epc, p := range e.presence {
		if p.LocationID == locationID && !p.ActiveAt(e.cursor, e.presenceTTL) {
			delete(e.presence, epc)
			evicted++
		}
	}
	if evicted > 0 {
		e.metrics.AddPresenceTTLEvicted(evicted)
	}
}

// presentEPCsBySKU groups EPCs whose presence is still live (within TTL and
// bound to locationID) by SKU.
func (e *Engine) presentEPCsBySKU(locationID string) map[string][]*domain.Presence {
	out := make(map[string][]*domain.Presence)
	for _, p := range e.presence {
		if p.LocationID != locationID {
			continue
		}
		if !p.ActiveAt(e.cursor, e.presenceTTL) {
			continue
		}
		out[p.SKUID] = append(out[p.SKUID], p)
	}
	return out
}

// oldestPresentEPCs returns up to n present EPCs of skuID in locationID,
// oldest lastSeenAt first, used by the immediate sale deduction (spec.md
// §4.10) and internal RFID transfers (spec.md §4.8/§4.9).
func (e *Engine) oldestPresentEPCs(locationID, skuID string, n int) []*domain.Presence {
	all := e.presentEPCsBySKU(locationID)[skuID]
	sortPresenceByAge(all)
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func sortPresenceByAge(ps []*domain.Presence) {
	for i := 1; i < len(ps); i++ {
		j := i
		for j > 0 && ps[j-1].LastSeenAt.After(ps[j].LastSeenAt) {
			ps[j-1], ps[j] = ps[j], ps[j-1]
			j--
		}
	}
}

func (e *Engine) ok(status types.Status) types.Result    { return types.Result{Status: status} }
func (e *Engine) reject(status types.Status) types.Result { return types.Result{Status: status} }
