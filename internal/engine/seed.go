package engine

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/shelfworks/shelfengine/internal/core/domain"
	"github.com/shelfworks/shelfengine/pkg/types"
)

// Dataset is the explicit initial-state document spec.md §9 calls for:
// rather than engine state materializing through module-level
// initialization, every location, SKU, antenna, EPC mapping, rule
// template, and staff member an engine starts with is loaded from one of
// these (typically unmarshalled from YAML by the CLI). Tests build one
// directly.
type Dataset struct {
	Locations []DatasetLocation `yaml:"locations"`
	SKUs      []DatasetSKU      `yaml:"skus"`
	Antennas  []DatasetAntenna  `yaml:"antennas"`
	EPCs      []DatasetEPC      `yaml:"epcs"`
	Baselines []DatasetLedgerBaseline `yaml:"ledgerBaselines"`
	Templates []DatasetTemplate       `yaml:"ruleTemplates"`
	Staff     []DatasetStaff          `yaml:"staff"`
}

// DatasetLedgerBaseline is the initial NON_RFID count spec.md §3 calls
// "initial (locationId, skuId, qty, timestamp)" — the trusted count a
// location's ledger accrues signed entries on top of.
type DatasetLedgerBaseline struct {
	LocationID string    `yaml:"locationId"`
	SKUID      string    `yaml:"skuId"`
	Qty        int       `yaml:"qty"`
	At         time.Time `yaml:"at"`
}

type DatasetLocation struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Color            string   `yaml:"color"`
	IsSalesLocation  bool     `yaml:"isSalesLocation"`
	ReplenishSources []string `yaml:"replenishSources"`
}

type DatasetSKU struct {
	ID       string `yaml:"id"`
	Source   string `yaml:"source"`
	Title    string `yaml:"title"`
	Kit      string `yaml:"kit"`
	AgeGroup string `yaml:"ageGroup"`
	Gender   string `yaml:"gender"`
	Role     string `yaml:"role"`
	Quality  string `yaml:"quality"`
}

type DatasetAntenna struct {
	ID         string `yaml:"id"`
	LocationID string `yaml:"locationId"`
}

type DatasetEPC struct {
	EPC        string    `yaml:"epc"`
	SKUID      string    `yaml:"skuId"`
	ActiveFrom time.Time `yaml:"activeFrom"`
}

type DatasetTemplate struct {
	ID              string  `yaml:"id"`
	Scope           string  `yaml:"scope"`
	LocationID      string  `yaml:"locationId"`
	Selector        string  `yaml:"selector"`
	SKUID           string  `yaml:"skuId"`
	AttrKit         *string `yaml:"attrKit"`
	AttrAgeGroup    *string `yaml:"attrAgeGroup"`
	AttrGender      *string `yaml:"attrGender"`
	AttrRole        *string `yaml:"attrRole"`
	AttrQuality     *string `yaml:"attrQuality"`
	SourceType      string  `yaml:"source"`
	Min             int     `yaml:"min"`
	Max             int     `yaml:"max"`
	Priority        int     `yaml:"priority"`
	InboundSourceID string  `yaml:"inboundSourceId"`
}

type DatasetStaff struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Role      string   `yaml:"role"`
	OnShift   bool     `yaml:"onShift"`
	ZoneScope []string `yaml:"zoneScope"`
}

// Validate checks referential integrity across the dataset before any of
// it is applied, aggregating every problem found rather than stopping at
// the first (via multierr).
func (d Dataset) Validate() error {
	var err error

	locationIDs := make(map[string]bool, len(d.Locations))
	for i, l := range d.Locations {
		if l.ID == "" {
			err = multierr.Append(err, fmt.Errorf("locations[%d]: id required", i))
			continue
		}
		if locationIDs[l.ID] {
			err = multierr.Append(err, fmt.Errorf("locations[%d]: duplicate id %q", i, l.ID))
		}
		locationIDs[l.ID] = true
	}
	for i, l := range d.Locations {
		for _, src := range l.ReplenishSources {
			if domain.IsExternalSource(src) {
				continue
			}
			if !locationIDs[src] {
				err = multierr.Append(err, fmt.Errorf("locations[%d] %q: replenish source %q is not a known location", i, l.ID, src))
			}
		}
	}

	skuIDs := make(map[string]bool, len(d.SKUs))
	for i, s := range d.SKUs {
		if s.ID == "" {
			err = multierr.Append(err, fmt.Errorf("skus[%d]: id required", i))
			continue
		}
		if s.Source != string(domain.SourceRFID) && s.Source != string(domain.SourceNonRFID) {
			err = multierr.Append(err, fmt.Errorf("skus[%d] %q: source must be RFID or NON_RFID, got %q", i, s.ID, s.Source))
		}
		skuIDs[s.ID] = true
	}

	for i, a := range d.Antennas {
		if a.ID == "" {
			err = multierr.Append(err, fmt.Errorf("antennas[%d]: id required", i))
		}
		if !locationIDs[a.LocationID] {
			err = multierr.Append(err, fmt.Errorf("antennas[%d] %q: unknown location %q", i, a.ID, a.LocationID))
		}
	}

	for i, m := range d.EPCs {
		if !skuIDs[m.SKUID] {
			err = multierr.Append(err, fmt.Errorf("epcs[%d] %q: unknown sku %q", i, m.EPC, m.SKUID))
		}
	}

	for i, b := range d.Baselines {
		if !locationIDs[b.LocationID] {
			err = multierr.Append(err, fmt.Errorf("ledgerBaselines[%d]: unknown location %q", i, b.LocationID))
		}
		if !skuIDs[b.SKUID] {
			err = multierr.Append(err, fmt.Errorf("ledgerBaselines[%d]: unknown sku %q", i, b.SKUID))
		}
	}

	for i, t := range d.Templates {
		if t.Scope != "GENERIC" && t.Scope != "LOCATION" {
			err = multierr.Append(err, fmt.Errorf("ruleTemplates[%d] %q: scope must be GENERIC or LOCATION", i, t.ID))
		}
		if t.Scope == "LOCATION" && !locationIDs[t.LocationID] {
			err = multierr.Append(err, fmt.Errorf("ruleTemplates[%d] %q: unknown location %q", i, t.ID, t.LocationID))
		}
		if t.Selector == "SKU" && !skuIDs[t.SKUID] {
			err = multierr.Append(err, fmt.Errorf("ruleTemplates[%d] %q: unknown sku %q", i, t.ID, t.SKUID))
		}
		if t.Min > t.Max {
			err = multierr.Append(err, fmt.Errorf("ruleTemplates[%d] %q: min %d exceeds max %d", i, t.ID, t.Min, t.Max))
		}
	}

	for i, s := range d.Staff {
		if s.ID == "" {
			err = multierr.Append(err, fmt.Errorf("staff[%d]: id required", i))
		}
		for _, z := range s.ZoneScope {
			if !locationIDs[z] {
				err = multierr.Append(err, fmt.Errorf("staff[%d] %q: unknown zone %q", i, s.ID, z))
			}
		}
	}

	return err
}

// Seed applies a validated dataset to an empty engine by driving the
// ordinary command surface: locations and catalog first (nothing
// references a rule or task yet), then antennas/EPCs, ledger baselines and
// staff, then rule templates last so their first projection pass sees every
// location and SKU already in place (spec.md §9). Templates for non-sales
// locations are applied before those for sales locations.
func (e *Engine) Seed(d Dataset, at time.Time) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("seed dataset invalid: %w", err)
	}

	for _, l := range d.Locations {
		res := e.UpsertLocation(types.UpsertLocationCmd{
			ID:               l.ID,
			Name:             l.Name,
			Color:            l.Color,
			IsSalesLocation:  l.IsSalesLocation,
			ReplenishSources: l.ReplenishSources,
			Timestamp:        at,
		})
		if res.Status != types.StatusAccepted {
			return fmt.Errorf("seed: location %q: %s", l.ID, res.Status)
		}
	}

	for _, s := range d.SKUs {
		e.RegisterSKU(domain.SKU{
			ID:     s.ID,
			Source: domain.Source(s.Source),
			Title:  s.Title,
			Attributes: domain.CatalogAttributes{
				Kit:      s.Kit,
				AgeGroup: s.AgeGroup,
				Gender:   s.Gender,
				Role:     s.Role,
				Quality:  s.Quality,
			},
		})
	}

	for _, a := range d.Antennas {
		e.RegisterAntenna(a.ID, a.LocationID)
	}

	for _, m := range d.EPCs {
		activeFrom := m.ActiveFrom
		if activeFrom.IsZero() {
			activeFrom = at
		}
		res := e.RegisterEPCMapping(types.RegisterEPCMappingCmd{EPC: m.EPC, SKUID: m.SKUID, ActiveFrom: activeFrom})
		if res.Status != types.StatusAccepted {
			return fmt.Errorf("seed: epc %q: %s", m.EPC, res.Status)
		}
	}

	for _, b := range d.Baselines {
		baselineAt := b.At
		if baselineAt.IsZero() {
			baselineAt = at
		}
		e.seedLedgerBaseline(b.LocationID, b.SKUID, b.Qty, baselineAt)
	}

	for _, s := range d.Staff {
		res := e.UpsertStaff(types.UpsertStaffCmd{
			ID:        s.ID,
			Name:      s.Name,
			Role:      s.Role,
			OnShift:   s.OnShift,
			ZoneScope: s.ZoneScope,
		})
		if res.Status != types.StatusAccepted {
			return fmt.Errorf("seed: staff %q: %s", s.ID, res.Status)
		}
	}

	// Non-sales templates go first so that a sales location's first
	// evaluation already sees its sources' ledger-backed snapshots.
	salesLocation := make(map[string]bool, len(d.Locations))
	for _, l := range d.Locations {
		salesLocation[l.ID] = l.IsSalesLocation
	}
	var sourcesFirst, salesLast []DatasetTemplate
	for _, t := range d.Templates {
		if salesLocation[t.LocationID] {
			salesLast = append(salesLast, t)
		} else {
			sourcesFirst = append(sourcesFirst, t)
		}
	}
	for _, t := range append(sourcesFirst, salesLast...) {
		res := e.UpsertRuleTemplate(types.UpsertRuleTemplateCmd{
			ID:              t.ID,
			Scope:           t.Scope,
			LocationID:      t.LocationID,
			Selector:        t.Selector,
			SKUID:           t.SKUID,
			AttrKit:         t.AttrKit,
			AttrAgeGroup:    t.AttrAgeGroup,
			AttrGender:      t.AttrGender,
			AttrRole:        t.AttrRole,
			AttrQuality:     t.AttrQuality,
			SourceType:      t.SourceType,
			Min:             t.Min,
			Max:             t.Max,
			Priority:        t.Priority,
			InboundSourceID: t.InboundSourceID,
			Timestamp:       at,
		})
		if res.Status != types.StatusAccepted {
			return fmt.Errorf("seed: rule template %q: %s", t.ID, res.Status)
		}
	}

	return nil
}
