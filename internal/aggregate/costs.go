package aggregate

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/Kritoooo/CodeEnvSwitch/internal/config"
	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
	"github.com/Kritoooo/CodeEnvSwitch/internal/pricing"
)

// CostTotals aggregates resolved USD cost for one (tool, identifier) pair.
// Records whose cost cannot be fully resolved contribute nothing to the
// sums and are surfaced through Unpriced instead — cost is never guessed.
type CostTotals struct {
	Today    float64
	Total    float64
	Unpriced int
}

// CostIndex holds the cost lookup maps, keyed like TotalsIndex.
type CostIndex struct {
	ByKey  map[string]CostTotals
	ByName map[string]CostTotals
}

// BuildCost indexes record costs against the current local day.
func BuildCost(records []model.UsageRecord, cfg config.Config) *CostIndex {
	return BuildCostAt(records, cfg, time.Now())
}

// BuildCostAt resolves each record's pricing — the record's profile from
// config, the record's model as hint — and aggregates per identifier.
func BuildCostAt(records []model.UsageRecord, cfg config.Config, now time.Time) *CostIndex {
	idx := &CostIndex{
		ByKey:  make(map[string]CostTotals),
		ByName: make(map[string]CostTotals),
	}

	table := cfg.PricingTable()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	for _, rec := range records {
		var over *pricing.ProfileOverride
		if _, prof, ok := cfg.FindProfile(rec.ProfileKey, rec.ProfileName); ok {
			over = prof.ProfileOverride()
		}
		price := pricing.Resolve(table, over, rec.Model)
		cost := pricing.Cost(rec.Totals(), price)

		ts := rec.Timestamp.In(now.Location())
		today := !ts.Before(dayStart) && ts.Before(dayEnd)

		if rec.ProfileKey != "" {
			accumulateCost(idx.ByKey, IndexKey(rec.Tool, rec.ProfileKey), cost, today)
		}
		if rec.ProfileName != "" {
			accumulateCost(idx.ByName, IndexKey(rec.Tool, rec.ProfileName), cost, today)
		}
	}
	return idx
}

func accumulateCost(m map[string]CostTotals, key string, cost *float64, today bool) {
	t := m[key]
	if cost == nil {
		t.Unpriced++
	} else {
		t.Total += *cost
		if today {
			t.Today += *cost
		}
	}
	m[key] = t
}

// LookupCost answers a cost query; key lookups win over name lookups.
func LookupCost(idx *CostIndex, tool, key, name string) (CostTotals, bool) {
	if idx == nil {
		return CostTotals{}, false
	}
	if key != "" {
		if t, ok := idx.ByKey[IndexKey(tool, key)]; ok {
			return t, true
		}
	}
	if name != "" {
		if t, ok := idx.ByName[IndexKey(tool, name)]; ok {
			return t, true
		}
	}
	return CostTotals{}, false
}

// Keys returns the sorted ByKey map keys, for deterministic listings.
func (idx *CostIndex) Keys() []string {
	keys := lo.Keys(idx.ByKey)
	sort.Strings(keys)
	return keys
}
