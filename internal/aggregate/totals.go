// Package aggregate builds today/total lookup tables over the usage
// ledger, keyed by (tool, profile key) and (tool, profile name).
package aggregate

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// FieldTotals is one counter's aggregation: the local-calendar-day window
// and the all-time total.
type FieldTotals struct {
	Today int64
	Total int64
}

func (f *FieldTotals) add(v int64, today bool) {
	f.Total += v
	if today {
		f.Today += v
	}
}

// Totals aggregates every token field for one (tool, identifier) pair.
type Totals struct {
	Input      FieldTotals
	Output     FieldTotals
	CacheRead  FieldTotals
	CacheWrite FieldTotals
	Tokens     FieldTotals

	Records int
}

// TotalsIndex holds the two lookup maps. A record contributes to both
// independently when it carries both identifiers; the identifiers are not
// required to agree across records.
type TotalsIndex struct {
	ByKey  map[string]Totals
	ByName map[string]Totals
}

// IndexKey builds the "tool||identifier" map key.
func IndexKey(tool, id string) string {
	return tool + "||" + id
}

// BuildTotals indexes records against the current local day.
func BuildTotals(records []model.UsageRecord) *TotalsIndex {
	return BuildTotalsAt(records, time.Now())
}

// BuildTotalsAt indexes records against the local calendar day containing
// now: [midnight, next midnight).
func BuildTotalsAt(records []model.UsageRecord, now time.Time) *TotalsIndex {
	idx := &TotalsIndex{
		ByKey:  make(map[string]Totals),
		ByName: make(map[string]Totals),
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	for _, rec := range records {
		ts := rec.Timestamp.In(now.Location())
		today := !ts.Before(dayStart) && ts.Before(dayEnd)

		if rec.ProfileKey != "" {
			accumulate(idx.ByKey, IndexKey(rec.Tool, rec.ProfileKey), rec, today)
		}
		if rec.ProfileName != "" {
			accumulate(idx.ByName, IndexKey(rec.Tool, rec.ProfileName), rec, today)
		}
	}
	return idx
}

func accumulate(m map[string]Totals, key string, rec model.UsageRecord, today bool) {
	t := m[key]
	t.Input.add(rec.Input, today)
	t.Output.add(rec.Output, today)
	t.CacheRead.add(rec.CacheRead, today)
	t.CacheWrite.add(rec.CacheWrite, today)
	t.Tokens.add(rec.Totals().Effective(), today)
	t.Records++
	m[key] = t
}

// LookupTotals answers a totals query. Key lookups take precedence over
// name lookups when both would match.
func LookupTotals(idx *TotalsIndex, tool, key, name string) (Totals, bool) {
	if idx == nil {
		return Totals{}, false
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
	return Totals{}, false
}

// Keys returns the sorted ByKey map keys, for deterministic listings.
func (idx *TotalsIndex) Keys() []string {
	keys := lo.Keys(idx.ByKey)
	sort.Strings(keys)
	return keys
}
