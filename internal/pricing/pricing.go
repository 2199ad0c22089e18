// Package pricing resolves per-model price tables and computes cost from
// token breakdowns. Prices are USD per million tokens; every field is
// optional so that a missing price is reported as absent cost, never zero.
package pricing

import (
	"strings"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// Price holds per-million-token prices for one model. Nil means unknown.
type Price struct {
	Input       *float64
	Output      *float64
	CacheRead   *float64
	CacheWrite  *float64
	Description string
}

// IsEmpty reports whether no price field is set.
func (p Price) IsEmpty() bool {
	return p.Input == nil && p.Output == nil && p.CacheRead == nil && p.CacheWrite == nil
}

// Table maps model names to prices. Matching is case/format-insensitive.
type Table map[string]Price

// ProfileOverride carries a profile's pricing preferences: a nominated
// model name, a partial per-field override, and a multiplier applied to
// the resolved price vector.
type ProfileOverride struct {
	Model      string
	Multiplier *float64
	Price      Price
}

func f(v float64) *float64 { return &v }

// builtin is the default price table for both instrumented tools.
var builtin = Table{
	"claude-opus-4-5": {
		Input: f(5.00), Output: f(25.00), CacheRead: f(0.50), CacheWrite: f(6.25),
	},
	"claude-opus-4-1": {
		Input: f(15.00), Output: f(75.00), CacheRead: f(1.50), CacheWrite: f(18.75),
	},
	"claude-opus-4": {
		Input: f(15.00), Output: f(75.00), CacheRead: f(1.50), CacheWrite: f(18.75),
	},
	"claude-sonnet-4-5": {
		Input: f(3.00), Output: f(15.00), CacheRead: f(0.30), CacheWrite: f(3.75),
	},
	"claude-sonnet-4": {
		Input: f(3.00), Output: f(15.00), CacheRead: f(0.30), CacheWrite: f(3.75),
	},
	"claude-haiku-4-5": {
		Input: f(1.00), Output: f(5.00), CacheRead: f(0.10), CacheWrite: f(1.25),
	},
	"claude-haiku-3-5": {
		Input: f(0.80), Output: f(4.00), CacheRead: f(0.08), CacheWrite: f(1.00),
	},
	"gpt-5.1-codex": {
		Input: f(1.25), Output: f(10.00), CacheRead: f(0.125),
	},
	"gpt-5-codex": {
		Input: f(1.25), Output: f(10.00), CacheRead: f(0.125),
	},
	"gpt-5": {
		Input: f(1.25), Output: f(10.00), CacheRead: f(0.125),
	},
	"gpt-5-mini": {
		Input: f(0.25), Output: f(2.00), CacheRead: f(0.025),
	},
	"gpt-4.1": {
		Input: f(2.00), Output: f(8.00), CacheRead: f(0.50),
	},
}

// Builtin returns the default price table.
func Builtin() Table { return builtin }

// normalizeKey makes model names comparable across naming drift: lowercase,
// date suffixes stripped (e.g. "claude-sonnet-4-5-20250929"), separators
// removed.
func normalizeKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	// Strip a trailing -YYYYMMDD style segment.
	if i := strings.LastIndex(name, "-"); i > 0 {
		last := name[i+1:]
		if len(last) >= 8 && isAllDigits(last) {
			name = name[:i]
		}
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '.':
			return -1
		}
		return r
	}, name)
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Lookup finds a model's price, preferring the custom table over built-in
// defaults and merging partial custom entries over the built-in ones.
func Lookup(custom Table, modelName string) (Price, bool) {
	if strings.TrimSpace(modelName) == "" {
		return Price{}, false
	}
	want := normalizeKey(modelName)

	base, haveBase := matchTable(builtin, want)
	over, haveOver := matchTable(custom, want)

	switch {
	case haveBase && haveOver:
		return merge(over, base), true
	case haveOver:
		return over, true
	case haveBase:
		return base, true
	}
	return Price{}, false
}

func matchTable(tbl Table, normalized string) (Price, bool) {
	for name, p := range tbl {
		if normalizeKey(name) == normalized {
			return p, true
		}
	}
	return Price{}, false
}

// merge overlays a's set fields on top of b.
func merge(a, b Price) Price {
	out := b
	if a.Input != nil {
		out.Input = a.Input
	}
	if a.Output != nil {
		out.Output = a.Output
	}
	if a.CacheRead != nil {
		out.CacheRead = a.CacheRead
	}
	if a.CacheWrite != nil {
		out.CacheWrite = a.CacheWrite
	}
	if a.Description != "" {
		out.Description = a.Description
	}
	return out
}

// Resolve produces the effective price vector for a profile and an
// externally supplied model hint. Precedence, most specific first: the
// profile's explicit per-field override, pricing for the profile's own
// declared model, pricing for the hint, built-in defaults (inside Lookup).
// A non-negative profile multiplier scales every resolved field. Returns
// nil when nothing resolves.
func Resolve(custom Table, prof *ProfileOverride, modelHint string) *Price {
	var out Price

	if p, ok := Lookup(custom, modelHint); ok {
		out = p
	}
	if prof != nil {
		if prof.Model != "" {
			if p, ok := Lookup(custom, prof.Model); ok {
				out = merge(p, out)
			}
		}
		out = merge(prof.Price, out)
	}

	if out.IsEmpty() {
		return nil
	}

	if prof != nil && prof.Multiplier != nil && *prof.Multiplier >= 0 {
		out = scale(out, *prof.Multiplier)
	}
	return &out
}

func scale(p Price, by float64) Price {
	mul := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		scaled := *v * by
		return &scaled
	}
	return Price{
		Input:       mul(p.Input),
		Output:      mul(p.Output),
		CacheRead:   mul(p.CacheRead),
		CacheWrite:  mul(p.CacheWrite),
		Description: p.Description,
	}
}

// Cost computes USD cost for a token breakdown. Every category with a
// nonzero observed value must have a price, otherwise the whole
// calculation is absent — no partial or guessed cost.
func Cost(usage model.TokenTotals, p *Price) *float64 {
	if p == nil {
		return nil
	}

	var cost float64
	add := func(tokens int64, price *float64) bool {
		if tokens == 0 {
			return true
		}
		if price == nil {
			return false
		}
		cost += float64(tokens) * *price / 1_000_000
		return true
	}

	if !add(usage.Input, p.Input) ||
		!add(usage.Output, p.Output) ||
		!add(usage.CacheRead, p.CacheRead) ||
		!add(usage.CacheWrite, p.CacheWrite) {
		return nil
	}
	return &cost
}
