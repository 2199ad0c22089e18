package pricing

import (
	"math"
	"testing"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"claude-sonnet-4-5", "claudesonnet45"},
		{"claude-sonnet-4-5-20250929", "claudesonnet45"},
		{"Claude_Sonnet-4.5", "claudesonnet45"},
		{"gpt-5.1-codex", "gpt51codex"},
		{"  gpt-5  ", "gpt5"},
	}
	for _, tt := range tests {
		if got := normalizeKey(tt.in); got != tt.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLookup_DateSuffixAndCase(t *testing.T) {
	p, ok := Lookup(nil, "Claude-Sonnet-4-5-20250929")
	if !ok {
		t.Fatal("dated sonnet name did not match builtin")
	}
	if p.Input == nil || *p.Input != 3.00 {
		t.Errorf("Input = %v, want 3.00", p.Input)
	}
}

func TestLookup_CustomMergesOverBuiltin(t *testing.T) {
	custom := Table{
		"claude-sonnet-4-5": {Output: f(99.0)},
	}
	p, ok := Lookup(custom, "claude-sonnet-4-5")
	if !ok {
		t.Fatal("lookup failed")
	}
	if *p.Output != 99.0 {
		t.Errorf("Output = %v, want custom 99.0", *p.Output)
	}
	if *p.Input != 3.00 {
		t.Errorf("Input = %v, want builtin 3.00", *p.Input)
	}
}

func TestLookup_UnknownModel(t *testing.T) {
	if _, ok := Lookup(nil, "mystery-model-9000"); ok {
		t.Error("unknown model resolved a price")
	}
	if _, ok := Lookup(nil, ""); ok {
		t.Error("empty model resolved a price")
	}
}

func TestResolve_ProfileOverridePrecedence(t *testing.T) {
	prof := &ProfileOverride{
		Model: "claude-haiku-4-5",
		Price: Price{Input: f(0.5)},
	}

	p := Resolve(nil, prof, "claude-sonnet-4-5")
	if p == nil {
		t.Fatal("Resolve returned nil")
	}
	// Per-field override wins, profile model next, hint last.
	if *p.Input != 0.5 {
		t.Errorf("Input = %v, want explicit override 0.5", *p.Input)
	}
	if *p.Output != 5.00 {
		t.Errorf("Output = %v, want haiku 5.00 over sonnet", *p.Output)
	}
}

func TestResolve_Multiplier(t *testing.T) {
	prof := &ProfileOverride{Multiplier: f(2.0)}

	p := Resolve(nil, prof, "gpt-5")
	if p == nil {
		t.Fatal("Resolve returned nil")
	}
	if *p.Input != 2.50 {
		t.Errorf("Input = %v, want doubled 2.50", *p.Input)
	}
}

func TestResolve_NothingResolves(t *testing.T) {
	if p := Resolve(nil, nil, "mystery-model"); p != nil {
		t.Errorf("Resolve = %+v, want nil", p)
	}
	if p := Resolve(nil, &ProfileOverride{Multiplier: f(2.0)}, ""); p != nil {
		t.Errorf("Resolve with bare multiplier = %+v, want nil", p)
	}
}

func TestCost_FullPricing(t *testing.T) {
	p := &Price{Input: f(3.0), Output: f(15.0), CacheRead: f(0.3), CacheWrite: f(3.75)}
	usage := model.TokenTotals{Input: 1_000_000, Output: 200_000, CacheRead: 500_000, CacheWrite: 100_000}

	cost := Cost(usage, p)
	if cost == nil {
		t.Fatal("Cost returned nil with full pricing")
	}
	want := 3.0 + 3.0 + 0.15 + 0.375
	if math.Abs(*cost-want) > 1e-9 {
		t.Errorf("Cost = %v, want %v", *cost, want)
	}
}

func TestCost_MissingPriceForNonzeroCategory(t *testing.T) {
	// gpt-5 style: no cache-write price.
	p := &Price{Input: f(1.25), Output: f(10.0), CacheRead: f(0.125)}

	usage := model.TokenTotals{Input: 1000, Output: 500, CacheWrite: 1}
	if cost := Cost(usage, p); cost != nil {
		t.Errorf("Cost = %v, want nil when a nonzero category is unpriced", *cost)
	}

	// Zero tokens in the unpriced category is fine.
	usage.CacheWrite = 0
	if cost := Cost(usage, p); cost == nil {
		t.Error("Cost = nil, want value when unpriced category is zero")
	}
}

func TestCost_NilPrice(t *testing.T) {
	if cost := Cost(model.TokenTotals{Input: 1}, nil); cost != nil {
		t.Errorf("Cost = %v, want nil", *cost)
	}
}
