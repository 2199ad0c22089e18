package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/Kritoooo/CodeEnvSwitch/internal/config"
	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

func costRec(ts time.Time, key, modelName string, input, output int64) model.UsageRecord {
	return model.UsageRecord{
		Timestamp:  ts,
		Tool:       model.ToolClaude,
		ProfileKey: key,
		Model:      modelName,
		Input:      input,
		Output:     output,
		Total:      input + output,
	}
}

func TestBuildCost_PricedRecords(t *testing.T) {
	records := []model.UsageRecord{
		costRec(now, "work", "claude-sonnet-4-5", 1_000_000, 100_000),           // today
		costRec(now.Add(-24*time.Hour), "work", "claude-sonnet-4-5", 2_000_000, 0), // yesterday
	}

	idx := BuildCostAt(records, config.Config{}, now)
	c, ok := LookupCost(idx, model.ToolClaude, "work", "")
	if !ok {
		t.Fatal("lookup failed")
	}

	// sonnet: $3/MTok input, $15/MTok output.
	wantToday := 3.0 + 1.5
	wantTotal := wantToday + 6.0
	if math.Abs(c.Today-wantToday) > 1e-9 {
		t.Errorf("Today = %v, want %v", c.Today, wantToday)
	}
	if math.Abs(c.Total-wantTotal) > 1e-9 {
		t.Errorf("Total = %v, want %v", c.Total, wantTotal)
	}
	if c.Unpriced != 0 {
		t.Errorf("Unpriced = %d, want 0", c.Unpriced)
	}
}

func TestBuildCost_UnknownModelCountsUnpriced(t *testing.T) {
	records := []model.UsageRecord{
		costRec(now, "work", "mystery-model", 1000, 500),
		costRec(now, "work", "claude-haiku-4-5", 1_000_000, 0),
	}

	idx := BuildCostAt(records, config.Config{}, now)
	c, _ := LookupCost(idx, model.ToolClaude, "work", "")

	if c.Unpriced != 1 {
		t.Errorf("Unpriced = %d, want 1", c.Unpriced)
	}
	if math.Abs(c.Total-1.0) > 1e-9 {
		t.Errorf("Total = %v, want haiku input only (1.0)", c.Total)
	}
}

func TestBuildCost_ProfileModelFillsMissingHint(t *testing.T) {
	cfg := config.Config{
		Profiles: map[string]config.Profile{
			"work": {Model: "claude-opus-4-5"},
		},
	}
	records := []model.UsageRecord{
		costRec(now, "work", "", 1_000_000, 0), // no model on the record
	}

	idx := BuildCostAt(records, cfg, now)
	c, _ := LookupCost(idx, model.ToolClaude, "work", "")
	if math.Abs(c.Total-5.0) > 1e-9 {
		t.Errorf("Total = %v, want opus input 5.0 via profile model", c.Total)
	}
}

func TestBuildCost_ProfileMultiplier(t *testing.T) {
	mult := 0.5
	cfg := config.Config{
		Profiles: map[string]config.Profile{
			"work": {Multiplier: &mult},
		},
	}
	records := []model.UsageRecord{
		costRec(now, "work", "claude-sonnet-4-5", 1_000_000, 0),
	}

	idx := BuildCostAt(records, cfg, now)
	c, _ := LookupCost(idx, model.ToolClaude, "work", "")
	if math.Abs(c.Total-1.5) > 1e-9 {
		t.Errorf("Total = %v, want halved 1.5", c.Total)
	}
}

func TestLookupCost_KeyBeatsName(t *testing.T) {
	records := []model.UsageRecord{
		costRec(now, "alpha", "claude-haiku-4-5", 1_000_000, 0),
		{Timestamp: now, Tool: model.ToolClaude, ProfileName: "alpha", Model: "claude-haiku-4-5", Input: 2_000_000, Total: 2_000_000},
	}

	idx := BuildCostAt(records, config.Config{}, now)

	c, ok := LookupCost(idx, model.ToolClaude, "alpha", "alpha")
	if !ok || math.Abs(c.Total-1.0) > 1e-9 {
		t.Errorf("cost = %+v, want key index (1.0)", c)
	}
	c, ok = LookupCost(idx, model.ToolClaude, "", "alpha")
	if !ok || math.Abs(c.Total-2.0) > 1e-9 {
		t.Errorf("cost = %+v, want name index (2.0)", c)
	}
}
