// Package model defines domain types shared across the usage engine.
package model

import "time"

// Tool identifiers for the two instrumented CLIs.
const (
	ToolClaude = "claude"
	ToolCodex  = "codex"
)

// Tools lists every known tool identifier.
func Tools() []string {
	return []string{ToolClaude, ToolCodex}
}

// KnownTool reports whether id names one of the instrumented tools.
func KnownTool(id string) bool {
	return id == ToolClaude || id == ToolCodex
}

// TokenTotals holds one set of per-category token counters.
// Depending on context the values are either cumulative session totals
// or a delta between two observations.
type TokenTotals struct {
	Input      int64 `json:"inputTokens"`
	Output     int64 `json:"outputTokens"`
	CacheRead  int64 `json:"cacheReadTokens"`
	CacheWrite int64 `json:"cacheWriteTokens"`
	Total      int64 `json:"totalTokens"`
}

// Sum returns the sum of the four token categories.
func (t TokenTotals) Sum() int64 {
	return t.Input + t.Output + t.CacheRead + t.CacheWrite
}

// Effective returns the larger of the declared total and the category sum.
// Legacy records may carry only one of the two.
func (t TokenTotals) Effective() int64 {
	if s := t.Sum(); s > t.Total {
		return s
	}
	return t.Total
}

// IsZero reports whether every counter is zero.
func (t TokenTotals) IsZero() bool {
	return t.Input == 0 && t.Output == 0 && t.CacheRead == 0 && t.CacheWrite == 0 && t.Total == 0
}

// MaxTotals returns the per-field maximum of a and b. Counters observed by
// independent paths are reconciled this way, never by summing.
func MaxTotals(a, b TokenTotals) TokenTotals {
	return TokenTotals{
		Input:      max64(a.Input, b.Input),
		Output:     max64(a.Output, b.Output),
		CacheRead:  max64(a.CacheRead, b.CacheRead),
		CacheWrite: max64(a.CacheWrite, b.CacheWrite),
		Total:      max64(a.Total, b.Total),
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// UsageRecord is one immutable ledger line. The ledger is an unordered
// append-only bag of these; records are never mutated or deleted.
type UsageRecord struct {
	Timestamp   time.Time `json:"ts"`
	Tool        string    `json:"type"`
	ProfileKey  string    `json:"profileKey,omitempty"`
	ProfileName string    `json:"profileName,omitempty"`
	Model       string    `json:"model,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
	Input       int64     `json:"inputTokens"`
	Output      int64     `json:"outputTokens"`
	CacheRead   int64     `json:"cacheReadTokens"`
	CacheWrite  int64     `json:"cacheWriteTokens"`
	Total       int64     `json:"totalTokens"`
}

// Totals returns the record's counters as a TokenTotals.
func (r UsageRecord) Totals() TokenTotals {
	return TokenTotals{
		Input:      r.Input,
		Output:     r.Output,
		CacheRead:  r.CacheRead,
		CacheWrite: r.CacheWrite,
		Total:      r.Total,
	}
}

// ProfileRef identifies the profile a session was attributed to.
type ProfileRef struct {
	Key  string
	Name string
}
