package model

import "time"

// SessionStats holds the normalized per-session totals produced by one of
// the transcript format parsers.
type SessionStats struct {
	Tool      string
	SessionID string
	FilePath  string
	Model     string
	Cwd       string
	StartTime time.Time
	EndTime   time.Time

	// Totals are cumulative for the whole session, regardless of whether
	// the underlying transcript reports running totals (codex) or
	// per-message increments (claude).
	Totals TokenTotals
}
