// Package source discovers and parses session transcript files for both
// instrumented tools, normalizing them into per-session totals.
package source

import (
	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// Format extracts normalized per-session totals from one transcript file.
// Each tool ships its own transcript layout; the quirks stay isolated
// behind this contract.
type Format interface {
	// Tool returns the tool identifier this format parses.
	Tool() string
	// Extract parses the file at path into session stats. Malformed
	// lines are skipped; only I/O failures are errors.
	Extract(path string) (model.SessionStats, error)
}

// FormatFor selects the parser for a tool identifier, or nil for an
// unknown tool.
func FormatFor(tool string) Format {
	switch tool {
	case model.ToolClaude:
		return AdditiveMessageFormat{}
	case model.ToolCodex:
		return CumulativeCounterFormat{}
	}
	return nil
}

// DiscoveredFile is one transcript file found during directory scanning.
type DiscoveredFile struct {
	Path      string
	Tool      string
	SessionID string // recovered from the file name's embedded UUID, if any
}
