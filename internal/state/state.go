// Package state persists per-file and per-session progress markers: the
// cumulative counters already emitted to the ledger, used to compute deltas.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// Version is the current state document version.
const Version = 1

// Entry tracks the last-observed cumulative counters for one transcript
// file or one logical session.
type Entry struct {
	MtimeMs    int64  `json:"mtimeMs,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Tool       string `json:"type,omitempty"`
	Input      int64  `json:"inputTokens"`
	Output     int64  `json:"outputTokens"`
	CacheRead  int64  `json:"cacheReadTokens"`
	CacheWrite int64  `json:"cacheWriteTokens"`
	Total      int64  `json:"totalTokens"`
	StartTs    string `json:"startTs,omitempty"`
	EndTs      string `json:"endTs,omitempty"`
	Cwd        string `json:"cwd,omitempty"`
	Model      string `json:"model,omitempty"`
}

// Totals returns the entry's counters.
func (e Entry) Totals() model.TokenTotals {
	return model.TokenTotals{
		Input:      e.Input,
		Output:     e.Output,
		CacheRead:  e.CacheRead,
		CacheWrite: e.CacheWrite,
		Total:      e.Total,
	}
}

// SetTotals overwrites the entry's counters with fresh observed totals.
// The store always reflects last-observed-cumulative, never a running sum
// of deltas.
func (e *Entry) SetTotals(t model.TokenTotals) {
	e.Input = t.Input
	e.Output = t.Output
	e.CacheRead = t.CacheRead
	e.CacheWrite = t.CacheWrite
	e.Total = t.Total
}

// Document is the whole-file state: progress per transcript path and per
// logical (tool, session id) key. Owned exclusively by the sync pass and
// the incremental path, both serialized by the lock manager.
type Document struct {
	Version  int              `json:"version"`
	Files    map[string]Entry `json:"files"`
	Sessions map[string]Entry `json:"sessions"`
}

// SessionKey builds the sessions-map key for a (tool, session id) pair.
func SessionKey(tool, sessionID string) string {
	return tool + "::" + sessionID
}

// NewDocument returns an empty state document.
func NewDocument() *Document {
	return &Document{
		Version:  Version,
		Files:    make(map[string]Entry),
		Sessions: make(map[string]Entry),
	}
}

// Load reads the state document at path. A missing or malformed file is
// treated as empty state, never an error.
func Load(path string) *Document {
	doc := NewDocument()

	data, err := os.ReadFile(path)
	if err != nil {
		return doc
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return NewDocument()
	}
	if doc.Files == nil {
		doc.Files = make(map[string]Entry)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]Entry)
	}
	doc.Version = Version
	return doc
}

// Save rewrites the whole document atomically (temp file + rename).
// Always called inside the lock.
func Save(path string, doc *Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating state temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpPath)
		if werr != nil {
			return fmt.Errorf("writing state: %w", werr)
		}
		return fmt.Errorf("writing state: %w", cerr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing state: %w", err)
	}
	return nil
}

// Reset removes the state document wholesale.
func Reset(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("resetting state: %w", err)
	}
	return nil
}

// PriorTotals reconciles what the file-scan and statusline paths have each
// recorded for a session: the per-field maximum of the file entry and the
// session entry. Either side may be absent.
func (d *Document) PriorTotals(filePath, sessionKey string) model.TokenTotals {
	var prior model.TokenTotals
	if filePath != "" {
		if e, ok := d.Files[filePath]; ok {
			prior = model.MaxTotals(prior, e.Totals())
		}
	}
	if sessionKey != "" {
		if e, ok := d.Sessions[sessionKey]; ok {
			prior = model.MaxTotals(prior, e.Totals())
		}
	}
	return prior
}
