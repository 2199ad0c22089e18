package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/Kritoooo/CodeEnvSwitch/internal/binding"
	"github.com/Kritoooo/CodeEnvSwitch/internal/config"
	"github.com/Kritoooo/CodeEnvSwitch/internal/ledger"
	"github.com/Kritoooo/CodeEnvSwitch/internal/lockfile"
	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
	"github.com/Kritoooo/CodeEnvSwitch/internal/source"
	"github.com/Kritoooo/CodeEnvSwitch/internal/state"
)

// SyncResult summarizes one sync pass.
type SyncResult struct {
	// Skipped is set when the lock was held elsewhere. Callers proceed
	// with existing ledger data; this is not an error.
	Skipped bool

	FilesScanned    int
	FilesUnchanged  int
	FilesParsed     int
	FilesUnbound    int
	RecordsAppended int
}

// Sync runs one full pass over both tools' session logs: acquire the lock,
// parse every file whose metadata changed since last state, bind each to a
// profile, compute deltas, append non-zero records, persist state, release.
// Lock contention is reported via SyncResult.Skipped, never as an error.
func Sync(cfg config.Config) (SyncResult, error) {
	var res SyncResult

	lock, err := lockfile.Acquire(cfg.LockPath())
	if err != nil {
		return res, fmt.Errorf("acquiring sync lock: %w", err)
	}
	if lock == nil {
		res.Skipped = true
		return res, nil
	}
	defer func() { _ = lock.Release() }()

	doc := state.Load(cfg.StatePath())
	store := ledger.New(cfg.LedgerPath())

	bindings, err := binding.NewLog(cfg.BindingLogPath()).ReadAll()
	if err != nil {
		return res, fmt.Errorf("reading binding log: %w", err)
	}

	files, err := discover(cfg)
	if err != nil {
		return res, err
	}
	res.FilesScanned = len(files)

	for _, df := range files {
		info, err := os.Stat(df.Path)
		if err != nil {
			continue
		}
		mtimeMs := info.ModTime().UnixMilli()
		size := info.Size()

		if prev, ok := doc.Files[df.Path]; ok && prev.MtimeMs == mtimeMs && prev.Size == size {
			res.FilesUnchanged++
			continue
		}

		format := source.FormatFor(df.Tool)
		stats, err := format.Extract(df.Path)
		if err != nil {
			continue
		}
		res.FilesParsed++
		if stats.SessionID == "" {
			stats.SessionID = df.SessionID
		}

		ref := binding.Resolve(bindings, df.Tool, df.Path, stats.SessionID)
		if ref == nil {
			// No binding yet, or an ambiguous one. Leave the file
			// unprocessed; a future pass retries once binding
			// information exists.
			res.FilesUnbound++
			continue
		}

		sessionKey := ""
		if stats.SessionID != "" {
			sessionKey = state.SessionKey(df.Tool, stats.SessionID)
		}

		prior := doc.PriorTotals(df.Path, sessionKey)
		delta := ComputeDelta(stats.Totals, prior)

		if delta.Total > 0 {
			if err := store.Append(recordFor(stats, *ref, delta)); err != nil {
				return res, fmt.Errorf("appending usage record: %w", err)
			}
			res.RecordsAppended++
		}

		entry := entryFor(stats, mtimeMs, size)
		doc.Files[df.Path] = entry
		if sessionKey != "" {
			sessEntry := entry
			sessEntry.MtimeMs = 0
			sessEntry.Size = 0
			doc.Sessions[sessionKey] = sessEntry
		}
	}

	if err := state.Save(cfg.StatePath(), doc); err != nil {
		return res, fmt.Errorf("saving sync state: %w", err)
	}
	return res, nil
}

func discover(cfg config.Config) ([]source.DiscoveredFile, error) {
	claude, err := source.ScanClaude(cfg.ClaudeDir())
	if err != nil {
		return nil, fmt.Errorf("scanning claude sessions: %w", err)
	}
	codex, err := source.ScanCodex(cfg.CodexDir())
	if err != nil {
		return nil, fmt.Errorf("scanning codex sessions: %w", err)
	}
	return append(claude, codex...), nil
}

// recordFor builds the ledger record for one emitted delta. Records are
// dated by the session's latest observed event, falling back to now.
func recordFor(stats model.SessionStats, ref model.ProfileRef, delta model.TokenTotals) model.UsageRecord {
	ts := stats.EndTime
	if ts.IsZero() {
		ts = time.Now()
	}
	return model.UsageRecord{
		Timestamp:   ts,
		Tool:        stats.Tool,
		ProfileKey:  ref.Key,
		ProfileName: ref.Name,
		Model:       stats.Model,
		SessionID:   stats.SessionID,
		Input:       delta.Input,
		Output:      delta.Output,
		CacheRead:   delta.CacheRead,
		CacheWrite:  delta.CacheWrite,
		Total:       delta.Total,
	}
}

// entryFor snapshots fresh cumulative totals into a state entry. The store
// reflects last-observed-cumulative, never a running sum of deltas.
func entryFor(stats model.SessionStats, mtimeMs, size int64) state.Entry {
	e := state.Entry{
		MtimeMs: mtimeMs,
		Size:    size,
		Tool:    stats.Tool,
		Cwd:     stats.Cwd,
		Model:   stats.Model,
	}
	e.SetTotals(stats.Totals)
	if !stats.StartTime.IsZero() {
		e.StartTs = stats.StartTime.UTC().Format(time.RFC3339)
	}
	if !stats.EndTime.IsZero() {
		e.EndTs = stats.EndTime.UTC().Format(time.RFC3339)
	}
	return e
}

// Reset clears the ledger and state wholesale, under the lock. A held lock
// aborts the reset so a concurrent sync pass is never pulled out from
// under its own state.
func Reset(cfg config.Config) (bool, error) {
	lock, err := lockfile.Acquire(cfg.LockPath())
	if err != nil {
		return false, fmt.Errorf("acquiring sync lock: %w", err)
	}
	if lock == nil {
		return false, nil
	}
	defer func() { _ = lock.Release() }()

	if err := ledger.New(cfg.LedgerPath()).Reset(); err != nil {
		return false, err
	}
	if err := state.Reset(cfg.StatePath()); err != nil {
		return false, err
	}
	return true, nil
}
