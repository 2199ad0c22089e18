package pipeline

import (
	"fmt"
	"time"

	"github.com/Kritoooo/CodeEnvSwitch/internal/config"
	"github.com/Kritoooo/CodeEnvSwitch/internal/ledger"
	"github.com/Kritoooo/CodeEnvSwitch/internal/lockfile"
	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
	"github.com/Kritoooo/CodeEnvSwitch/internal/source"
	"github.com/Kritoooo/CodeEnvSwitch/internal/state"
)

// RecordResult summarizes one incremental recording.
type RecordResult struct {
	// Skipped is set when the lock was held elsewhere; the observation
	// is dropped and a later status update or sync pass catches up.
	Skipped bool
	// Appended is set when a non-zero delta was written to the ledger.
	Appended bool
	Delta    model.TokenTotals
}

// RecordIncremental is the statusline-driven path: it observes a session's
// live cumulative totals rather than a static file, reconciles them with
// whatever the file-scan path already recorded (per-field maximum, never a
// sum), and appends the emit-safe delta.
func RecordIncremental(cfg config.Config, env Env, in source.StatusInput) (RecordResult, error) {
	var res RecordResult

	if !model.KnownTool(env.Tool) {
		return res, fmt.Errorf("unknown tool %q", env.Tool)
	}
	if in.SessionID == "" {
		return res, fmt.Errorf("status input carries no session id")
	}

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
	sessionKey := state.SessionKey(env.Tool, in.SessionID)

	prior := doc.PriorTotals("", sessionKey)
	res.Delta = ComputeDelta(in.Totals, prior)

	if res.Delta.Total > 0 {
		rec := model.UsageRecord{
			Timestamp:   time.Now(),
			Tool:        env.Tool,
			ProfileKey:  env.ProfileKey,
			ProfileName: env.ProfileName,
			Model:       in.Model,
			SessionID:   in.SessionID,
			Input:       res.Delta.Input,
			Output:      res.Delta.Output,
			CacheRead:   res.Delta.CacheRead,
			CacheWrite:  res.Delta.CacheWrite,
			Total:       res.Delta.Total,
		}
		if err := ledger.New(cfg.LedgerPath()).Append(rec); err != nil {
			return res, fmt.Errorf("appending usage record: %w", err)
		}
		res.Appended = true
	}

	// Store last-observed-cumulative, even after a reset: tracking
	// anything larger would swallow the next delta.
	entry := doc.Sessions[sessionKey]
	entry.Tool = env.Tool
	entry.SetTotals(in.Totals)
	if in.Model != "" {
		entry.Model = in.Model
	}
	if cwd := firstNonEmpty(in.Cwd, env.WorkingDir); cwd != "" {
		entry.Cwd = cwd
	}
	entry.EndTs = time.Now().UTC().Format(time.RFC3339)
	doc.Sessions[sessionKey] = entry

	if err := state.Save(cfg.StatePath(), doc); err != nil {
		return res, fmt.Errorf("saving sync state: %w", err)
	}
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
