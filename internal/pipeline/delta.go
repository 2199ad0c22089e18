package pipeline

import "github.com/Kritoooo/CodeEnvSwitch/internal/model"

// ComputeDelta returns the portion of fresh counters not yet emitted,
// given the previously stored maxima. A negative delta in any field means
// the upstream counter reset (for example a new sub-session reusing the
// same file or session key); in that case every field re-emits the fresh
// absolute value, never a negative-clamped partial delta.
func ComputeDelta(fresh, prev model.TokenTotals) model.TokenTotals {
	delta := model.TokenTotals{
		Input:      fresh.Input - prev.Input,
		Output:     fresh.Output - prev.Output,
		CacheRead:  fresh.CacheRead - prev.CacheRead,
		CacheWrite: fresh.CacheWrite - prev.CacheWrite,
		Total:      fresh.Total - prev.Total,
	}

	if delta.Input < 0 || delta.Output < 0 || delta.CacheRead < 0 ||
		delta.CacheWrite < 0 || delta.Total < 0 {
		return fresh
	}
	return delta
}
