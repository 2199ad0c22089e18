package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// CumulativeCounterFormat parses Codex CLI rollout transcripts: one JSON
// event per line, where token_count events carry a running total for the
// whole session plus a last-delta snapshot. The session's definitive
// counters are the per-field maximum of every cumulative total seen; if no
// cumulative event ever appears, the last-delta events are summed instead.
type CumulativeCounterFormat struct{}

// Tool implements Format.
func (CumulativeCounterFormat) Tool() string { return model.ToolCodex }

// codexEvent is a single line in a Codex rollout file.
type codexEvent struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// codexEventPayload is the payload of an event_msg line.
type codexEventPayload struct {
	Type string          `json:"type"`
	Info *codexTokenInfo `json:"info,omitempty"`
}

type codexTokenInfo struct {
	TotalTokenUsage *codexTokenUsage `json:"total_token_usage,omitempty"`
	LastTokenUsage  *codexTokenUsage `json:"last_token_usage,omitempty"`
}

type codexTokenUsage struct {
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
	TotalTokens           int64 `json:"total_tokens"`
}

// totals maps the codex counters onto the shared shape. Codex reports
// cached input reads but has no cache-write counter.
func (u *codexTokenUsage) totals() model.TokenTotals {
	return model.TokenTotals{
		Input:     u.InputTokens,
		Output:    u.OutputTokens,
		CacheRead: u.CachedInputTokens,
		Total:     u.TotalTokens,
	}
}

// codexMetaPayload covers session_meta and turn_context payloads.
type codexMetaPayload struct {
	ID    string `json:"id,omitempty"`
	Model string `json:"model,omitempty"`
	Cwd   string `json:"cwd,omitempty"`
}

// Line filters, cheaper than unmarshalling every event.
var (
	patEventMsg    = []byte(`"event_msg"`)
	patSessionMeta = []byte(`"session_meta"`)
	patTurnContext = []byte(`"turn_context"`)
)

// Extract implements Format.
func (f CumulativeCounterFormat) Extract(path string) (model.SessionStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.SessionStats{}, err
	}
	defer file.Close()

	stats := model.SessionStats{
		Tool:     f.Tool(),
		FilePath: path,
	}

	var (
		cumulative    model.TokenTotals
		hasCumulative bool
		deltaSum      model.TokenTotals
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 256*1024), 8*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.Contains(line, patEventMsg) &&
			!bytes.Contains(line, patSessionMeta) &&
			!bytes.Contains(line, patTurnContext) {
			continue
		}

		var event codexEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if event.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339Nano, event.Timestamp); err == nil {
				updateTimeRange(&stats.StartTime, &stats.EndTime, ts)
			}
		}

		switch event.Type {
		case "session_meta", "turn_context":
			var meta codexMetaPayload
			if json.Unmarshal(event.Payload, &meta) != nil {
				continue
			}
			if meta.ID != "" && stats.SessionID == "" {
				stats.SessionID = meta.ID
			}
			if meta.Model != "" {
				stats.Model = meta.Model
			}
			if meta.Cwd != "" && stats.Cwd == "" {
				stats.Cwd = meta.Cwd
			}

		case "event_msg":
			var payload codexEventPayload
			if json.Unmarshal(event.Payload, &payload) != nil {
				continue
			}
			if payload.Type != "token_count" || payload.Info == nil {
				continue
			}

			if total := payload.Info.TotalTokenUsage; total != nil {
				cumulative = model.MaxTotals(cumulative, total.totals())
				hasCumulative = true
			}
			if last := payload.Info.LastTokenUsage; last != nil {
				t := last.totals()
				deltaSum.Input += t.Input
				deltaSum.Output += t.Output
				deltaSum.CacheRead += t.CacheRead
				deltaSum.Total += t.Total
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, err
	}

	if hasCumulative {
		stats.Totals = cumulative
	} else {
		stats.Totals = deltaSum
	}
	if stats.Totals.Total < stats.Totals.Sum() {
		stats.Totals.Total = stats.Totals.Sum()
	}

	if stats.SessionID == "" {
		stats.SessionID = SessionIDFromFileName(filepath.Base(path))
	}
	return stats, nil
}
