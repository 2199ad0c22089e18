package source

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// AdditiveMessageFormat parses Claude Code transcripts: one JSON message
// per line, with per-message usage fields that are increments, never
// running totals. Session counters are the sum across every line.
type AdditiveMessageFormat struct{}

// Tool implements Format.
func (AdditiveMessageFormat) Tool() string { return model.ToolClaude }

// claudeEntry is a single line in a Claude Code JSONL session file.
type claudeEntry struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Cwd       string         `json:"cwd,omitempty"`
	Model     string         `json:"model,omitempty"`
	Message   *claudeMessage `json:"message,omitempty"`
}

// claudeMessage is the assistant's message envelope.
type claudeMessage struct {
	ID    string       `json:"id"`
	Role  string       `json:"role"`
	Model string       `json:"model"`
	Usage *claudeUsage `json:"usage,omitempty"`
}

// claudeUsage holds token counts from the API response.
type claudeUsage struct {
	InputTokens              int64          `json:"input_tokens"`
	OutputTokens             int64          `json:"output_tokens"`
	CacheCreationInputTokens int64          `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64          `json:"cache_read_input_tokens"`
	CacheCreation            *cacheCreation `json:"cache_creation,omitempty"`
}

// cacheCreation is the cache-write breakdown by TTL bucket.
type cacheCreation struct {
	Ephemeral5mInputTokens int64 `json:"ephemeral_5m_input_tokens"`
	Ephemeral1hInputTokens int64 `json:"ephemeral_1h_input_tokens"`
}

// cacheWriteTokens prefers the TTL breakdown over the flat counter.
func (u *claudeUsage) cacheWriteTokens() int64 {
	if u.CacheCreation != nil {
		if n := u.CacheCreation.Ephemeral5mInputTokens + u.CacheCreation.Ephemeral1hInputTokens; n > 0 {
			return n
		}
	}
	return u.CacheCreationInputTokens
}

// Extract implements Format.
func (f AdditiveMessageFormat) Extract(path string) (model.SessionStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.SessionStats{}, err
	}
	defer file.Close()

	stats := model.SessionStats{
		Tool:     f.Tool(),
		FilePath: path,
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry claudeEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		if entry.SessionID != "" && stats.SessionID == "" {
			stats.SessionID = entry.SessionID
		}
		if entry.Cwd != "" && stats.Cwd == "" {
			stats.Cwd = entry.Cwd
		}
		if entry.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err == nil {
				updateTimeRange(&stats.StartTime, &stats.EndTime, ts)
			}
		}

		// Model may appear at the top level or inside the message.
		if entry.Model != "" {
			stats.Model = entry.Model
		}

		if entry.Message == nil {
			continue
		}
		if entry.Message.Model != "" {
			stats.Model = entry.Message.Model
		}

		u := entry.Message.Usage
		if u == nil {
			continue
		}

		stats.Totals.Input += u.InputTokens
		stats.Totals.Output += u.OutputTokens
		stats.Totals.CacheRead += u.CacheReadInputTokens
		stats.Totals.CacheWrite += u.cacheWriteTokens()
	}

	if err := scanner.Err(); err != nil {
		return stats, err
	}

	if stats.SessionID == "" {
		stats.SessionID = SessionIDFromFileName(filepath.Base(path))
	}
	stats.Totals.Total = stats.Totals.Sum()
	return stats, nil
}

func updateTimeRange(start, end *time.Time, ts time.Time) {
	if start.IsZero() || ts.Before(*start) {
		*start = ts
	}
	if end.IsZero() || ts.After(*end) {
		*end = ts
	}
}
