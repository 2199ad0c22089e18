package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTranscript creates a temp JSONL file with the given lines.
func writeTranscript(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClaudeExtract_SumsUsageAcrossMessages(t *testing.T) {
	path := writeTranscript(t, "session.jsonl",
		`{"type":"assistant","sessionId":"s1","timestamp":"2025-06-01T10:00:00Z","message":{"id":"m1","model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":50}}}`,
		`{"type":"assistant","timestamp":"2025-06-01T10:05:00Z","message":{"id":"m2","model":"claude-sonnet-4-5","usage":{"input_tokens":30,"output_tokens":20,"cache_read_input_tokens":500}}}`,
	)

	stats, err := AdditiveMessageFormat{}.Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", stats.SessionID)
	}
	if stats.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q", stats.Model)
	}
	if stats.Totals.Input != 130 || stats.Totals.Output != 70 {
		t.Errorf("Input/Output = %d/%d, want 130/70", stats.Totals.Input, stats.Totals.Output)
	}
	if stats.Totals.CacheRead != 500 {
		t.Errorf("CacheRead = %d, want 500", stats.Totals.CacheRead)
	}
	if stats.Totals.Total != 700 {
		t.Errorf("Total = %d, want 700", stats.Totals.Total)
	}
}

func TestClaudeExtract_CacheCreationBreakdownWins(t *testing.T) {
	path := writeTranscript(t, "session.jsonl",
		`{"type":"assistant","message":{"id":"m1","usage":{"input_tokens":1,"output_tokens":1,"cache_creation_input_tokens":999,"cache_creation":{"ephemeral_5m_input_tokens":200,"ephemeral_1h_input_tokens":300}}}}`,
	)

	stats, err := AdditiveMessageFormat{}.Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Totals.CacheWrite != 500 {
		t.Errorf("CacheWrite = %d, want 500 (TTL breakdown preferred)", stats.Totals.CacheWrite)
	}
}

func TestClaudeExtract_FlatCacheCreationFallback(t *testing.T) {
	path := writeTranscript(t, "session.jsonl",
		`{"type":"assistant","message":{"id":"m1","usage":{"input_tokens":1,"output_tokens":1,"cache_creation_input_tokens":42}}}`,
	)

	stats, err := AdditiveMessageFormat{}.Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Totals.CacheWrite != 42 {
		t.Errorf("CacheWrite = %d, want 42", stats.Totals.CacheWrite)
	}
}

func TestClaudeExtract_MalformedLinesSkipped(t *testing.T) {
	path := writeTranscript(t, "session.jsonl",
		`not json at all`,
		`{"type":"assistant","message":{"id":"m1","usage":{"input_tokens":10,"output_tokens":5}}}`,
		`{"type":"assistant","broken json`,
	)

	stats, err := AdditiveMessageFormat{}.Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Totals.Input != 10 || stats.Totals.Output != 5 {
		t.Errorf("Totals = %+v, want input 10 output 5", stats.Totals)
	}
}

func TestClaudeExtract_TimeRange(t *testing.T) {
	path := writeTranscript(t, "session.jsonl",
		`{"type":"user","timestamp":"2025-06-01T08:00:00Z"}`,
		`{"type":"user","timestamp":"2025-06-01T12:00:00Z"}`,
		`{"type":"user","timestamp":"2025-06-01T10:00:00Z"}`,
	)

	stats, err := AdditiveMessageFormat{}.Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !stats.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want %v", stats.StartTime, wantStart)
	}
	if !stats.EndTime.Equal(wantEnd) {
		t.Errorf("EndTime = %v, want %v", stats.EndTime, wantEnd)
	}
}

func TestClaudeExtract_SessionIDFromFileName(t *testing.T) {
	path := writeTranscript(t, "11111111-2222-3333-4444-555555555555.jsonl",
		`{"type":"user","timestamp":"2025-06-01T10:00:00Z"}`,
	)

	stats, err := AdditiveMessageFormat{}.Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SessionID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("SessionID = %q, want file-derived uuid", stats.SessionID)
	}
}

func TestClaudeExtract_EmptyFile(t *testing.T) {
	path := writeTranscript(t, "session.jsonl")

	stats, err := AdditiveMessageFormat{}.Extract(path)
	if err != nil {
		t.Fatalf("unexpected error on empty file: %v", err)
	}
	if !stats.Totals.IsZero() {
		t.Errorf("Totals = %+v, want zero", stats.Totals)
	}
}
