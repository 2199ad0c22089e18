package source

import (
	"testing"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

func TestParseStatusInput_ClaudeContextWindow(t *testing.T) {
	data := []byte(`{
		"session_id": "s1",
		"model": {"id": "claude-sonnet-4-5", "display_name": "Sonnet"},
		"workspace": {"current_dir": "/tmp/proj"},
		"context_window": {"current_usage": {"input_tokens": 100, "output_tokens": 50, "cache_read_input_tokens": 20}}
	}`)

	in, err := ParseStatusInput(model.ToolClaude, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", in.SessionID)
	}
	if in.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q, want id over display_name", in.Model)
	}
	if in.Cwd != "/tmp/proj" {
		t.Errorf("Cwd = %q", in.Cwd)
	}
	if in.Totals.Input != 100 || in.Totals.Output != 50 || in.Totals.CacheRead != 20 {
		t.Errorf("Totals = %+v", in.Totals)
	}
	if in.Totals.Total != 170 {
		t.Errorf("Total = %d, want sum 170", in.Totals.Total)
	}
}

func TestParseStatusInput_ClaudeFlatUsage(t *testing.T) {
	data := []byte(`{"sessionId":"s2","model":"claude-haiku-4-5","usage":{"input_tokens":10,"output_tokens":5}}`)

	in, err := ParseStatusInput(model.ToolClaude, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.SessionID != "s2" || in.Model != "claude-haiku-4-5" {
		t.Errorf("identity = %q/%q", in.SessionID, in.Model)
	}
	if in.Totals.Input != 10 || in.Totals.Output != 5 {
		t.Errorf("Totals = %+v", in.Totals)
	}
}

func TestParseStatusInput_CodexTotalTokenUsage(t *testing.T) {
	data := []byte(`{
		"session_id": "s3",
		"model": "gpt-5-codex",
		"total_token_usage": {"input_tokens": 200, "cached_input_tokens": 50, "output_tokens": 80, "total_tokens": 330}
	}`)

	in, err := ParseStatusInput(model.ToolCodex, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Totals.Input != 200 || in.Totals.CacheRead != 50 || in.Totals.Output != 80 {
		t.Errorf("Totals = %+v", in.Totals)
	}
	if in.Totals.Total != 330 {
		t.Errorf("Total = %d, want 330", in.Totals.Total)
	}
}

func TestParseStatusInput_CodexNestedInfo(t *testing.T) {
	data := []byte(`{"session_id":"s4","info":{"total_token_usage":{"input_tokens":7,"output_tokens":3,"total_tokens":10}}}`)

	in, err := ParseStatusInput(model.ToolCodex, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Totals.Total != 10 {
		t.Errorf("Total = %d, want 10", in.Totals.Total)
	}
}

func TestParseStatusInput_NotAnObject(t *testing.T) {
	for _, bad := range []string{`[1,2,3]`, `"str"`, `42`, `null`, `not json`} {
		if _, err := ParseStatusInput(model.ToolClaude, []byte(bad)); err == nil {
			t.Errorf("ParseStatusInput(%q) succeeded, want error", bad)
		}
	}
}

// FuzzParseStatusInput checks the alias parser never panics and never
// reports a Total smaller than the sum of the fields it extracted.
func FuzzParseStatusInput(f *testing.F) {
	f.Add(`{"session_id":"s","usage":{"input_tokens":1,"output_tokens":2}}`)
	f.Add(`{"total_token_usage":{"input_tokens":10,"total_tokens":5}}`)
	f.Add(`{"model":{"id":"m"},"context_window":{"current_usage":{}}}`)
	f.Add(`{"usage":{"input_tokens":-3}}`)
	f.Add(`{}`)
	f.Add(`[]`)
	f.Add(`{"usage":`)
	f.Add(``)

	f.Fuzz(func(t *testing.T, data string) {
		for _, tool := range model.Tools() {
			in, err := ParseStatusInput(tool, []byte(data))
			if err != nil {
				continue
			}
			if in.Totals.Total < in.Totals.Sum() {
				t.Errorf("tool %s: Total %d < Sum %d for input %q",
					tool, in.Totals.Total, in.Totals.Sum(), data)
			}
		}
	})
}
