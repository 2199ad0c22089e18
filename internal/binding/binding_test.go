package binding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

func TestAppendReadRoundtrip(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "bindings.jsonl"))

	e := Entry{
		Kind:        KindSession,
		Tool:        model.ToolClaude,
		ProfileKey:  "work",
		ProfileName: "Work",
		SessionFile: "/tmp/a.jsonl",
		SessionID:   "s1",
	}
	if err := log.Append(e); err != nil {
		t.Fatal(err)
	}

	entries, err := log.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	got := entries[0]
	if got.Kind != KindSession || got.ProfileKey != "work" || got.SessionFile != "/tmp/a.jsonl" {
		t.Errorf("entry = %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("Append did not default the timestamp")
	}
}

func TestReadAll_MissingAndMalformed(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "absent.jsonl"))
	entries, err := log.ReadAll()
	if err != nil || len(entries) != 0 {
		t.Errorf("missing log: entries=%d err=%v", len(entries), err)
	}

	path := filepath.Join(t.TempDir(), "bindings.jsonl")
	content := "garbage\n" + `{"kind":"session","tool":"claude","profileKey":"work","sessionId":"s1"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	entries, err = NewLog(path).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1 (bad line skipped)", len(entries))
	}
}

func sessionEntry(tool, key, name, file, id string) Entry {
	return Entry{
		Kind: KindSession, Tool: tool,
		ProfileKey: key, ProfileName: name,
		SessionFile: file, SessionID: id,
	}
}

func TestResolve_PathMatchBeatsSessionID(t *testing.T) {
	entries := []Entry{
		sessionEntry(model.ToolClaude, "by-id", "", "", "s1"),
		sessionEntry(model.ToolClaude, "by-path", "", "/tmp/a.jsonl", "other"),
	}

	ref := Resolve(entries, model.ToolClaude, "/tmp/a.jsonl", "s1")
	if ref == nil || ref.Key != "by-path" {
		t.Errorf("ref = %+v, want path match", ref)
	}
}

func TestResolve_SessionIDFallback(t *testing.T) {
	entries := []Entry{
		sessionEntry(model.ToolCodex, "work", "Work", "", "s1"),
	}

	ref := Resolve(entries, model.ToolCodex, "/tmp/unseen.jsonl", "s1")
	if ref == nil || ref.Key != "work" || ref.Name != "Work" {
		t.Errorf("ref = %+v, want id fallback", ref)
	}
}

func TestResolve_AmbiguousIsNil(t *testing.T) {
	entries := []Entry{
		sessionEntry(model.ToolClaude, "a", "", "/tmp/a.jsonl", "s1"),
		sessionEntry(model.ToolClaude, "b", "", "/tmp/a.jsonl", "s1"),
	}

	if ref := Resolve(entries, model.ToolClaude, "/tmp/a.jsonl", "s1"); ref != nil {
		t.Errorf("ref = %+v, want nil on ambiguity", ref)
	}
}

func TestResolve_DuplicateSameProfileOK(t *testing.T) {
	entries := []Entry{
		sessionEntry(model.ToolClaude, "a", "A", "/tmp/a.jsonl", "s1"),
		sessionEntry(model.ToolClaude, "a", "A", "/tmp/a.jsonl", "s1"),
	}

	ref := Resolve(entries, model.ToolClaude, "/tmp/a.jsonl", "s1")
	if ref == nil || ref.Key != "a" {
		t.Errorf("ref = %+v, want the single distinct profile", ref)
	}
}

func TestResolve_IgnoresUseEntriesAndOtherTools(t *testing.T) {
	entries := []Entry{
		{Kind: KindUse, Tool: model.ToolClaude, ProfileKey: "use-only", SessionID: "s1"},
		sessionEntry(model.ToolCodex, "codex-prof", "", "", "s1"),
	}

	if ref := Resolve(entries, model.ToolClaude, "", "s1"); ref != nil {
		t.Errorf("ref = %+v, want nil (use entries and other tools excluded)", ref)
	}
}

func TestResolve_NoMatchIsNil(t *testing.T) {
	if ref := Resolve(nil, model.ToolClaude, "/tmp/a.jsonl", "s1"); ref != nil {
		t.Errorf("ref = %+v, want nil", ref)
	}
}
