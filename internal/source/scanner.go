package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// ScanClaude walks the Claude Code projects directory and discovers all
// JSONL session files. A missing directory yields no files, not an error.
func ScanClaude(claudeDir string) ([]DiscoveredFile, error) {
	return scanJSONL(filepath.Join(claudeDir, "projects"), model.ToolClaude)
}

// ScanCodex walks the Codex sessions directory (organized as
// sessions/YYYY/MM/DD/rollout-*.jsonl) and discovers all session files.
func ScanCodex(codexDir string) ([]DiscoveredFile, error) {
	return scanJSONL(filepath.Join(codexDir, "sessions"), model.ToolCodex)
}

func scanJSONL(root, tool string) ([]DiscoveredFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		files = append(files, DiscoveredFile{
			Path:      path,
			Tool:      tool,
			SessionID: SessionIDFromFileName(d.Name()),
		})
		return nil
	})

	return files, err
}

// SessionIDFromFileName recovers the session UUID embedded in a transcript
// file name. Claude names files "<uuid>.jsonl"; Codex names them
// "rollout-<datetime>-<uuid>.jsonl". Returns "" when no UUID is present.
func SessionIDFromFileName(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	if id, err := uuid.Parse(stem); err == nil {
		return id.String()
	}

	// UUIDs are 36 characters; try the tail of a prefixed name.
	if len(stem) > 36 {
		if id, err := uuid.Parse(stem[len(stem)-36:]); err == nil {
			return id.String()
		}
	}
	return ""
}
