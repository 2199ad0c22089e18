// Package binding maintains the append-only profile binding log and
// resolves which profile a session belongs to.
package binding

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// Entry kinds. A "use" entry records that an operator activated a profile;
// a "session" entry attributes a concrete transcript file or session id to
// a profile. Entries are never deleted or mutated, only appended.
const (
	KindUse     = "use"
	KindSession = "session"
)

// Entry is one line of the binding log.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Kind        string    `json:"kind"`
	ProfileKey  string    `json:"profileKey,omitempty"`
	ProfileName string    `json:"profileName,omitempty"`
	ProfileType string    `json:"profileType,omitempty"`
	Tool        string    `json:"tool,omitempty"`
	TerminalTag string    `json:"terminalTag,omitempty"`
	Cwd         string    `json:"cwd,omitempty"`
	SessionFile string    `json:"sessionFile,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
}

// Log reads and appends binding entries at a fixed path.
type Log struct {
	path string
}

// NewLog returns a Log bound to path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one entry as a single JSON line.
func (l *Log) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating binding log dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening binding log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding binding entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending binding entry: %w", err)
	}
	return f.Sync()
}

// ReadAll streams the binding log; malformed lines are skipped silently
// and a missing file is an empty log.
func (l *Log) ReadAll() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening binding log: %w", err)
	}
	defer f.Close()

	var entries []Entry

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("reading binding log: %w", err)
	}
	return entries, nil
}

// Resolve attributes a session to a profile using the session-kind entries
// for the given tool. Exact file-path matches win; session-id matches are
// the fallback. Zero matches or more than one distinct profile → nil:
// the caller leaves the file unprocessed rather than guess. "use" entries
// never participate in attribution.
func Resolve(entries []Entry, tool, sessionFile, sessionID string) *model.ProfileRef {
	sessions := lo.Filter(entries, func(e Entry, _ int) bool {
		return e.Kind == KindSession && e.Tool == tool
	})

	matches := lo.Filter(sessions, func(e Entry, _ int) bool {
		return sessionFile != "" && e.SessionFile == sessionFile
	})
	if len(matches) == 0 && sessionID != "" {
		matches = lo.Filter(sessions, func(e Entry, _ int) bool {
			return e.SessionID == sessionID
		})
	}
	if len(matches) == 0 {
		return nil
	}

	distinct := lo.UniqBy(matches, func(e Entry) model.ProfileRef {
		return model.ProfileRef{Key: e.ProfileKey, Name: e.ProfileName}
	})
	if len(distinct) != 1 {
		// Ambiguous binding: never guess.
		return nil
	}

	return &model.ProfileRef{
		Key:  distinct[0].ProfileKey,
		Name: distinct[0].ProfileName,
	}
}
