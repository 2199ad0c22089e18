// Package ledger implements the append-only, line-oriented usage record log.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// Store reads and appends usage records at a fixed path.
type Store struct {
	path string
}

// New returns a Store bound to path. The file is created on first append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file path.
func (s *Store) Path() string { return s.path }

// Append writes one record as a single JSON line and flushes it. Appends
// are line-atomic; the caller serializes writers via the lock manager
// around the larger operation that produced the record.
func (s *Store) Append(rec model.UsageRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("appending record: %w", err)
	}
	return f.Sync()
}

// ReadAll streams the ledger and returns every parseable record. Lines that
// fail to parse as an object are skipped silently; a missing file is an
// empty ledger, not an error.
func (s *Store) ReadAll() ([]model.UsageRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	var records []model.UsageRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, ok := decodeLine(line)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("reading ledger: %w", err)
	}
	return records, nil
}

// Reset removes the ledger file wholesale. Records are never deleted
// selectively.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("resetting ledger: %w", err)
	}
	return nil
}

// Accepted key aliases per field, most recent format first. Older ledgers
// and upstream format drift are absorbed here rather than versioned.
var (
	aliasesInput      = []string{"inputTokens", "input_tokens", "input"}
	aliasesOutput     = []string{"outputTokens", "output_tokens", "output"}
	aliasesCacheRead  = []string{"cacheReadTokens", "cache_read_input_tokens", "cacheRead"}
	aliasesCacheWrite = []string{"cacheWriteTokens", "cache_creation_input_tokens", "cacheWrite"}
	aliasesTotal      = []string{"totalTokens", "total_tokens", "total"}
	aliasesTimestamp  = []string{"ts", "timestamp"}
	aliasesTool       = []string{"type", "tool"}
)

// decodeLine parses one ledger line with tolerant field extraction.
func decodeLine(line []byte) (model.UsageRecord, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil || fields == nil {
		return model.UsageRecord{}, false
	}

	rec := model.UsageRecord{
		Tool:        firstString(fields, aliasesTool...),
		ProfileKey:  firstString(fields, "profileKey"),
		ProfileName: firstString(fields, "profileName"),
		Model:       firstString(fields, "model"),
		SessionID:   firstString(fields, "sessionId"),
		Input:       firstNumber(fields, aliasesInput...),
		Output:      firstNumber(fields, aliasesOutput...),
		CacheRead:   firstNumber(fields, aliasesCacheRead...),
		CacheWrite:  firstNumber(fields, aliasesCacheWrite...),
		Total:       firstNumber(fields, aliasesTotal...),
	}

	if raw := firstString(fields, aliasesTimestamp...); raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			rec.Timestamp = ts
		}
	}

	// Consumers take the max of the declared total and the category sum;
	// legacy records may lack either.
	rec.Total = model.TokenTotals{
		Input:      rec.Input,
		Output:     rec.Output,
		CacheRead:  rec.CacheRead,
		CacheWrite: rec.CacheWrite,
		Total:      rec.Total,
	}.Effective()

	return rec, true
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(fields map[string]json.RawMessage, keys ...string) int64 {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return int64(n)
		}
	}
	return 0
}
