package source

import (
	"encoding/json"
	"errors"

	"github.com/Kritoooo/CodeEnvSwitch/internal/model"
)

// StatusInput is the normalized form of the JSON object a tool's status
// line hook passes on stdin. The live totals are cumulative for the
// session, exactly like the transcript parsers' output.
type StatusInput struct {
	SessionID string
	Model     string
	Cwd       string
	Totals    model.TokenTotals
}

var errNotAnObject = errors.New("status input is not a JSON object")

// ParseStatusInput decodes a status-line payload for the given tool.
// Usage fields may appear under several tool-specific aliases; the most
// specific nested shape wins before falling back to flatter ones.
func ParseStatusInput(tool string, data []byte) (StatusInput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return StatusInput{}, errNotAnObject
	}

	in := StatusInput{
		SessionID: stringField(fields, "session_id", "sessionId"),
		Cwd:       stringField(fields, "cwd"),
		Model:     modelField(fields),
	}

	if ws, ok := objectField(fields, "workspace"); ok && in.Cwd == "" {
		in.Cwd = stringField(ws, "current_dir", "project_dir")
	}

	switch tool {
	case model.ToolCodex:
		in.Totals = codexStatusTotals(fields)
	default:
		in.Totals = claudeStatusTotals(fields)
	}

	if in.Totals.Total < in.Totals.Sum() {
		in.Totals.Total = in.Totals.Sum()
	}
	return in, nil
}

// claudeStatusTotals prefers context_window.current_usage, then a
// top-level usage object, then flat aliases.
func claudeStatusTotals(fields map[string]json.RawMessage) model.TokenTotals {
	if cw, ok := objectField(fields, "context_window"); ok {
		if usage, ok := objectField(cw, "current_usage"); ok {
			if t := usageTotals(usage); !t.IsZero() {
				return t
			}
		}
	}
	if usage, ok := objectField(fields, "usage"); ok {
		if t := usageTotals(usage); !t.IsZero() {
			return t
		}
	}
	return usageTotals(fields)
}

// codexStatusTotals prefers total_token_usage, then token_usage, then
// flat aliases.
func codexStatusTotals(fields map[string]json.RawMessage) model.TokenTotals {
	for _, key := range []string{"total_token_usage", "token_usage"} {
		if usage, ok := objectField(fields, key); ok {
			if t := usageTotals(usage); !t.IsZero() {
				return t
			}
		}
	}
	if info, ok := objectField(fields, "info"); ok {
		if usage, ok := objectField(info, "total_token_usage"); ok {
			if t := usageTotals(usage); !t.IsZero() {
				return t
			}
		}
	}
	return usageTotals(fields)
}

// usageTotals reads one usage object under any accepted alias per field.
func usageTotals(fields map[string]json.RawMessage) model.TokenTotals {
	return model.TokenTotals{
		Input:      numberField(fields, "input_tokens", "inputTokens", "input"),
		Output:     numberField(fields, "output_tokens", "outputTokens", "output"),
		CacheRead:  numberField(fields, "cache_read_input_tokens", "cached_input_tokens", "cacheReadTokens", "cacheRead"),
		CacheWrite: numberField(fields, "cache_creation_input_tokens", "cacheWriteTokens", "cacheWrite"),
		Total:      numberField(fields, "total_tokens", "totalTokens", "total"),
	}
}

// modelField accepts a nested model object ({id, display_name}) or a flat
// model string.
func modelField(fields map[string]json.RawMessage) string {
	raw, ok := fields["model"]
	if !ok {
		return ""
	}

	var flat string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		return stringField(nested, "id", "display_name")
	}
	return ""
}

func objectField(fields map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func stringField(fields map[string]json.RawMessage, keys ...string) string {
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

func numberField(fields map[string]json.RawMessage, keys ...string) int64 {
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
