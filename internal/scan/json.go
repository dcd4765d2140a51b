package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// JSONScanner accepts documents that are already a flat JSON object, as
// produced by external extraction tools. Non-string values are rendered
// with fmt.Sprint; nested values are rejected.
type JSONScanner struct{}

func (JSONScanner) Name() string { return "json" }

func (JSONScanner) Scan(_ context.Context, data []byte, _ string) (Fields, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrUnsupported
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode json document: %w", err)
	}

	fields := make(Fields, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = v
		case map[string]any, []any:
			return nil, fmt.Errorf("field %q: nested values are not supported", k)
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	return fields, nil
}
