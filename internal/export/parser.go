package export

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotABundle is returned when a document carries no kpimarks payload.
var ErrNotABundle = errors.New("not a valid kpimarks export")

// Parser deserializes an exported file back into a Bundle.
type Parser interface {
	Parse(data []byte) (*Bundle, error)
}

// ParserFor picks a parser from the file extension. Markdown and SVG exports
// share the embedded-payload parser.
func ParserFor(path string) Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return &JSONParser{}
	}
	return &EmbeddedParser{}
}

// JSONParser parses a JSON-encoded Bundle.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse JSON export: %w", err)
	}
	if b.Version == 0 {
		return nil, fmt.Errorf("%w: missing version", ErrNotABundle)
	}
	return &b, nil
}

// EmbeddedParser recovers the Bundle from the base64 payload comment that the
// Markdown and SVG renderers write.
type EmbeddedParser struct{}

func (p *EmbeddedParser) Parse(data []byte) (*Bundle, error) {
	content := string(data)
	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("%w: missing version sentinel", ErrNotABundle)
	}
	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("%w: missing data payload", ErrNotABundle)
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("%w: malformed data payload", ErrNotABundle)
	}

	raw, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("%w: corrupted base64 payload: %v", ErrNotABundle, err)
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: failed to parse embedded JSON: %v", ErrNotABundle, err)
	}
	return &b, nil
}
