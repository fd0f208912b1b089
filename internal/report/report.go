// Package report serializes an AnalysisResult to disk.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phobologic/fnmap/internal/model"
	"github.com/phobologic/fnmap/internal/toon"
)

// Format selects the report encoding.
type Format string

const (
	JSON Format = "json"
	TOON Format = "toon"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat validates a format name. It is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, TOON:
		return f, nil
	}
	return "", fmt.Errorf("%w %q (want json or toon)", ErrUnknownFormat, s)
}

// Write encodes result and writes it to path, replacing any existing file.
func Write(result *model.AnalysisResult, path string, format Format) error {
	var buf bytes.Buffer
	if err := Encode(&buf, result, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Encode writes result to w in the given format.
func Encode(w io.Writer, result *model.AnalysisResult, format Format) error {
	var data []byte
	switch format {
	case JSON:
		var err error
		data, err = encodeJSON(result)
		if err != nil {
			return err
		}
	case TOON:
		data = []byte(toon.Encode(result) + "\n")
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	_, err := w.Write(data)
	return err
}

// encodeJSON renders the result as a JSON object keyed by file path. Keys
// keep result order, and non-ASCII and HTML characters are not escaped.
func encodeJSON(result *model.AnalysisResult) ([]byte, error) {
	if len(result.Files) == 0 {
		return []byte("{}\n"), nil
	}

	var b bytes.Buffer
	b.WriteString("{\n")
	for i := range result.Files {
		f := &result.Files[i]

		key, err := marshal(f.Path, "")
		if err != nil {
			return nil, fmt.Errorf("encoding key %s: %w", f.Path, err)
		}
		value, err := marshal(normalize(f.Functions), "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.Path, err)
		}

		b.WriteString("  ")
		b.Write(key)
		b.WriteString(": ")
		b.Write(value)
		if i < len(result.Files)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}

func marshal(v any, prefix string) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// normalize guarantees arrays, never null, for every list in the output.
func normalize(fns []model.FunctionRecord) []model.FunctionRecord {
	out := make([]model.FunctionRecord, len(fns))
	for i, fn := range fns {
		if fn.Params == nil {
			fn.Params = []string{}
		}
		if fn.Variables == nil {
			fn.Variables = []string{}
		}
		out[i] = fn
	}
	return out
}
