// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phobologic/fnmap/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// null marks a cell that is written as the bare TOON null literal.
const null = "\x00null"

// Encode converts an AnalysisResult into TOON format. Lists inside a cell
// are space-separated, with any element that contains whitespace, a quote or
// a backslash quoted itself; an unnamed function has a null name.
func Encode(result *model.AnalysisResult) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(filepath.Base(result.Root))))

	var fileRows [][]string
	for i := range result.Files {
		f := &result.Files[i]
		fileRows = append(fileRows, []string{
			f.Path,
			f.Language,
			fmt.Sprintf("%d", len(f.Functions)),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "functions"}, fileRows))

	var fnRows [][]string
	for i := range result.Files {
		f := &result.Files[i]
		for j := range f.Functions {
			fn := &f.Functions[j]
			name := null
			if fn.Name != nil {
				name = *fn.Name
			}
			fnRows = append(fnRows, []string{
				f.Path,
				name,
				encodeList(fn.Params),
				encodeList(fn.Variables),
			})
		}
	}
	parts = append(parts, formatTabular("functions", []string{"file", "name", "params", "variables"}, fnRows))

	return strings.Join(parts, "\n")
}

// encodeList joins items with spaces so that the cell splits back into
// exactly the original items.
func encodeList(items []string) string {
	encoded := make([]string, len(items))
	for i, item := range items {
		if item == "" || strings.ContainsAny(item, " \t\n\r\"\\") {
			encoded[i] = quote(item)
		} else {
			encoded[i] = item
		}
	}
	return strings.Join(encoded, " ")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == null {
		return "null"
	}

	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
