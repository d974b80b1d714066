package rag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
)

var (
	tableBlock = regexp.MustCompile(`(?m)(?:^[ \t]*\|.*\|[ \t]*\r?$\n?)+`)
	jsonBlock  = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")
)

// Structured is the data recovered from one answer: either markdown tables
// or a JSON document, never both.
type Structured struct {
	JSON   json.RawMessage
	Tables []report.Table
}

// Empty reports whether nothing was recovered.
func (s Structured) Empty() bool {
	return len(s.Tables) == 0 && len(s.JSON) == 0
}

// ExtractStructured looks for markdown tables in an answer and, when there
// are none, for a fenced json block holding an object or array.
func ExtractStructured(answer string) Structured {
	var tables []report.Table
	for _, block := range tableBlock.FindAllString(answer, -1) {
		if t, ok := parseMarkdownTable(block); ok {
			tables = append(tables, t)
		}
	}
	if len(tables) > 0 {
		return Structured{Tables: tables}
	}

	m := jsonBlock.FindStringSubmatch(answer)
	if m == nil {
		return Structured{}
	}
	raw := bytes.TrimSpace([]byte(m[1]))
	if len(raw) == 0 || (raw[0] != '{' && raw[0] != '[') || !json.Valid(raw) {
		return Structured{}
	}
	return Structured{JSON: raw}
}

// parseMarkdownTable reads a header line, skips the separator line and
// keeps the remaining lines as rows. Empty cells are dropped, and rows are
// padded or cut to the header width.
func parseMarkdownTable(block string) (report.Table, bool) {
	var lines []string
	for _, ln := range strings.Split(strings.TrimSpace(block), "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) < 2 {
		return report.Table{}, false
	}

	header := markdownCells(lines[0])
	if len(header) == 0 {
		return report.Table{}, false
	}

	t := report.Table{Columns: header}
	for _, ln := range lines[2:] {
		cells := markdownCells(ln)
		if len(cells) == 0 {
			continue
		}
		row := make([]string, len(header))
		copy(row, cells)
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

func markdownCells(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// SaveStructured writes the recovered data into dir and returns the file
// paths. Tables become semicolon separated CSV files named
// dados_<timestamp>.csv, or dados_<timestamp>_partN.csv when there are
// several; JSON becomes dados_<timestamp>.json.
func SaveStructured(dir string, data Structured, now time.Time) ([]string, error) {
	if data.Empty() {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	stamp := now.Format("20060102_150405")

	if len(data.Tables) > 0 {
		paths := make([]string, 0, len(data.Tables))
		for i, t := range data.Tables {
			name := "dados_" + stamp
			if len(data.Tables) > 1 {
				name = fmt.Sprintf("%s_part%d", name, i+1)
			}
			path := uniquePath(dir, name, ".csv")
			if err := report.WriteCSV(t, path); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data.JSON, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format JSON: %w", err)
	}
	buf.WriteByte('\n')

	path := uniquePath(dir, "dados_"+stamp, ".json")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}

// uniquePath returns dir/name+ext, adding a short random suffix when two
// answers land in the same second.
func uniquePath(dir, name, ext string) string {
	path := filepath.Join(dir, name+ext)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	return filepath.Join(dir, name+"_"+uuid.NewString()[:8]+ext)
}
