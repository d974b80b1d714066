package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// Report column headers, in export order.
const (
	ColID         = "ID"
	ColName       = "Nome"
	ColTypes      = "Tipos"
	ColExperience = "Experiencia_Base"
	ColHP         = "HP"
	ColAttack     = "Ataque"
	ColDefense    = "Defesa"
	ColCategory   = "Categoria"
)

// Columns is the header of the exported CSV report.
var Columns = []string{ColID, ColName, ColTypes, ColExperience, ColHP, ColAttack, ColDefense, ColCategory}

// Table is a generic column-oriented table of text cells, as read from a CSV
// file or extracted from an answer.
type Table struct {
	Columns []string
	Rows    [][]string
}

// FromRows converts the working table into a Table with the report header.
func FromRows(rows model.Table) Table {
	t := Table{Columns: append([]string(nil), Columns...), Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.ID),
			r.Name,
			r.Types,
			strconv.Itoa(r.BaseExperience),
			strconv.Itoa(r.HP),
			strconv.Itoa(r.Attack),
			strconv.Itoa(r.Defense),
			string(r.Category),
		})
	}
	return t
}

// Index returns the position of the first column matching one of names,
// compared case-insensitively.
func (t Table) Index(names ...string) (int, bool) {
	for _, name := range names {
		for i, col := range t.Columns {
			if strings.EqualFold(strings.TrimSpace(col), name) {
				return i, true
			}
		}
	}
	return -1, false
}

// Strings returns the cells of column i.
func (t Table) Strings(i int) []string {
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Numbers returns column i coerced to numbers; unparsable cells become 0.
func (t Table) Numbers(i int) []float64 {
	cells := t.Strings(i)
	out := make([]float64, len(cells))
	for r, c := range cells {
		out[r] = toNumber(c)
	}
	return out
}

// Records returns every row as a column-name keyed map.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// toNumber coerces a value to a finite float64. Decimal commas are accepted;
// anything else, including NaN and infinities, becomes 0.
func toNumber(v any) float64 {
	f := rawNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func rawNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
			return f
		}
		return 0
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
