package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
)

// ErrMissingColumn is returned by a rule whose input columns are absent.
var ErrMissingColumn = errors.New("column not found")

// Rule maps a plotting instruction to a chart drawn from a table.
type Rule struct {
	// Match reports whether the rule handles the normalized instruction.
	Match func(instruction string) bool
	// Render draws the chart. Returning an error wrapping ErrMissingColumn
	// marks the rule as failed without aborting the chart.
	Render func(t Table) (*plot.Plot, error)
	Name   string
}

// Column aliases accepted in tables.
var (
	hpColumns        = []string{ColHP}
	priorHPColumns   = []string{"HP_anterior", "HP_previous", "Previous_HP"}
	attackColumns    = []string{ColAttack, "Attack"}
	defenseColumns   = []string{ColDefense, "Defense"}
	spAttackColumns  = []string{"Ataque_Especial", "Special_Attack"}
	spDefenseColumns = []string{"Defesa_Especial", "Special_Defense"}
	speedColumns     = []string{"Velocidade", "Speed"}
)

// normalizeInstruction lower-cases and collapses whitespace.
func normalizeInstruction(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func equalsAny(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "hp_difference",
			Match: func(s string) bool {
				return containsAny(s, "hp difference", "difference in hp",
					"diferenca do hp", "diferença do hp", "diferenca de hp", "diferença de hp")
			},
			Render: renderHPDifference,
		},
		{
			Name: "hp_only",
			Match: func(s string) bool {
				return containsAny(s, "only hp", "apenas hp") || s == "hp"
			},
			Render: histogramRule("Distribuição de HP", hpColumns),
		},
		{
			Name: "attack_only",
			Match: func(s string) bool {
				return containsAny(s, "only attack", "apenas ataque") || equalsAny(s, "attack", "ataque")
			},
			Render: histogramRule("Distribuição de Ataque", attackColumns),
		},
		{
			Name: "defense_only",
			Match: func(s string) bool {
				return containsAny(s, "only defense", "apenas defesa") || equalsAny(s, "defense", "defesa")
			},
			Render: histogramRule("Distribuição de Defesa", defenseColumns),
		},
		{
			Name: "all_stats",
			Match: func(s string) bool {
				return containsAny(s, "all stats", "all attributes", "todos os stats", "todos os atributos")
			},
			Render: renderAllStats,
		},
	}
}

func missing(names []string) error {
	return fmt.Errorf("%w: '%s'", ErrMissingColumn, names[0])
}

func renderHPDifference(t Table) (*plot.Plot, error) {
	hpIdx, okHP := t.Index(hpColumns...)
	priorIdx, okPrior := t.Index(priorHPColumns...)
	if !okHP || !okPrior {
		return nil, fmt.Errorf("%w: 'HP' ou 'HP_anterior' para calcular a diferença de HP", ErrMissingColumn)
	}

	current := t.Numbers(hpIdx)
	prior := t.Numbers(priorIdx)
	diffs := make([]float64, len(current))
	labels := make([]string, len(current))
	for i := range current {
		diffs[i] = current[i] - prior[i]
		labels[i] = strconv.Itoa(i)
	}

	return barPanel("Diferença de HP", "", "Diferença de HP", labels, diffs)
}

func histogramRule(title string, aliases []string) func(Table) (*plot.Plot, error) {
	return func(t Table) (*plot.Plot, error) {
		idx, ok := t.Index(aliases...)
		if !ok {
			return nil, missing(aliases)
		}
		if len(t.Rows) == 0 {
			return nil, fmt.Errorf("%w: '%s' sem valores", ErrMissingColumn, t.Columns[idx])
		}
		return histogramPanel(title, t.Columns[idx], t.Numbers(idx))
	}
}

func renderAllStats(t Table) (*plot.Plot, error) {
	var (
		names  []string
		series [][]float64
	)
	for _, aliases := range [][]string{hpColumns, attackColumns, defenseColumns, spAttackColumns, spDefenseColumns, speedColumns} {
		if idx, ok := t.Index(aliases...); ok {
			names = append(names, t.Columns[idx])
			series = append(series, t.Numbers(idx))
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: nenhuma coluna de atributo comum (HP, Ataque, Defesa, etc.)", ErrMissingColumn)
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: atributos sem valores", ErrMissingColumn)
	}

	return boxPanel("Distribuição de Todos os Atributos", names, series)
}
