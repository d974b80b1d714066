// Package transform turns raw records into the working table and computes
// the aggregate views used by the reports.
package transform

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// TypeSeparator joins the type names of a row.
const TypeSeparator = ", "

// MissingName replaces an absent record name.
const MissingName = "N/A"

// Transform normalizes raw records, keeping their order. Missing fields
// default to zero values and never cause an error.
func Transform(records []model.RawRecord) model.Table {
	table := make(model.Table, 0, len(records))
	for _, rec := range records {
		table = append(table, normalize(rec))
	}
	return table
}

func normalize(rec model.RawRecord) model.Row {
	experience := 0
	if rec.BaseExperience != nil && *rec.BaseExperience > 0 {
		experience = *rec.BaseExperience
	}

	hp, _ := rec.Stat(model.StatHP)
	attack, _ := rec.Stat(model.StatAttack)
	defense, _ := rec.Stat(model.StatDefense)

	return model.Row{
		ID:             rec.ID,
		Name:           capitalize(rec.Name),
		Types:          strings.Join(rec.TypeNames(), TypeSeparator),
		BaseExperience: experience,
		HP:             max(hp, 0),
		Attack:         max(attack, 0),
		Defense:        max(defense, 0),
		Category:       model.CategoryFor(experience),
	}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(name string) string {
	if name == "" {
		return MissingName
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

// SplitTypes returns the individual type names of a row.
func SplitTypes(types string) []string {
	parts := strings.Split(types, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GroupCounts counts rows per type, a row with two types counting once for
// each. The result is ordered by count descending, ties keeping the order in
// which the types first appear.
func GroupCounts(table model.Table) []model.TypeCount {
	index := map[string]int{}
	counts := []model.TypeCount{}

	for _, row := range table {
		for _, t := range SplitTypes(row.Types) {
			if i, ok := index[t]; ok {
				counts[i].Count++
				continue
			}
			index[t] = len(counts)
			counts = append(counts, model.TypeCount{Type: t, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

type statSums struct {
	hp, attack, defense int
	n                   int
}

// GroupAverages computes the per-type mean of HP, Attack and Defense rounded
// to one decimal, sorted by type name.
func GroupAverages(table model.Table) []model.TypeAverage {
	sums := map[string]*statSums{}
	for _, row := range table {
		for _, t := range SplitTypes(row.Types) {
			s, ok := sums[t]
			if !ok {
				s = &statSums{}
				sums[t] = s
			}
			s.hp += row.HP
			s.attack += row.Attack
			s.defense += row.Defense
			s.n++
		}
	}

	averages := make([]model.TypeAverage, 0, len(sums))
	for t, s := range sums {
		averages = append(averages, model.TypeAverage{
			Type:    t,
			HP:      mean(s.hp, s.n),
			Attack:  mean(s.attack, s.n),
			Defense: mean(s.defense, s.n),
		})
	}

	sort.Slice(averages, func(i, j int) bool {
		return averages[i].Type < averages[j].Type
	})
	return averages
}

// mean divides exactly and rounds half away from zero to one decimal.
func mean(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(total)).
		DivRound(decimal.NewFromInt(int64(n)), 1).
		InexactFloat64()
}

// TopNByExperience returns the n rows with the highest base experience. Rows
// with equal experience keep their table order.
func TopNByExperience(table model.Table, n int) model.Table {
	if n <= 0 {
		return model.Table{}
	}

	sorted := make(model.Table, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BaseExperience > sorted[j].BaseExperience
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
