package report

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// Summary holds the headline numbers of a run.
type Summary struct {
	Total       int
	UniqueTypes int
	Strong      int
	Medium      int
	Weak        int
	MeanHP      float64
	MeanAttack  float64
	MeanDefense float64
}

// Summarize computes the run summary from the working table and type counts.
func Summarize(rows model.Table, counts []model.TypeCount) Summary {
	s := Summary{Total: len(rows), UniqueTypes: len(counts)}
	if len(rows) == 0 {
		return s
	}

	var hp, attack, defense int64
	for _, r := range rows {
		switch r.Category {
		case model.CategoryStrong:
			s.Strong++
		case model.CategoryMedium:
			s.Medium++
		default:
			s.Weak++
		}
		hp += int64(r.HP)
		attack += int64(r.Attack)
		defense += int64(r.Defense)
	}

	n := decimal.NewFromInt(int64(len(rows)))
	s.MeanHP = decimal.NewFromInt(hp).DivRound(n, 1).InexactFloat64()
	s.MeanAttack = decimal.NewFromInt(attack).DivRound(n, 1).InexactFloat64()
	s.MeanDefense = decimal.NewFromInt(defense).DivRound(n, 1).InexactFloat64()
	return s
}

// Log writes the summary as one structured record.
func (s Summary) Log(logger *slog.Logger) {
	logger.Info("Report summary",
		"total", s.Total,
		"unique_types", s.UniqueTypes,
		"strong", s.Strong,
		"medium", s.Medium,
		"weak", s.Weak,
		"mean_hp", s.MeanHP,
		"mean_attack", s.MeanAttack,
		"mean_defense", s.MeanDefense)
}
