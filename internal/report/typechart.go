package report

import (
	"fmt"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/metrics"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// TypeChartTitle is the title of the type distribution chart.
const TypeChartTitle = "Quantidade de Pokémon por Tipo"

// TypeCountChart draws one bar per type, in counts order, and saves it to path.
func (r Renderer) TypeCountChart(counts []model.TypeCount, path string) error {
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = c.Type
		values[i] = float64(c.Count)
	}

	p, err := barPanel(TypeChartTitle, "Tipos de Pokémon", "Quantidade", labels, values)
	if err != nil {
		return fmt.Errorf("failed to build type chart: %w", err)
	}

	if err := r.Save(path, p); err != nil {
		metrics.ChartsRendered.WithLabelValues(string(KindBar), metrics.OutcomeFailure).Inc()
		return err
	}
	metrics.ChartsRendered.WithLabelValues(string(KindBar), metrics.OutcomeSuccess).Inc()
	return nil
}
