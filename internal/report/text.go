package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
)

// Consolidated report section headers.
const (
	reportRule         = "========================================"
	reportHeading      = "    RELATÓRIO DE ANÁLISE POKÉMON      "
	topSectionHeader   = "--- Top 5 Pokémon com Maior Experiência Base ---"
	averageSectionHead = "--- Média de Atributos por Tipo ---"
)

// Artifacts names the files referenced by the consolidated report.
type Artifacts struct {
	ChartPath string
	CSVPath   string
}

// RenderTable lays out headers and rows as a bordered plain-text table.
func RenderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

// ConsolidatedText builds the text of the consolidated report.
func ConsolidatedText(top model.Table, averages []model.TypeAverage, artifacts Artifacts) string {
	topRows := make([][]string, 0, len(top))
	for _, r := range top {
		topRows = append(topRows, []string{
			strconv.Itoa(r.ID), r.Name, r.Types, strconv.Itoa(r.BaseExperience),
			strconv.Itoa(r.HP), strconv.Itoa(r.Attack), strconv.Itoa(r.Defense), string(r.Category),
		})
	}

	avgRows := make([][]string, 0, len(averages))
	for _, a := range averages {
		avgRows = append(avgRows, []string{
			a.Type,
			strconv.FormatFloat(a.HP, 'f', 1, 64),
			strconv.FormatFloat(a.Attack, 'f', 1, 64),
			strconv.FormatFloat(a.Defense, 'f', 1, 64),
		})
	}

	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString(reportHeading + "\n")
	b.WriteString(reportRule + "\n\n")
	b.WriteString(topSectionHeader + "\n")
	b.WriteString(RenderTable(Columns, topRows))
	b.WriteString("\n\n")
	b.WriteString(averageSectionHead + "\n")
	b.WriteString(RenderTable([]string{"Tipo", ColHP, ColAttack, ColDefense}, avgRows))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Gráfico de distribuição por tipo salvo em: %s\n", artifacts.ChartPath)
	fmt.Fprintf(&b, "Dados completos salvos em: %s\n", artifacts.CSVPath)
	return b.String()
}

// WriteConsolidated writes the consolidated report to path.
func WriteConsolidated(top model.Table, averages []model.TypeAverage, artifacts Artifacts, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	content := ConsolidatedText(top, averages, artifacts)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
