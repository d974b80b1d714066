package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cli"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
)

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <file> [instruction...]",
		Short: "Draw a chart from a CSV or JSON file",
		Long: `Draw a chart from a CSV or JSON file. The optional instruction picks a
specialized chart, for example "apenas hp", "diferenca do hp" or "todos os atributos".
Without one, or when it does not apply, the first two columns are projected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPlot,
	}

	cmd.Flags().String("kind", "bar", "projection kind: bar, pie or line (barras, pizza, linha)")
	cmd.Flags().String("out", "", "output PNG path (default: timestamped file in chart.dir)")
	cmd.Flags().String("title", "", "chart title")

	return cmd
}

func runPlot(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("kind")
	out, _ := cmd.Flags().GetString("out")
	title, _ := cmd.Flags().GetString("title")

	payload, err := report.LoadPayload(args[0])
	if errors.Is(err, report.ErrUnsupportedFile) {
		return common.NewUserError("Formato de arquivo não suportado. Use .csv ou .json", err)
	}
	if err != nil {
		return err
	}

	path, err := newChartMaker().AutoChart(payload, report.ChartOptions{
		Kind:        report.ParseKind(kind),
		Title:       title,
		Instruction: strings.Join(args[1:], " "),
		OutputPath:  out,
	})
	if err != nil {
		return common.NewUserError("Não foi possível gerar o gráfico.", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(cli.ChartIcon+" Gráfico gerado e salvo em: "+path))
	return nil
}
