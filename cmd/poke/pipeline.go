package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cli"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/pipeline"
)

func pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Fetch the catalog and build the reports",
		Long: `Fetch the Pokémon catalog (network, cache or synthetic sample), build the
CSV report, the type chart and the consolidated text report, and index the
report for the chat.`,
		RunE: runPipeline,
	}

	cmd.Flags().Int("count", 0, "number of Pokémon to fetch (default from config)")
	cmd.Flags().Bool("no-cache", false, "ignore the local cache")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	if count, _ := cmd.Flags().GetInt("count"); count > 0 {
		cfg.API.Count = count
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	handler := cli.NewInterruptHandler(cmd.OutOrStdout(), "Pipeline interrompido.")
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle("Executando o pipeline de ETL..."))

	var progress io.Writer = os.Stderr
	if noProgress {
		progress = nil
	}

	runner := newRunner(store, progress)
	res, err := runner.Run(ctx)
	if err != nil {
		return common.NewUserError("Erro ao executar o pipeline. Veja o log para detalhes.", err)
	}

	if res.Records == 0 {
		fmt.Fprintln(out, cli.FormatWarning("Nenhum dado foi obtido. Pipeline encerrado sem relatórios."))
		return nil
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Pipeline concluído em %s: %d Pokémon processados.", res.Duration.Round(time.Millisecond), res.Records)))
	fmt.Fprintln(out, cli.FormatInfo("CSV: "+res.Outputs.CSVPath))
	fmt.Fprintln(out, cli.FormatInfo("Gráfico: "+res.Outputs.ChartPath))
	fmt.Fprintln(out, cli.FormatInfo("Relatório: "+res.Outputs.ReportPath))
	if res.State == pipeline.StateDone && res.Documents > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Documentos indexados para o chat: %d", res.Documents)))
	}
	return nil
}
