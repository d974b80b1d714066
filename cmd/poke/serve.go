package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API used by the web frontend. It runs the pipeline, answers
chat questions and serves the generated report, chart and chat data.`,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 8001, "port to listen on")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ensureIndex(ctx, store)

	assistant, release, err := newAssistant(store)
	if err != nil {
		return err
	}
	defer release()

	srv := server.New(server.Config{
		CSVPath:        cfg.Output.CSVPath,
		ChartPath:      cfg.Output.ChartPath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Port:           cfg.Server.Port,
	}, newRunner(store, nil), assistant, nil)

	return srv.ListenAndServe(ctx)
}
