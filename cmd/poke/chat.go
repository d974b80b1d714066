package main

import (
	"github.com/spf13/cobra"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cli"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions about the report in the terminal",
		Long: `Start an interactive chat that answers questions about the generated report.

Commands inside the chat:
  /limpar                     clear history, chat data and charts
  /plot <file> [instruction]  draw a chart from a CSV or JSON file
  sair                        leave the chat`,
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
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

	session := cli.NewChatSession(assistant, newChartMaker(), cmd.InOrStdin(), cmd.OutOrStdout())
	return session.Run(ctx)
}
