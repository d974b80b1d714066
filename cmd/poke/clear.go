package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/cli"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/storage"
)

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear chat history, chat data and generated charts",
		RunE:  runClear,
	}

	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runClear(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Fprint(out, cli.FormatPrompt("Tem certeza que deseja limpar todo o contexto? (sim/não)"))
		answer, err := cli.NewLineReader(cmd.InOrStdin()).ReadLine(ctx)
		if err != nil || !cli.Confirmed(answer) {
			fmt.Fprintln(out, cli.FormatInfo("Operação cancelada."))
			return nil
		}
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if manager, err := storage.NewCheckpointManager(store); err == nil {
		if _, err := manager.AutoCheckpoint(ctx, "clear"); err != nil {
			slog.Warn("Failed to checkpoint chat history before clearing", "error", err)
		}
	}

	assistant, release, err := newAssistant(store)
	if err != nil {
		return err
	}
	defer release()

	if err := assistant.ClearContext(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess("Contexto limpo com sucesso!"))
	return nil
}
