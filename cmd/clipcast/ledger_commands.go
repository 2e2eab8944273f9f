package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the relayed-item ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List items the relay has already published",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(quietLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			ledger, _ := store.Load(cmd.Context())
			entries := ledger.Entries()
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}

			// Plain output when piped, a table on a terminal.
			if file, ok := out.(*os.File); !ok || !isatty.IsTerminal(file.Fd()) {
				for _, entry := range entries {
					fmt.Fprintf(out, "%s\t%s\t%s\n", entry.ID, entry.Name, entry.UploadedAt.Format(time.RFC3339))
				}
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.ID, entry.Name, entry.UploadedAt.Format(time.RFC3339)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "NAME", "UPLOADED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d items relayed\n", len(entries))
			return nil
		},
	}
}

// quietLogger keeps state-store warnings out of inspection command output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
