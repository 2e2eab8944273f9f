package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipcast/internal/state"
)

func newCursorCommand(ctx *commandContext) *cobra.Command {
	cursorCmd := &cobra.Command{
		Use:   "cursor",
		Short: "Inspect or reset the rotation cursor",
	}
	cursorCmd.AddCommand(newCursorShowCommand(ctx))
	cursorCmd.AddCommand(newCursorResetCommand(ctx))
	return cursorCmd
}

func newCursorShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the next rotation index",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(quietLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			_, cursor := store.Load(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Next rotation index: %d\n", cursor.NextIndex)
			return nil
		},
	}
}

func newCursorResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [index]",
		Short: "Reset the rotation cursor, optionally to a specific index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := 0
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed < 0 {
					return fmt.Errorf("index must be a non-negative integer, got %q", args[0])
				}
				index = parsed
			}

			store, err := ctx.openStore(quietLogger())
			if err != nil {
				return err
			}
			defer store.Close()

			ledger, _ := store.Load(cmd.Context())
			if err := store.Save(cmd.Context(), ledger, state.Cursor{NextIndex: index}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rotation cursor set to %d\n", index)
			return nil
		},
	}
}
