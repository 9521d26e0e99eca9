package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var history int

	cmd := &cobra.Command{
		Use:   "status <conversation-id>",
		Short: "Show the reconciled generation status of a mystery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseConversationID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.ensureApp(nil)
			if err != nil {
				return err
			}
			st := a.Services.Reconciler.Reconcile(cmd.Context(), id)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(st))
			if history > 0 {
				rows, err := a.Repos.GenerationJob.ListByConversation(dbctx.Context{Ctx: cmd.Context()}, id, history)
				if err != nil {
					return fmt.Errorf("list generation jobs: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderHistory(rows))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().IntVar(&history, "history", 0, "Also list up to N stored job rows, newest first")
	return cmd
}
