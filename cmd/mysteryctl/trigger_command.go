package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/mysteryparty-backend/internal/config"
	"github.com/yungbote/mysteryparty-backend/internal/services"
)

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	var testMode bool

	cmd := &cobra.Command{
		Use:   "trigger <conversation-id>",
		Short: "Start or resume package generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseConversationID(args[0])
			if err != nil {
				return err
			}
			testModeSet := cmd.Flags().Changed("test-mode")
			a, err := ctx.ensureApp(func(cfg *config.Config) {
				if testModeSet {
					cfg.Generation.TestMode = testMode
				}
			})
			if err != nil {
				return err
			}
			if a.Services.Trigger == nil {
				return errors.New("GENERATION_WEBHOOK_URL is not configured")
			}
			res, err := a.Services.Trigger.StartOrResume(cmd.Context(), id, services.TriggerOptions{})
			out := cmd.OutOrStdout()
			if res.Outcome != "" {
				fmt.Fprintf(out, "Outcome: %s\n", res.Outcome)
			}
			fmt.Fprintln(out, renderStatus(res.Status))
			return err
		},
	}
	cmd.Flags().BoolVar(&testMode, "test-mode", false, "Ask the generation service for a test-mode package")
	return cmd
}
