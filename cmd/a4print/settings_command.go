package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"a4print/internal/config"
	"a4print/internal/lifecycle"
	"a4print/internal/queue"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change saved settings",
	}
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "background [on|off]",
		Short: "Show or change whether exports keep running in the background",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				presence, err := lifecycle.NewPresence(commandCtx(cmd), store, cfg.Lifecycle.ExportInBackground)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					enabled, err := parseOnOff(args[0])
					if err != nil {
						return err
					}
					if err := presence.SetExportInBackground(commandCtx(cmd), enabled); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Export in background: %s\n", onOff(presence.ExportInBackground()))
				return nil
			})
		},
	})
	return settingsCmd
}
