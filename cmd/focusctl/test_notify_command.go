package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focusd/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test push notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("daemon returned no notification result")
				}
				if !resp.Sent {
					return fmt.Errorf("notification not delivered: %s", resp.Message)
				}

				stdout := cmd.OutOrStdout()
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				} else {
					fmt.Fprintln(stdout, "Test notification sent")
				}
				if cfg, err := ctx.ensureConfig(); err == nil && strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
					fmt.Fprintln(stdout, "No ntfy topic is configured; set [notifications] ntfy_topic to receive pushes.")
				}
				return nil
			})
		},
	}
}
