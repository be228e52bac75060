package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusd/internal/ipc"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the active focus session",
	}

	sessionCmd.AddCommand(newSessionStartCommand(ctx))
	sessionCmd.AddCommand(newSessionEndCommand(ctx))
	sessionCmd.AddCommand(newSessionStatusCommand(ctx))
	sessionCmd.AddCommand(newSessionLogCommand(ctx))

	return sessionCmd
}

func newSessionStartCommand(ctx *commandContext) *cobra.Command {
	var goal string
	var targetMinutes int
	var webcam bool
	var screen bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetMinutes < 0 {
				return fmt.Errorf("target minutes must not be negative")
			}
			if targetMinutes > 0 && strings.TrimSpace(goal) == "" {
				return fmt.Errorf("a goal description is required when a target is set")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionStart(ipc.SessionStartRequest{
					Webcam:             webcam,
					Screen:             screen,
					GoalDescription:    strings.TrimSpace(goal),
					GoalTargetDuration: int64(targetMinutes) * 60,
				})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Session started: %s\n", resp.SessionID)
				if strings.TrimSpace(goal) != "" {
					fmt.Fprintf(stdout, "Goal: %s\n", strings.TrimSpace(goal))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&goal, "goal", "g", "", "Goal description for this session")
	cmd.Flags().IntVarP(&targetMinutes, "target", "t", 0, "Goal target in minutes of focused time")
	cmd.Flags().BoolVar(&webcam, "webcam", true, "Enable webcam presence monitoring")
	cmd.Flags().BoolVar(&screen, "screen", true, "Enable periodic screen audits")
	return cmd
}

func newSessionEndCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the active focus session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionEnd()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session ended: %s\n", resp.SessionID)
				fmt.Fprintf(cmd.OutOrStdout(), "View it with `focusctl history show %s`\n", resp.SessionID)
				return nil
			})
		},
	}
}

func newSessionStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionStatus()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				printSnapshot(stdout, resp.Session, shouldColorize(stdout))
				return nil
			})
		},
	}
}

func newSessionLogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the active session's activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionLog()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(stdout, "No activity recorded yet")
					return nil
				}
				fmt.Fprint(stdout, renderLogTable(resp.Entries))
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}
}

func renderLogTable(entries []ipc.LogEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			time.UnixMilli(entry.Timestamp).Local().Format("15:04:05"),
			titleCase(entry.Category),
			formatSeconds(entry.Duration),
			entry.Reasoning,
		})
	}
	return renderTable(
		[]string{"Time", "Category", "Duration", "Reasoning"},
		rows,
		"Duration",
	)
}
