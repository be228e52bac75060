package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusd/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored focus sessions",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryDeleteCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList(limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Sessions) == 0 {
					fmt.Fprintln(stdout, "No stored sessions")
					return nil
				}

				rows := make([][]string, 0, len(resp.Sessions))
				for _, sess := range resp.Sessions {
					goal := ""
					if sess.Goal != nil {
						goal = sess.Goal.Description
					}
					rows = append(rows, []string{
						sess.ID,
						sess.StartTime.Local().Format("2006-01-02 15:04"),
						formatSeconds(sess.TotalFocusTime),
						titleCase(sess.Status),
						goal,
					})
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"ID", "Started", "Focus Time", "Status", "Goal"},
					rows,
					"Focus Time",
				))
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list (0 for all)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one stored session in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryShow(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				printStoredSession(cmd.OutOrStdout(), resp.Session, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.HistoryDelete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
				return nil
			})
		},
	}
}

func printStoredSession(stdout io.Writer, sess ipc.SessionInfo, colorize bool) {
	fmt.Fprintln(stdout, renderSectionHeader("Session "+sess.ID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Status", statusKindForSession(sess.Status), titleCase(sess.Status), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, sess.StartTime.Local().Format(time.RFC1123), colorize))
	if sess.EndTime != nil {
		fmt.Fprintln(stdout, renderStatusLine("Ended", statusInfo, sess.EndTime.Local().Format(time.RFC1123), colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Focus time", statusInfo, formatSeconds(sess.TotalFocusTime), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Webcam", statusInfo, yesNo(sess.WebcamEnabled), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Screen", statusInfo, yesNo(sess.ScreenEnabled), colorize))
	if sess.Goal != nil {
		detail := sess.Goal.Description
		kind := statusInfo
		if sess.Goal.Completed {
			detail += " (completed)"
			kind = statusOK
		} else if sess.Goal.TargetDuration > 0 {
			detail += fmt.Sprintf(" (target %s)", formatSeconds(sess.Goal.TargetDuration))
		}
		fmt.Fprintln(stdout, renderStatusLine("Goal", kind, detail, colorize))
	}
	if strings.TrimSpace(sess.Summary) != "" {
		fmt.Fprintln(stdout, renderStatusLine("Summary", statusInfo, sess.Summary, colorize))
	}

	if len(sess.Logs) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, renderSectionHeader("Activity Log", colorize))
		fmt.Fprint(stdout, renderLogTable(sess.Logs))
		fmt.Fprintln(stdout)
	}
}

func statusKindForSession(status string) statusKind {
	switch status {
	case "completed":
		return statusOK
	case "paused":
		return statusWarn
	default:
		return statusInfo
	}
}
