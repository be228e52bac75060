package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"focusd/internal/daemonctl"
	"focusd/internal/ipc"
	"focusd/internal/logging"
	"focusd/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveLogPath(ctx)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()

			tail, offset, err := logtail.Last(path, lines)
			if err != nil {
				return err
			}
			if len(tail) == 0 && !follow {
				fmt.Fprintf(stdout, "No log output at %s\n", path)
				return nil
			}
			for _, line := range tail {
				fmt.Fprintln(stdout, line)
			}
			if !follow {
				return nil
			}

			followCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			err = logtail.Follow(followCtx, path, offset, func(line string) {
				fmt.Fprintln(stdout, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	return cmd
}

// resolveLogPath asks the daemon for its log file when reachable, falling
// back to the configured log dir.
func resolveLogPath(ctx *commandContext) (string, error) {
	reachable, _, err := daemonctl.ProcessInfo(ctx.socketPath())
	if err == nil && reachable {
		var path string
		clientErr := ctx.withClient(func(client *ipc.Client) error {
			status, err := client.Status()
			if err != nil {
				return err
			}
			path = status.LogPath
			return nil
		})
		if clientErr == nil && path != "" {
			return path, nil
		}
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.Paths.LogDir, logging.LogFileName), nil
}
