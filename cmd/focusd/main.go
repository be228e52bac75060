// Command focusd runs the focus-tracking daemon: it owns the session store,
// the live session controller, and the IPC socket the focusctl CLI talks to.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focusd/internal/capture"
	"focusd/internal/config"
	"focusd/internal/daemon"
	"focusd/internal/ipc"
	"focusd/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var socketFlag string

	cmd := &cobra.Command{
		Use:           "focusd",
		Short:         "Focus-tracking daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFlag, socketFlag)
		},
	}
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&socketFlag, "socket", "", "IPC socket path override")
	return cmd
}

func run(configPath, socketPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if socket := strings.TrimSpace(socketPath); socket != "" {
		cfg.Paths.SocketPath = socket
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("daemon startup failed", logging.Error(err))
		return err
	}

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, cancel, logger)
	if err != nil {
		logger.Error("start IPC server failed", logging.Error(err))
		closeDaemon(d, logger)
		return err
	}
	ipcServer.Serve()

	var hotplug *capture.HotplugWatcher
	if cfg.Capture.HotplugEnabled {
		hotplug = capture.NewHotplugWatcher(cfg.Capture.WebcamDevice, logger, func(event capture.HotplugEvent) {
			if event.Removed {
				logger.Warn("webcam disconnected",
					logging.String("device", event.Device),
					logging.String(logging.FieldEventType, "webcam_disconnected"),
					logging.String(logging.FieldImpact, "presence monitoring will miss frames until the device returns"))
				return
			}
			logger.Info("webcam connected",
				logging.String("device", event.Device),
				logging.String(logging.FieldEventType, "webcam_connected"))
		})
		if err := hotplug.Start(ctx); err != nil {
			logger.Warn("hotplug monitoring unavailable", logging.Error(err))
		}
	}

	logger.Info("focusd running",
		logging.String("socket", cfg.Paths.SocketPath),
		logging.Int("pid", os.Getpid()))

	<-ctx.Done()
	logger.Info("focusd shutting down")

	if hotplug != nil {
		hotplug.Stop()
	}
	ipcServer.Close()
	closeDaemon(d, logger)
	return nil
}

func closeDaemon(d *daemon.Daemon, logger *slog.Logger) {
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.Close(closeCtx); err != nil {
		logger.Warn("daemon close", logging.Error(err))
	}
}
