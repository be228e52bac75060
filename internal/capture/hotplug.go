package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"focusd/internal/logging"
)

// HotplugEvent reports a webcam device appearing or disappearing.
type HotplugEvent struct {
	Device  string
	Removed bool
}

// HotplugWatcher listens for udev netlink events on the video4linux
// subsystem and reports connect/disconnect of the configured webcam device.
type HotplugWatcher struct {
	logger  *slog.Logger
	device  string
	handler func(HotplugEvent)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewHotplugWatcher creates a watcher for the given device path. The handler
// is invoked from the watcher goroutine for every matching event.
func NewHotplugWatcher(device string, logger *slog.Logger, handler func(HotplugEvent)) *HotplugWatcher {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HotplugWatcher{
		logger:  logging.NewComponentLogger(logger, "hotplug-watcher"),
		device:  device,
		handler: handler,
	}
}

// Start begins listening for udev events. Failure to open the netlink socket
// is non-fatal: presence monitoring still works, it just cannot react to the
// webcam being unplugged mid-session.
func (w *HotplugWatcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("failed to connect to netlink socket; webcam hotplug detection unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "unplugged webcam will surface as grab failures instead"),
		)
		return nil
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.watchLoop(ctx, quit)

	w.logger.Info("hotplug watcher started",
		logging.String(logging.FieldEventType, "hotplug_watcher_started"),
		logging.String("device", w.device),
	)
	return nil
}

// Stop shuts down the watcher.
func (w *HotplugWatcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false

	w.logger.Info("hotplug watcher stopped",
		logging.String(logging.FieldEventType, "hotplug_watcher_stopped"))
}

// Running reports whether the watcher is active.
func (w *HotplugWatcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *HotplugWatcher) watchLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, videoMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(uevent)
		case err := <-errs:
			w.logger.Warn("hotplug watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "hotplug_watcher_error"),
			)
		}
	}
}

// videoMatcher matches add/remove events on the video4linux subsystem.
func videoMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (w *HotplugWatcher) handleEvent(uevent netlink.UEvent) {
	devname := extractDeviceName(uevent)
	if devname == "" {
		return
	}
	if devname != w.device {
		w.logger.Debug("ignoring event for non-configured device",
			logging.String("device", devname),
			logging.String("configured_device", w.device),
		)
		return
	}

	removed := uevent.Action == netlink.REMOVE
	w.logger.Info("webcam hotplug event",
		logging.String(logging.FieldEventType, "webcam_hotplug"),
		logging.String("device", devname),
		logging.String("action", string(uevent.Action)),
	)
	if w.handler != nil {
		w.handler(HotplugEvent{Device: devname, Removed: removed})
	}
}

func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/dev/") {
			return "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return "/dev/" + parts[len(parts)-1]
}
