package daemon

import (
	"context"
	"sort"
	"strings"
	"sync"

	"log/slog"

	"github.com/pilebones/go-udev/netlink"

	"hindsight/internal/config"
	"hindsight/internal/logging"
)

// hotplugMonitor listens for udev netlink events on the video4linux
// subsystem and tracks which capture devices are attached. The daemon
// surfaces the device list on the status endpoint so operators can see a
// camera drop without digging through kernel logs.
type hotplugMonitor struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
	devices map[string]struct{}
}

// newHotplugMonitor creates a monitor for camera attach/detach events.
// Returns nil when hotplug monitoring is disabled in the config.
func newHotplugMonitor(cfg *config.Config, logger *slog.Logger) *hotplugMonitor {
	if cfg == nil || !cfg.Source.HotplugMonitor {
		return nil
	}
	return &hotplugMonitor{
		logger:  logging.NewComponentLogger(logger, "hotplug-monitor"),
		devices: make(map[string]struct{}),
	}
}

// Start begins listening for udev netlink events.
func (m *hotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; camera hotplug tracking unavailable",
			logging.Error(err),
		)
		return nil // Non-fatal, the pipeline runs without attach tracking
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Pass quit channel to goroutine to avoid reading m.quit without lock
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("hotplug monitor started")
	return nil
}

// Stop shuts down the hotplug monitor.
func (m *hotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped")
}

// Running reports whether the hotplug monitor is active.
func (m *hotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Devices returns the currently attached capture devices, sorted.
func (m *hotplugMonitor) Devices() []string {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.devices))
	for dev := range m.devices {
		out = append(out, dev)
	}
	sort.Strings(out)
	return out
}

// monitorLoop reads netlink events and maintains the attached-device set.
func (m *hotplugMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("hotplug monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches video4linux add/remove events.
func (m *hotplugMonitor) buildMatcher() netlink.Matcher {
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

// handleEvent processes a matched uevent.
func (m *hotplugMonitor) handleEvent(uevent netlink.UEvent) {
	devname := m.extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	m.mu.Lock()
	switch uevent.Action {
	case netlink.ADD:
		m.devices[devname] = struct{}{}
	case netlink.REMOVE:
		delete(m.devices, devname)
	}
	attached := len(m.devices)
	m.mu.Unlock()

	m.logger.Info("camera hotplug event",
		logging.String("action", string(uevent.Action)),
		logging.String("device", devname),
		logging.Int("attached", attached),
	)
}

// extractDeviceName pulls the /dev path from a uevent.
func (m *hotplugMonitor) extractDeviceName(uevent netlink.UEvent) string {
	devname := strings.TrimSpace(uevent.Env["DEVNAME"])
	if devname == "" {
		return ""
	}
	if !strings.HasPrefix(devname, "/dev/") {
		devname = "/dev/" + devname
	}
	return devname
}
