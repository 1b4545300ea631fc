package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"class360/internal/config"
	"class360/internal/logging"
)

// DeviceMonitor listens for udev netlink events and stops any recording
// session whose capture device disappears, so an unplugged camera never
// leaves a ghost session in the registry.
type DeviceMonitor struct {
	cfg        *config.Config
	logger     *slog.Logger
	supervisor *Supervisor
	onStopped  func(ctx context.Context, classroomID string, result *StopResult)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewDeviceMonitor creates a monitor bound to the supervisor. Returns nil
// when device monitoring is disabled in configuration.
func NewDeviceMonitor(
	cfg *config.Config,
	supervisor *Supervisor,
	logger *slog.Logger,
	onStopped func(ctx context.Context, classroomID string, result *StopResult),
) *DeviceMonitor {
	if cfg == nil || !cfg.Capture.DeviceMonitor {
		return nil
	}
	return &DeviceMonitor{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "device-monitor"),
		supervisor: supervisor,
		onStopped:  onStopped,
	}
}

// Start begins listening for udev netlink events. A connect failure is
// non-fatal: recordings still work, they just will not auto-stop on unplug.
func (m *DeviceMonitor) Start(ctx context.Context) error {
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
		m.logger.Warn("failed to connect to netlink socket; device removal will not auto-stop recordings",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("device monitor started",
		logging.String(logging.FieldEventType, "device_monitor_started"),
	)
	return nil
}

// Stop shuts down the device monitor.
func (m *DeviceMonitor) Stop() {
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
}

// Running reports whether the monitor is active.
func (m *DeviceMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *DeviceMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
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
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("device monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "device_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
			)
		}
	}
}

// buildMatcher matches video capture device removal:
// SUBSYSTEM=video4linux, ACTION=remove.
func (m *DeviceMonitor) buildMatcher() netlink.Matcher {
	action := "remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (m *DeviceMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := strings.TrimSpace(uevent.Env["DEVNAME"])
	if devname == "" {
		return
	}
	if !strings.HasPrefix(devname, "/dev/") {
		devname = "/dev/" + devname
	}

	classrooms := m.supervisor.ClassroomsUsing(devname)
	if len(classrooms) == 0 {
		return
	}

	for _, classroomID := range classrooms {
		m.logger.Warn("capture device removed, stopping recording",
			logging.String(logging.FieldClassroom, classroomID),
			logging.String("device", devname),
			logging.String(logging.FieldEventType, "capture_device_removed"),
		)
		result, err := m.supervisor.Stop(ctx, classroomID)
		if err != nil {
			m.logger.Warn("auto-stop after device removal failed",
				logging.String(logging.FieldClassroom, classroomID),
				logging.Error(err),
			)
			continue
		}
		if m.onStopped != nil {
			m.onStopped(ctx, classroomID, result)
		}
	}
}
