package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pinger is implemented by every dependency the monitor probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type check struct {
	name     string
	pinger   Pinger
	required bool
}

// Monitor probes registered dependencies on a cron schedule and caches the result.
type Monitor struct {
	checks   []check
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := 3 * time.Second
	if interval < timeout {
		timeout = interval
	}
	return &Monitor{
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		status:   Status{Services: map[string]bool{}},
	}
}

// Register adds a dependency. Required dependencies decide IsOnline. Register before Start.
func (m *Monitor) Register(name string, pinger Pinger, required bool) {
	if pinger == nil {
		return
	}
	m.checks = append(m.checks, check{name: name, pinger: pinger, required: required})
}

// Start probes once synchronously and then on every interval.
func (m *Monitor) Start() error {
	m.Refresh(context.Background())
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.interval), func() {
		m.Refresh(context.Background())
	}); err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

// Stop waits for a running probe to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status.LastCheck.IsZero() {
		return false
	}
	for _, c := range m.checks {
		if c.required && !m.status.Services[c.name] {
			return false
		}
	}
	return true
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.clone()
}

// Refresh probes every dependency and replaces the cached status.
func (m *Monitor) Refresh(ctx context.Context) {
	services := make(map[string]bool, len(m.checks))
	for _, c := range m.checks {
		pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := c.pinger.Ping(pingCtx)
		cancel()

		services[c.name] = err == nil
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("service", c.name), zap.Error(err))
		}
	}

	m.mu.Lock()
	previous := m.status.Services
	m.status = Status{Services: services, LastCheck: time.Now()}
	m.mu.Unlock()

	for name, ok := range services {
		if was, seen := previous[name]; seen && was != ok {
			m.logger.Info("dependency status changed", zap.String("service", name), zap.Bool("online", ok))
		}
	}
}
