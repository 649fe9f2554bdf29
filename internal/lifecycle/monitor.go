package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// Probe 依赖探测
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Monitor 周期性探测依赖并推进进程状态
type Monitor struct {
	tracker  *Tracker
	probes   []Probe
	interval time.Duration
	timeout  time.Duration
}

// NewMonitor 创建健康探测服务
func NewMonitor(tracker *Tracker, interval, timeout time.Duration, probes ...Probe) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Monitor{tracker: tracker, probes: probes, interval: interval, timeout: timeout}
}

// Name 服务名称
func (m *Monitor) Name() string {
	return "health_monitor"
}

// Start 首次探测后按间隔循环，直到 ctx 结束
func (m *Monitor) Start(ctx context.Context) error {
	m.tracker.Set(StateConnecting, nil)
	m.ProbeOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.ProbeOnce(ctx)
		}
	}
}

// Stop 停止服务
func (m *Monitor) Stop(ctx context.Context) error {
	return nil
}

// ProbeOnce 执行一轮探测：全部通过为 ready，否则 degraded
func (m *Monitor) ProbeOnce(ctx context.Context) State {
	checks := make(map[string]string, len(m.probes))
	var firstErr error
	for _, probe := range m.probes {
		if probe.Check == nil {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := probe.Check(probeCtx)
		cancel()
		if err != nil {
			checks[probe.Name] = err.Error()
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", probe.Name, err)
			}
			continue
		}
		checks[probe.Name] = "ok"
	}
	m.tracker.recordChecks(checks)
	if firstErr != nil {
		m.tracker.Set(StateDegraded, firstErr)
		return StateDegraded
	}
	m.tracker.Set(StateReady, nil)
	return StateReady
}
