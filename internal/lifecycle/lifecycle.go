package lifecycle

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/logger"
)

// State 进程生命周期状态
type State int32

const (
	StateStarting State = iota
	StateConnecting
	StateReady
	StateDegraded
)

// String 状态名称
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Serving 是否可以对外提供服务（degraded 仍可处理请求）
func (s State) Serving() bool {
	return s == StateReady || s == StateDegraded
}

// Snapshot 当前状态快照
type Snapshot struct {
	State     string            `json:"state"`
	ChangedAt time.Time         `json:"changed_at"`
	LastError string            `json:"last_error,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Tracker 进程状态记录
type Tracker struct {
	state atomic.Int32

	mu        sync.RWMutex
	changedAt time.Time
	lastError string
	checks    map[string]string
}

// NewTracker 创建状态记录，初始为 starting
func NewTracker() *Tracker {
	t := &Tracker{changedAt: time.Now().UTC(), checks: map[string]string{}}
	t.state.Store(int32(StateStarting))
	return t
}

// State 当前状态
func (t *Tracker) State() State {
	return State(t.state.Load())
}

// Set 切换状态；状态未变化时只刷新错误信息
func (t *Tracker) Set(next State, reason error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := State(t.state.Swap(int32(next)))
	if reason != nil {
		t.lastError = reason.Error()
	} else if next == StateReady {
		t.lastError = ""
	}
	if prev != next {
		t.changedAt = time.Now().UTC()
		logger.Infow("lifecycle_state_changed", "from", prev.String(), "to", next.String(), "reason", t.lastError)
	}
}

// Snapshot 返回当前状态快照
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	checks := make(map[string]string, len(t.checks))
	for k, v := range t.checks {
		checks[k] = v
	}
	return Snapshot{
		State:     t.State().String(),
		ChangedAt: t.changedAt,
		LastError: t.lastError,
		Checks:    checks,
	}
}

func (t *Tracker) recordChecks(checks map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checks = checks
}
