package visitor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultIdleTimeout is how long an untouched session survives before its
// controller is evicted. Kiosk devices poll while a page is open, so an
// idle session means the visitor walked away.
const defaultIdleTimeout = 30 * time.Minute

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout overrides the idle eviction threshold.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idle = d
		}
	}
}

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Manager hands out one controller per device and client code, so the
// debounce gate and fetched entity survive across requests from the same
// kiosk device. Sessions idle past the timeout are swept out and closed.
type Manager struct {
	api   ContentAPI
	log   *zap.Logger
	quiet time.Duration
	idle  time.Duration

	mu       sync.Mutex
	sessions map[string]*session

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager builds a controller registry and starts its eviction sweep.
// quiet configures the debounce period for all controllers.
func NewManager(api ContentAPI, log *zap.Logger, quiet time.Duration, opts ...ManagerOption) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		api:      api,
		log:      log,
		quiet:    quiet,
		idle:     defaultIdleTimeout,
		sessions: map[string]*session{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.sweep()
	return m
}

// Acquire returns the controller for (deviceID, clientCode), creating it on
// first use and marking the session fresh.
func (m *Manager) Acquire(deviceID, clientCode string) *Controller {
	key := deviceID + "|" + clientCode
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.lastSeen = time.Now()
		return s.ctrl
	}
	c := NewController(clientCode, m.api, m.log, WithQuietPeriod(m.quiet))
	m.sessions[key] = &session{ctrl: c, lastSeen: time.Now()}
	return c
}

func (m *Manager) sweep() {
	period := m.idle / 4
	if period < 10*time.Millisecond {
		period = 10 * time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-t.C:
			m.evictIdle(now)
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	var expired []*Controller
	m.mu.Lock()
	for key, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.idle {
			delete(m.sessions, key)
			expired = append(expired, s.ctrl)
		}
	}
	m.mu.Unlock()
	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		m.log.Debug("evicted idle sessions", zap.Int("count", len(expired)))
	}
}

// Close stops the sweep and releases every controller.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*session{}
	m.mu.Unlock()
	for _, s := range sessions {
		s.ctrl.Close()
	}
}
