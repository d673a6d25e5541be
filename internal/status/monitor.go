package status

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is how often the monitor re-reads the status file.
const DefaultInterval = 2 * time.Second

// subscriberBuffer is the number of undelivered snapshots a subscriber can
// hold before the oldest is dropped.
const subscriberBuffer = 16

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the monitor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// Monitor polls a Source on a fixed interval and publishes every snapshot
// that differs from the last published one. At most one polling loop runs
// at a time.
type Monitor struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	serverDir string
	current   Snapshot
	subs      map[int]chan Snapshot
	nextSubID int
}

// NewMonitor creates an idle Monitor reading from source.
func NewMonitor(source Source, opts ...Option) *Monitor {
	m := &Monitor{
		source:   source,
		interval: DefaultInterval,
		logger:   slog.Default(),
		subs:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins polling serverDir in the background. It is a no-op when the
// monitor is already running.
func (m *Monitor) Start(serverDir string) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	m.logger.Info("starting status monitor", "dir", serverDir, "interval", m.interval)
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.serverDir = serverDir
	go m.run(ctx, serverDir, m.done)
}

// Stop cancels the polling loop and waits for it to exit. Once Stop returns
// no further reads or deliveries happen. Calling Stop on an idle monitor is
// a no-op.
func (m *Monitor) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Info("status monitor stopped")
}

// IsMonitoring reports whether a polling loop is active.
func (m *Monitor) IsMonitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// ServerDir returns the directory of the current or last session.
func (m *Monitor) ServerDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serverDir
}

// Current returns the last published snapshot. It may be one tick stale.
func (m *Monitor) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe returns a channel that receives every published snapshot in poll
// order, and a function that unsubscribes and closes the channel. A slow
// subscriber loses its oldest pending snapshots rather than stalling the
// poll loop.
func (m *Monitor) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan Snapshot, subscriberBuffer)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

func (m *Monitor) run(ctx context.Context, serverDir string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var s session
	for {
		m.poll(ctx, serverDir, &s)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// session is the per-loop change detection state.
type session struct {
	last      Snapshot
	published bool
}

func (m *Monitor) poll(ctx context.Context, serverDir string, s *session) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("status poll failed", "dir", serverDir, "panic", r)
		}
	}()

	if ctx.Err() != nil {
		return
	}
	snap := m.source.Read(serverDir)
	if s.published && snap == s.last {
		return
	}
	s.last, s.published = snap, true
	m.logger.Debug("status changed", "snapshot", snap)
	m.publish(ctx, snap)
}

func (m *Monitor) publish(ctx context.Context, snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	m.current = snap
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// Full: drop the oldest pending snapshot to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
