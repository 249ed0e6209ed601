package netmon

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"
)

const (
	defaultProbeInterval = 10 * time.Second
	defaultDebounce      = 300 * time.Millisecond
	probeDialTimeout     = 3 * time.Second
)

// Probe reports whether the network currently looks reachable.
type Probe func(ctx context.Context) bool

// Monitor watches connectivity and fans out online/offline transitions to
// listeners. Raw flapping is smoothed with a trailing debounce so dependents
// don't thrash reconnects. A monitor cannot fail, it only reports.
type Monitor struct {
	probe    Probe
	interval time.Duration
	debounce time.Duration

	mu        sync.Mutex
	online    bool
	raw       bool
	pending   *time.Timer
	listeners map[int]func(online bool)
	nextID    int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProbe replaces the reachability probe.
func WithProbe(p Probe) Option {
	return func(m *Monitor) { m.probe = p }
}

// WithInterval sets the probe interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithDebounce sets the trailing debounce window for transitions.
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) { m.debounce = d }
}

// New creates a Monitor that probes serverURL's host. The monitor starts
// optimistically online; the first probe on Start corrects it.
func New(serverURL string, opts ...Option) *Monitor {
	m := &Monitor{
		probe:     HostProbe(serverURL),
		interval:  defaultProbeInterval,
		debounce:  defaultDebounce,
		online:    true,
		raw:       true,
		listeners: make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HostProbe returns a Probe that dials the host of the given URL.
func HostProbe(serverURL string) Probe {
	host := probeAddr(serverURL)
	return func(ctx context.Context) bool {
		if host == "" {
			return true
		}
		d := net.Dialer{Timeout: probeDialTimeout}
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

func probeAddr(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https", "wss":
			host = net.JoinHostPort(u.Hostname(), "443")
		default:
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}
	return host
}

// Start seeds the current state with one synchronous probe, then keeps
// probing in the background until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	// seed state directly, no debounce on the very first observation
	first := m.probe(ctx)
	m.raw = first
	m.online = first
	m.mu.Unlock()

	slog.Info("netmon start", "online", first, "interval", m.interval)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Report(m.probe(ctx))
			}
		}
	}()
}

// Stop halts probing and drops any pending debounced transition.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
	slog.Info("netmon stop")
}

// Current returns the last known debounced connectivity state.
func (m *Monitor) Current() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Report feeds a raw connectivity observation. Platforms that surface their
// own online/offline signal call this instead of relying on the probe.
func (m *Monitor) Report(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if online == m.raw {
		return
	}
	m.raw = online

	// trailing debounce: only the last observation within the window wins
	if m.pending != nil {
		m.pending.Stop()
	}
	m.pending = time.AfterFunc(m.debounce, m.settle)
}

// settle promotes the raw state to the debounced state and notifies.
func (m *Monitor) settle() {
	m.mu.Lock()
	m.pending = nil
	if m.raw == m.online {
		m.mu.Unlock()
		return
	}
	m.online = m.raw
	online := m.online
	listeners := make([]func(bool), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	slog.Info("netmon transition", "online", online)
	for _, fn := range listeners {
		fn(online)
	}
}

// OnChange registers a transition listener and returns an unsubscribe func.
func (m *Monitor) OnChange(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}
