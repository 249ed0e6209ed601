package sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dayflowhq/dayflow-client/internal/flowsdk"
	"github.com/dayflowhq/dayflow-client/internal/queue"
)

const defaultDrainInterval = 30 * time.Second

var ErrDrainAlreadyRunning = errors.New("sync: drain already running")

// Transport replays one pending action against the server. Implementations
// return errors that flowsdk.IsTerminal can classify.
type Transport interface {
	Replay(ctx context.Context, action *PendingAction) error
}

// Connectivity is the slice of the connectivity monitor the coordinator
// depends on.
type Connectivity interface {
	Current() bool
	OnChange(fn func(online bool)) (unsubscribe func())
}

// Coordinator decides when to drain the pending-action queue and reports
// aggregate sync status. Drains trigger on reconnect, on a periodic timer
// while online, and on explicit request; only one drain runs at a time.
type Coordinator struct {
	store     *Store
	transport Transport
	monitor   Connectivity
	interval  time.Duration
	now       func() time.Time

	muDrain sync.Mutex // the sole drain lock, TryLock'd

	mu          sync.Mutex
	online      bool
	syncing     bool
	lastSync    time.Time
	subscribers map[int]func(State)
	nextSub     int

	unsubNet func()
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithDrainInterval sets the periodic drain interval.
func WithDrainInterval(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.interval = d }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(store *Store, transport Transport, monitor Connectivity, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:       store,
		transport:   transport,
		monitor:     monitor,
		interval:    defaultDrainInterval,
		now:         time.Now,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads the persisted queue and arms the drain triggers.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.store.Load(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.online = c.monitor.Current()
	c.mu.Unlock()

	// trigger 1: connectivity returning
	c.unsubNet = c.monitor.OnChange(func(online bool) {
		c.mu.Lock()
		c.online = online
		c.mu.Unlock()
		c.notify()

		if online {
			slog.Info("sync online, draining queue")
			go c.drainQuiet(ctx)
		}
	})

	// trigger 2: periodic while online with a non-empty queue
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.Online() && c.hasEligible() {
					c.drainQuiet(ctx)
				}
			}
		}
	}()

	slog.Info("sync coordinator start", "pending", c.store.Len(), "online", c.Online(), "interval", c.interval)
	return nil
}

// Stop halts the drain triggers. An in-flight pass finishes its snapshot.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	if c.unsubNet != nil {
		c.unsubNet()
		c.unsubNet = nil
	}
	c.wg.Wait()
	slog.Info("sync coordinator stop")
}

// Online returns the last known connectivity state.
func (c *Coordinator) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// State returns the current UI-visible snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	online, syncing, lastSync := c.online, c.syncing, c.lastSync
	c.mu.Unlock()

	return State{
		IsOnline:       online,
		Syncing:        syncing,
		LastSyncTime:   lastSync,
		PendingActions: c.store.List(),
	}
}

// Subscribe registers a state observer and returns an unsubscribe func.
func (c *Coordinator) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// Enqueue records a mutation made while offline (or one whose direct call
// failed with a retryable condition) for later replay.
func (c *Coordinator) Enqueue(kind ActionKind, payload json.RawMessage, maxRetries int) (string, error) {
	id, err := c.store.Enqueue(kind, payload, maxRetries)
	if err != nil {
		return "", err
	}
	c.notify()
	return id, nil
}

// List returns the pending queue snapshot for display.
func (c *Coordinator) List() []*PendingAction {
	return c.store.List()
}

// Remove dismisses a failed-terminal action.
func (c *Coordinator) Remove(id string) error {
	if err := c.store.Remove(id); err != nil {
		return err
	}
	c.notify()
	return nil
}

// Reprioritize moves an action to the front of the next drain pass.
func (c *Coordinator) Reprioritize(id string) error {
	if err := c.store.Reprioritize(id); err != nil {
		return err
	}
	c.notify()
	return nil
}

// Drain replays every eligible action once, in order: reprioritized first,
// then FIFO. If a pass is already running it returns ErrDrainAlreadyRunning
// immediately. Actions enqueued during the pass wait for the next one.
func (c *Coordinator) Drain(ctx context.Context) error {
	if !c.muDrain.TryLock() {
		return ErrDrainAlreadyRunning
	}
	defer c.muDrain.Unlock()
	return c.drainLocked(ctx)
}

// DrainAsync claims the drain lock and, on success, runs the pass in the
// background. Claiming happens before it returns, so two concurrent callers
// cannot both be told a pass was started.
func (c *Coordinator) DrainAsync(ctx context.Context) error {
	if !c.muDrain.TryLock() {
		return ErrDrainAlreadyRunning
	}

	go func() {
		defer c.muDrain.Unlock()
		if err := c.drainLocked(ctx); err != nil {
			slog.Error("sync drain", "error", err)
		}
	}()
	return nil
}

func (c *Coordinator) drainLocked(ctx context.Context) error {
	c.setSyncing(true)
	defer c.setSyncing(false)

	tstart := c.now()

	// snapshot: new enqueues are picked up by the next pass
	pq := queue.NewPriorityQueue[*PendingAction]()
	for _, a := range c.store.List() {
		if !a.Eligible() {
			continue
		}
		priority := 1
		if a.Prioritized {
			priority = 0
		}
		pq.Enqueue(a, priority)
	}

	pass := pq.DequeueAll()
	replayed, failed := 0, 0

	for _, action := range pass {
		select {
		case <-ctx.Done():
			slog.Warn("sync drain interrupted by shutdown", "remaining", len(pass)-replayed-failed)
			return ctx.Err()
		default:
		}

		if err := c.store.MarkInFlight(action.ID); err != nil {
			slog.Error("sync drain mark in-flight", "id", action.ID, "error", err)
			continue
		}
		c.notify()

		err := c.transport.Replay(ctx, action)
		if err == nil {
			if err := c.store.MarkSucceeded(action.ID); err != nil {
				slog.Error("sync drain mark succeeded", "id", action.ID, "error", err)
			}
			replayed++
		} else {
			terminal := flowsdk.IsTerminal(err)
			slog.Warn("sync replay failed", "id", action.ID, "kind", action.Kind, "terminal", terminal, "error", err)
			if err := c.store.MarkFailed(action.ID, terminal); err != nil {
				slog.Error("sync drain mark failed", "id", action.ID, "error", err)
			}
			failed++
		}
		c.notify()
	}

	// a pass that processed what it could still counts as synced
	c.mu.Lock()
	c.lastSync = c.now()
	c.mu.Unlock()

	if len(pass) > 0 {
		slog.Info("sync drain", "took", c.now().Sub(tstart), "replayed", replayed, "failed", failed, "pending", c.store.Len())
	}
	return nil
}

// drainQuiet runs a drain where "already running" is not an error.
func (c *Coordinator) drainQuiet(ctx context.Context) {
	if err := c.Drain(ctx); err != nil && !errors.Is(err, ErrDrainAlreadyRunning) && !errors.Is(err, context.Canceled) {
		slog.Error("sync drain", "error", err)
	}
}

func (c *Coordinator) hasEligible() bool {
	for _, a := range c.store.List() {
		if a.Eligible() {
			return true
		}
	}
	return false
}

func (c *Coordinator) setSyncing(v bool) {
	c.mu.Lock()
	c.syncing = v
	c.mu.Unlock()
	c.notify()
}

// notify fans the current snapshot out to subscribers.
func (c *Coordinator) notify() {
	c.mu.Lock()
	subs := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if len(subs) == 0 {
		return
	}
	state := c.State()
	for _, fn := range subs {
		fn(state)
	}
}
