package flowsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/dayflowhq/dayflow-client/internal/flowmsg"
	"github.com/dayflowhq/dayflow-client/internal/wsproto"
)

const (
	eventsReconnectBaseDelay = 1 * time.Second
	eventsMaxReconnects      = 5
	eventsDialTimeout        = 10 * time.Second
	wsClientMaxMessageSize   = 1 * 1024 * 1024 // 1MB
	eventsPath               = "/api/v1/events"
)

// ConnState is the live-update channel connection state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("???(%d)", int(s))
	}
}

// EventHandler receives one live event. Events are invalidation hints, not
// authoritative state: handlers should re-fetch through the HTTP API.
type EventHandler func(msg *flowmsg.Message)

type dialFunc func(ctx context.Context, url string, headers http.Header) (*websocket.Conn, error)

// EventsAPI maintains the live-update channel: a persistent websocket that
// delivers server-pushed change notifications and republishes them to typed
// local listeners. It self-heals with a bounded, linearly escalating
// reconnect; after the ceiling it gives up until Connect is called again.
type EventsAPI struct {
	baseURL    string
	identity   string
	credential string

	ctx    context.Context
	cancel context.CancelFunc

	mu               sync.RWMutex
	state            ConnState
	wsClient         *wsClient
	reconnectAttempt int
	reconnectTimer   *time.Timer
	reconnectGen     uint64

	listeners    map[flowmsg.EventType]map[int]EventHandler
	anyListeners map[int]EventHandler
	nextListener int

	// reconnect policy, overridable in tests
	maxReconnects int
	baseDelay     time.Duration
	dial          dialFunc
}

// newEventsAPI creates a new EventsAPI instance
func newEventsAPI(baseURL string) *EventsAPI {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventsAPI{
		baseURL:       baseURL,
		ctx:           ctx,
		cancel:        cancel,
		state:         StateDisconnected,
		listeners:     make(map[flowmsg.EventType]map[int]EventHandler),
		anyListeners:  make(map[int]EventHandler),
		maxReconnects: eventsMaxReconnects,
		baseDelay:     eventsReconnectBaseDelay,
		dial:          dialWebsocket,
	}
}

func dialWebsocket(ctx context.Context, url string, headers http.Header) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader:   headers,
		Subprotocols: []string{wsproto.SubprotocolMsgPack, wsproto.SubprotocolJSON},
	})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(wsClientMaxMessageSize)
	return conn, nil
}

// SetIdentity sets the identity and bearer credential used on dial.
func (e *EventsAPI) SetIdentity(identity, credential string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.identity = identity
	e.credential = credential
}

// State returns the current connection state.
func (e *EventsAPI) State() ConnState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// IsConnected returns the current connection status
func (e *EventsAPI) IsConnected() bool {
	return e.State() == StateConnected
}

// On registers a listener for one event type and returns an unsubscribe func.
func (e *EventsAPI) On(t flowmsg.EventType, handler EventHandler) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	if e.listeners[t] == nil {
		e.listeners[t] = make(map[int]EventHandler)
	}
	e.listeners[t][id] = handler
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners[t], id)
		e.mu.Unlock()
	}
}

// OnAny registers a catch-all listener fired for every decoded event.
func (e *EventsAPI) OnAny(handler EventHandler) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	e.anyListeners[id] = handler
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.anyListeners, id)
		e.mu.Unlock()
	}
}

// Connect opens the websocket connection. Calling it while already
// connecting or connected is a no-op. A manual call also re-arms the
// reconnect loop after the ceiling was hit.
func (e *EventsAPI) Connect(ctx context.Context) error {
	e.mu.Lock()

	if e.state != StateDisconnected {
		e.mu.Unlock()
		return nil
	}

	// a manual connect supersedes any scheduled reconnect
	e.stopReconnectTimerLocked()
	e.reconnectAttempt = 0
	e.state = StateConnecting

	wsClient, err := e.connectLocked(ctx)
	if err != nil {
		e.state = StateDisconnected
		e.mu.Unlock()
		return fmt.Errorf("sdk: events: connect failed: %w", err)
	}
	e.mu.Unlock()

	go e.manageConnection(wsClient)
	return nil
}

// Send writes a message through the channel. The channel is best-effort for
// outbound traffic: when not connected the message is silently dropped.
// Durable mutations belong in the pending-action queue, never here.
func (e *EventsAPI) Send(msg *flowmsg.Message) {
	e.mu.RLock()
	wsClient := e.wsClient
	connected := e.state == StateConnected
	e.mu.RUnlock()

	if !connected || wsClient == nil {
		slog.Debug("socketmgr tx dropped, not connected", "id", msg.Id, "type", msg.Type)
		return
	}

	select {
	case wsClient.msgTx <- msg:
		slog.Debug("socketmgr tx", "id", msg.Id, "type", msg.Type)
	default:
		slog.Warn("socketmgr tx buffer full, dropped", "id", msg.Id, "type", msg.Type)
	}
}

// Disconnect tears the connection down and cancels any pending reconnect.
// It is idempotent.
func (e *EventsAPI) Disconnect() {
	e.mu.Lock()
	wsClient := e.teardownLocked()
	e.mu.Unlock()

	if wsClient != nil {
		wsClient.Close()
	}
	slog.Info("socketmgr disconnected")
}

// teardownLocked is the lock-held half of Disconnect. It returns the
// connection to close, which must happen outside the lock.
func (e *EventsAPI) teardownLocked() *wsClient {
	e.stopReconnectTimerLocked()
	e.reconnectAttempt = 0

	wsClient := e.wsClient
	e.wsClient = nil
	e.state = StateDisconnected
	return wsClient
}

// Close terminates the channel for good and cleans up
func (e *EventsAPI) Close() {
	e.cancel()
	e.Disconnect()
	slog.Info("socketmgr closed")
}

// connectLocked dials a new websocket connection (must be called with lock held)
func (e *EventsAPI) connectLocked(ctx context.Context) (*wsClient, error) {
	// Clean up any existing connection
	if e.wsClient != nil {
		e.wsClient.Close()
		e.wsClient = nil
	}

	url, err := e.fullURL()
	if err != nil {
		return nil, fmt.Errorf("sdk: events: failed to build url: %w", err)
	}

	headers := http.Header{}
	if e.credential != "" {
		headers.Set("Authorization", "Bearer "+e.credential)
	}

	dialCtx, cancel := context.WithTimeout(ctx, eventsDialTimeout)
	defer cancel()

	conn, err := e.dial(dialCtx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("sdk: events: failed to connect to %s: %w", url, err)
	}

	enc := wsproto.EncodingFromSubprotocol(conn.Subprotocol())
	wsClient := newWSClient(conn, enc)
	wsClient.Start(e.ctx)

	e.wsClient = wsClient
	e.state = StateConnected
	e.reconnectAttempt = 0

	slog.Info("socketmgr client connected", "encoding", enc)
	return wsClient, nil
}

// manageConnection watches the connection and schedules a reconnect on drop
func (e *EventsAPI) manageConnection(wsClient *wsClient) {
	go e.consumeMessages(wsClient)

	select {
	case <-wsClient.closed:
		e.mu.Lock()
		if e.wsClient != wsClient {
			// superseded by a newer connection or an explicit disconnect
			e.mu.Unlock()
			return
		}
		e.wsClient = nil
		e.state = StateDisconnected
		e.mu.Unlock()

		select {
		case <-e.ctx.Done():
			return
		default:
			slog.Info("socketmgr client disconnected, will reconnect")
			e.mu.Lock()
			e.scheduleReconnectLocked()
			e.mu.Unlock()
		}

	case <-e.ctx.Done():
		return
	}
}

// consumeMessages dispatches decoded messages to the local listeners
func (e *EventsAPI) consumeMessages(wsClient *wsClient) {
	for {
		select {
		case <-e.ctx.Done():
			return

		case <-wsClient.closed:
			return

		case msg, ok := <-wsClient.msgRx:
			if !ok {
				slog.Debug("socketmgr rx closed")
				return
			}

			slog.Debug("socketmgr rx", "id", msg.Id, "type", msg.Type)
			e.dispatch(msg)
		}
	}
}

// dispatch fires the typed listeners for the message plus all catch-alls.
func (e *EventsAPI) dispatch(msg *flowmsg.Message) {
	e.mu.RLock()
	handlers := make([]EventHandler, 0, len(e.listeners[msg.Type])+len(e.anyListeners))
	for _, h := range e.listeners[msg.Type] {
		handlers = append(handlers, h)
	}
	for _, h := range e.anyListeners {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
}

// reconnectDelay maps an attempt number to its backoff delay. Delay grows
// linearly with the attempt: n*base, so backoff escalates without unbounded
// growth.
func reconnectDelay(attempt int, base time.Duration) time.Duration {
	return time.Duration(attempt) * base
}

// scheduleReconnectLocked arms the next reconnect attempt (lock held).
// After maxReconnects consecutive failures the channel gives up; a manual
// Connect (e.g. triggered by connectivity coming back) starts over.
func (e *EventsAPI) scheduleReconnectLocked() {
	e.reconnectAttempt++
	if e.reconnectAttempt > e.maxReconnects {
		slog.Error("socketmgr reconnect ceiling reached, giving up", "attempts", e.maxReconnects)
		e.reconnectAttempt = 0
		return
	}

	attempt := e.reconnectAttempt
	delay := reconnectDelay(attempt, e.baseDelay)
	slog.Info("socketmgr reconnect scheduled", "attempt", attempt, "delay", delay)

	e.stopReconnectTimerLocked()
	gen := e.reconnectGen
	e.reconnectTimer = time.AfterFunc(delay, func() {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		e.mu.Lock()
		// Stop() cannot reach a callback that already fired and is waiting
		// on the lock; a stale generation means the timer was cancelled
		// (explicit Disconnect, or superseded by a manual Connect) in the
		// meantime.
		if gen != e.reconnectGen || e.state != StateDisconnected {
			e.mu.Unlock()
			return
		}
		e.state = StateConnecting
		wsClient, err := e.connectLocked(e.ctx)
		if err != nil {
			slog.Warn("socketmgr reconnect failed", "attempt", attempt, "error", err)
			e.state = StateDisconnected
			e.scheduleReconnectLocked()
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()

		go e.manageConnection(wsClient)
	})
}

// stopReconnectTimerLocked cancels any armed reconnect (lock held). Bumping
// the generation also invalidates a callback that has already fired but not
// yet acquired the lock.
func (e *EventsAPI) stopReconnectTimerLocked() {
	e.reconnectGen++
	if e.reconnectTimer != nil {
		e.reconnectTimer.Stop()
		e.reconnectTimer = nil
	}
}

// fullURL builds the complete websocket URL with the identity query param
func (e *EventsAPI) fullURL() (string, error) {
	full, err := url.JoinPath(e.baseURL, eventsPath)
	if err != nil {
		return "", fmt.Errorf("failed to join path: %w", err)
	}

	if e.identity != "" {
		q := url.Values{}
		q.Set("user", e.identity)
		full = full + "?" + q.Encode()
	}

	return toWebsocketURL(full), nil
}

// toWebsocketURL converts an HTTP URL to a WebSocket URL
func toWebsocketURL(url string) string {
	if strings.HasPrefix(url, "https://") {
		return "wss://" + url[8:]
	} else if strings.HasPrefix(url, "http://") {
		return "ws://" + url[7:]
	}
	return url
}
