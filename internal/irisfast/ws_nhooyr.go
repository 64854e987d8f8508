package irisfast

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var (
	errNotConnected = errors.New("ws not connected")
	errClosed       = errors.New("ws closed")
)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// WebSocket is the Iris event stream. It reconnects with backoff and
// fans every decoded Message out to the registered callbacks.
type WebSocket struct {
	wsURL  string
	logger *zap.Logger

	// closed is set by Close under mu; goroutines are only added to wg while it is false.
	mu     sync.RWMutex
	conn   *websocket.Conn
	state  WebSocketState
	closed bool

	writeMu sync.Mutex

	cbMu     sync.RWMutex
	nextCbID int
	msgCbs   []callbackEntry
	stateCbs []stateCallbackEntry

	maxReconnectAttempts int
	pingInterval         time.Duration
	headers              HeaderProvider

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		wsURL:                wsURL,
		logger:               logger,
		state:                WSStateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
		rootCtx:              ctx,
		rootCancel:           cancel,
	}
}

// SetHeaderProvider injects headers into every handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headers = h }

func (ws *WebSocket) State() WebSocketState {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

func (ws *WebSocket) Connected() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn != nil && ws.state == WSStateConnected
}

func (ws *WebSocket) Connect(ctx context.Context) error {
	if ws.isStopping() {
		return errClosed
	}
	switch ws.State() {
	case WSStateConnected, WSStateConnecting:
		return nil
	}
	ws.setState(WSStateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := ws.dial(dialCtx)
	if err != nil {
		ws.setState(WSStateFailed)
		ws.scheduleReconnect()
		return err
	}
	if !ws.attach(conn) {
		return errClosed
	}
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	return conn, err
}

// attach installs conn and starts its reader and pinger. A conn dialed after Close is closed instead.
func (ws *WebSocket) attach(conn *websocket.Conn) bool {
	conn.SetReadLimit(1 << 20)
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		_ = conn.Close(websocket.StatusGoingAway, "closing")
		return false
	}
	ws.conn = conn
	ws.wg.Add(2)
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	go ws.listen(conn)
	go ws.pingLoop(conn)
	return true
}

// WriteJSON sends one frame. Writes are serialized across goroutines.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
	ws.mu.RLock()
	conn, state := ws.conn, ws.state
	ws.mu.RUnlock()
	if conn == nil || state != WSStateConnected {
		return errNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var msg Message
		if err := wsjson.Read(ws.rootCtx, conn, &msg); err != nil {
			if ws.isStopping() {
				return
			}
			ws.logger.Warn("ws_read_failed", zap.Error(err))
			ws.drop(conn, websocket.StatusGoingAway, "reconnect")
			return
		}
		ws.cbMu.RLock()
		callbacks := append([]callbackEntry(nil), ws.msgCbs...)
		ws.cbMu.RUnlock()
		for _, entry := range callbacks {
			entry.callback(&msg)
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-ws.rootCtx.Done():
			return
		case <-t.C:
			if !ws.owns(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				ws.logger.Warn("ws_ping_failed", zap.Error(err))
				ws.drop(conn, websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (ws *WebSocket) owns(conn *websocket.Conn) bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn == conn
}

// drop closes conn if it is still current and starts reconnecting.
func (ws *WebSocket) drop(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	ws.mu.Lock()
	if ws.conn != conn {
		ws.mu.Unlock()
		return
	}
	ws.conn = nil
	ws.mu.Unlock()
	_ = conn.Close(code, reason)
	if ws.isStopping() {
		return
	}
	ws.setState(WSStateDisconnected)
	ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnectAttempts <= 0 {
		return
	}
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return
	}
	ws.wg.Add(1)
	ws.mu.Unlock()
	ws.setState(WSStateReconnecting)

	go func() {
		defer ws.wg.Done()
		for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			ctx, cancel := context.WithTimeout(ws.rootCtx, 10*time.Second)
			conn, err := ws.dial(ctx)
			cancel()
			if err != nil {
				if ws.isStopping() {
					return
				}
				ws.logger.Debug("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.attach(conn) {
				ws.logger.Info("ws_reconnected", zap.Int("attempt", attempt))
			}
			return
		}
		if !ws.isStopping() {
			ws.setState(WSStateFailed)
		}
	}()
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	if cb == nil {
		return 0
	}
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	ws.nextCbID++
	ws.msgCbs = append(ws.msgCbs, callbackEntry{id: ws.nextCbID, callback: cb})
	return ws.nextCbID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	for i, cb := range ws.msgCbs {
		if cb.id == id {
			ws.msgCbs = append(ws.msgCbs[:i], ws.msgCbs[i+1:]...)
			return
		}
	}
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	if cb == nil {
		return 0
	}
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	ws.nextCbID++
	ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextCbID, callback: cb})
	return ws.nextCbID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	for i, cb := range ws.stateCbs {
		if cb.id == id {
			ws.stateCbs = append(ws.stateCbs[:i], ws.stateCbs[i+1:]...)
			return
		}
	}
}

func (ws *WebSocket) setState(state WebSocketState) {
	ws.mu.Lock()
	changed := ws.state != state
	ws.state = state
	ws.mu.Unlock()
	if !changed {
		return
	}
	ws.cbMu.RLock()
	callbacks := append([]stateCallbackEntry(nil), ws.stateCbs...)
	ws.cbMu.RUnlock()
	for _, entry := range callbacks {
		entry.callback(state)
	}
}

func (ws *WebSocket) Close(ctx context.Context) error {
	ws.mu.Lock()
	ws.closed = true
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()
	ws.stopOnce.Do(func() { close(ws.stopCh) })
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	ws.rootCancel()

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		ws.setState(WSStateDisconnected)
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headers == nil {
		return hdr
	}
	for k, v := range ws.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
