package irisfast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func newEchoServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		for {
			if _, _, err := c.Read(r.Context()); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitGroupDone(t *testing.T, ws *WebSocket) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("ws goroutines still running")
	}
}

func TestWebSocketConnectAndClose(t *testing.T) {
	ws := NewWebSocket(newEchoServer(t), 3, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ws.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !ws.Connected() {
		t.Fatalf("state = %s", ws.State())
	}
	if err := ws.WriteJSON(ctx, ReplyRequest{Type: replyText, Room: "r", Data: "hi"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := ws.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ws.Connected() || ws.State() != WSStateDisconnected {
		t.Fatalf("state after close = %s", ws.State())
	}
	if err := ws.Connect(ctx); !errors.Is(err, errClosed) {
		t.Fatalf("Connect after Close err = %v", err)
	}
}

func TestWebSocketDialFinishingAfterCloseIsDiscarded(t *testing.T) {
	ws := NewWebSocket(newEchoServer(t), 3, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := ws.dial(ctx)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := ws.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if ws.attach(conn) {
		t.Fatalf("attach accepted a conn after Close")
	}
	ws.scheduleReconnect()
	waitGroupDone(t, ws)
	if ws.Connected() || ws.State() != WSStateDisconnected {
		t.Fatalf("state = %s", ws.State())
	}
}

func TestWebSocketCloseWaitsForReconnectLoop(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(dead.URL, "http")
	dead.Close()

	ws := NewWebSocket(url, 5, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ws.Connect(ctx); err == nil {
		t.Fatalf("expected dial error")
	}
	if ws.State() != WSStateReconnecting {
		t.Fatalf("state = %s, want reconnecting", ws.State())
	}
	if err := ws.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var mu sync.Mutex
	var late []WebSocketState
	ws.OnStateChange(func(s WebSocketState) {
		mu.Lock()
		late = append(late, s)
		mu.Unlock()
	})
	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(late) != 0 {
		t.Fatalf("state changed after Close returned: %v", late)
	}
}
