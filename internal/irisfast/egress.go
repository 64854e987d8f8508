package irisfast

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Egress sends replies into a room over HTTP or the WebSocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// frameWriter is satisfied by *WebSocket.
type frameWriter interface {
	Connected() bool
	WriteJSON(ctx context.Context, v any) error
}

// NewEgress picks the transport for mode ("http", "ws" or "auto").
// Auto prefers the WebSocket while it is connected and falls back to HTTP once per reply.
// Dry-run logs replies instead of sending them.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	var fw frameWriter
	if ws != nil {
		fw = ws
	}
	if dryrun {
		return &dryRunEgress{logger: logger}
	}
	switch mode {
	case "ws":
		return &wsEgress{ws: fw}
	case "auto":
		return &autoEgress{ws: &wsEgress{ws: fw}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

type httpEgress struct{ c *Client }

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendText(ctx, room, message)
}

func (h *httpEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SendImage(ctx, room, imageBase64)
}

type wsEgress struct{ ws frameWriter }

func (w *wsEgress) ready() bool { return w.ws != nil && w.ws.Connected() }

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	if w.ws == nil {
		return errors.New("ws egress not available")
	}
	return w.ws.WriteJSON(ctx, ReplyRequest{Type: replyText, Room: room, Data: message})
}

func (w *wsEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if w.ws == nil {
		return errors.New("ws egress not available")
	}
	return w.ws.WriteJSON(ctx, ReplyRequest{Type: replyImage, Room: room, Data: imageBase64})
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.ws.ready() {
		err := a.ws.SendText(ctx, room, message)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "text"), zap.String("room", room), zap.Error(err))
	}
	return a.http.SendText(ctx, room, message)
}

func (a *autoEgress) SendImage(ctx context.Context, room, imageBase64 string) error {
	if a.ws.ready() {
		err := a.ws.SendImage(ctx, room, imageBase64)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", "image"), zap.String("room", room), zap.Error(err))
	}
	return a.http.SendImage(ctx, room, imageBase64)
}

type dryRunEgress struct{ logger *zap.Logger }

func (d *dryRunEgress) SendText(_ context.Context, room, message string) error {
	d.logger.Info("egress_dryrun", zap.String("type", "text"), zap.String("room", room), zap.String("data", message))
	return nil
}

func (d *dryRunEgress) SendImage(_ context.Context, room, imageBase64 string) error {
	d.logger.Info("egress_dryrun", zap.String("type", "image"), zap.String("room", room), zap.Int("bytes", len(imageBase64)))
	return nil
}
