package boardpresenter

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/kakao-tictactoe-bot/pkg/boarddto"
)

// Sender is the reply transport; irisfast.Egress satisfies it.
type Sender interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

// Presenter delivers text and optional board images without coupling to the command layer.
type Presenter struct {
	sender   Sender
	renderer *Renderer
	logger   *zap.Logger
}

// NewPresenter returns a presenter that sends a PNG after each board message when renderer is non-nil.
func NewPresenter(sender Sender, renderer *Renderer, logger *zap.Logger) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{sender: sender, renderer: renderer, logger: logger}
}

func (p *Presenter) Text(ctx context.Context, room, message string) error {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sender.SendText(ctx, room, message)
}

// Board sends message and then, if images are enabled, the rendered board.
// A render failure is logged and does not fail the reply; the text already carries the grid.
func (p *Presenter) Board(ctx context.Context, room, message string, state *boarddto.BoardState) error {
	if err := p.Text(ctx, room, message); err != nil {
		return err
	}
	if p.renderer == nil || state == nil {
		return nil
	}
	if len(state.BoardImage) == 0 {
		img, err := p.renderer.RenderPNG(ctx, state)
		if err != nil {
			p.logger.Warn("board_render_failed", zap.String("room", room), zap.Error(err))
			return nil
		}
		state.BoardImage = img
	}
	return p.sender.SendImage(ctx, room, base64.StdEncoding.EncodeToString(state.BoardImage))
}
