// Command irischeck verifies Iris connectivity: GET /config, a WebSocket session,
// and optionally a test reply rendered the way the bot renders boards.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/park285/kakao-tictactoe-bot/internal/adapter/boardpresenter"
	"github.com/park285/kakao-tictactoe-bot/internal/irisfast"
	"github.com/park285/kakao-tictactoe-bot/internal/obslog"
	"github.com/park285/kakao-tictactoe-bot/internal/tictactoe"
)

func main() {
	room := flag.String("room", "", "send a sample board to this room")
	image := flag.Bool("image", false, "also send the PNG board")
	listen := flag.Duration("listen", 10*time.Second, "how long to print WS events")
	flag.Parse()

	_ = godotenv.Load()
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	baseURL := os.Getenv("IRIS_BASE_URL")
	wsURL := os.Getenv("IRIS_WS_URL")
	if baseURL == "" {
		logger.Fatal("IRIS_BASE_URL is required")
	}
	headers := func() map[string]string {
		return map[string]string{
			"X-User-Id":    os.Getenv("X_USER_ID"),
			"X-User-Email": os.Getenv("X_USER_EMAIL"),
			"X-Session-Id": os.Getenv("X_SESSION_ID"),
		}
	}
	client := irisfast.NewClient(baseURL, irisfast.WithHeaderProvider(headers), irisfast.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cfg, err := client.GetConfig(ctx)
	cancel()
	if err != nil {
		logger.Error("config_check_failed", zap.Error(err))
	} else {
		logger.Info("config_check_ok",
			zap.Int("port", cfg.Port),
			zap.Int("polling_speed", cfg.PollingSpeed),
			zap.Int("message_rate", cfg.MessageRate),
			zap.String("endpoint", cfg.WebserverEndpoint),
		)
	}

	if *room != "" {
		sendSample(client, *room, *image, logger)
	}

	if wsURL == "" {
		logger.Info("IRIS_WS_URL not set; skipping WS check")
		return
	}
	ws := irisfast.NewWebSocket(wsURL, 0, logger.Named("ws"))
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		logger.Info("ws_message", zap.String("room", msg.Room), zap.String("from", msg.UserID()), zap.String("text", msg.Msg))
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_failed", zap.Error(err))
		return
	}
	time.Sleep(*listen)
	_ = ws.Close(context.Background())
}

// sendSample plays a short scripted game and posts the resulting board.
func sendSample(client *irisfast.Client, room string, withImage bool, logger *zap.Logger) {
	s := tictactoe.NewSession(room, "irischeck-x", "irischeck-o")
	for _, cell := range []int{4, 0, 8} {
		next, _, err := tictactoe.ApplyMove(s, s.TurnOwner(), cell)
		if err != nil {
			logger.Error("sample_move_failed", zap.Error(err))
			return
		}
		s = next
	}
	var renderer *boardpresenter.Renderer
	if withImage {
		renderer = boardpresenter.NewRenderer(nil)
	}
	egress := irisfast.NewEgress("http", false, client, nil, logger)
	p := boardpresenter.NewPresenter(egress, renderer, logger)
	dto := boardpresenter.ToDTO(s.Render())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Board(ctx, room, "irischeck\n"+boardpresenter.Grid(dto), dto); err != nil {
		logger.Error("sample_send_failed", zap.Error(err))
		return
	}
	logger.Info("sample_sent", zap.String("room", room), zap.Bool("image", withImage))
}
