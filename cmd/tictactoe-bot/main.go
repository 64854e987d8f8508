package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/image/font/opentype"

	"github.com/park285/kakao-tictactoe-bot/internal/adapter/boardpresenter"
	"github.com/park285/kakao-tictactoe-bot/internal/assets/fonts"
	"github.com/park285/kakao-tictactoe-bot/internal/bot"
	appcfg "github.com/park285/kakao-tictactoe-bot/internal/config"
	"github.com/park285/kakao-tictactoe-bot/internal/irisfast"
	"github.com/park285/kakao-tictactoe-bot/internal/metrics"
	"github.com/park285/kakao-tictactoe-bot/internal/msgcat"
	"github.com/park285/kakao-tictactoe-bot/internal/obslog"
	"github.com/park285/kakao-tictactoe-bot/internal/stats"
	"github.com/park285/kakao-tictactoe-bot/internal/tictactoe"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf(".env: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.Headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, obslog.Named("ws"))
	ws.SetHeaderProvider(cfg.Headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	egress := irisfast.NewEgress(string(cfg.EgressMode), cfg.EgressDryRun, client, ws, obslog.Named("egress"))

	cctx, ccancel := context.WithTimeout(ctx, 5*time.Second)
	if irisCfg, err := client.GetConfig(cctx); err != nil {
		logger.Warn("iris_config_unavailable", zap.Error(err))
	} else {
		logger.Info("iris_config", zap.Int("port", irisCfg.Port), zap.Int("message_rate", irisCfg.MessageRate))
	}
	ccancel()

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("message_catalog_error", zap.Error(err))
	}

	met := metrics.New()
	manager := tictactoe.NewManager(tictactoe.NewMemoryStore(), obslog.Named("tictactoe"))
	recorders := tictactoe.Recorders{met}

	var statsStore *stats.Store
	if cfg.RedisURL != "" {
		sctx, scancel := context.WithTimeout(ctx, 5*time.Second)
		statsStore, err = stats.Open(sctx, cfg.RedisURL)
		scancel()
		if err != nil {
			logger.Fatal("stats_init_error", zap.Error(err))
		}
		defer func() { _ = statsStore.Close() }()
		recorders = append(recorders, statsStore)
	}
	if cfg.DatabaseURL != "" {
		repo, err := tictactoe.NewRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("archive_init_error", zap.Error(err))
		}
		defer func() { _ = repo.Close() }()
		recorders = append(recorders, repo)
	}
	manager.AttachRecorder(recorders)

	var renderer *boardpresenter.Renderer
	if cfg.BoardImage {
		var hudFont *opentype.Font
		if cfg.BoardFont != "" {
			if hudFont, err = fonts.Load(cfg.BoardFont); err != nil {
				logger.Fatal("board_font_error", zap.Error(err))
			}
		}
		if !fonts.Covers(hudFont, "가나다") {
			logger.Warn("board_font_no_hangul", zap.String("font", cfg.BoardFont))
		}
		renderer = boardpresenter.NewRenderer(hudFont)
	}
	opts := bot.Options{
		Prefix:          cfg.BotPrefix,
		RoomAllowed:     cfg.RoomAllowed,
		LeaderboardSize: cfg.LeaderboardSize,
		Manager:         manager,
		Presenter:       boardpresenter.NewPresenter(egress, renderer, obslog.Named("presenter")),
		Formatter:       boardpresenter.NewFormatter(catalog, cfg.BotPrefix),
		Metrics:         met,
		Logger:          obslog.Named("bot"),
	}
	if statsStore != nil {
		opts.Stats = statsStore
	}
	b := bot.New(opts)
	unsubscribe := b.Listen(ws)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := met.Serve(ctx, cfg.MetricsAddr, obslog.Named("metrics")); err != nil {
				logger.Error("metrics_server_error", zap.Error(err))
			}
		}()
	}

	dctx, dcancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ws.Connect(dctx); err != nil {
		logger.Warn("ws_connect_error", zap.Error(err))
	}
	dcancel()

	logger.Info("bot_started",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("egress", string(cfg.EgressMode)),
		zap.Bool("stats", statsStore != nil),
		zap.Bool("archive", cfg.DatabaseURL != ""),
		zap.Bool("board_image", cfg.BoardImage),
	)
	<-ctx.Done()
	logger.Info("bot_stopping")
	unsubscribe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ws.Close(shutdownCtx); err != nil {
		logger.Warn("ws_close_error", zap.Error(err))
	}
	b.Wait()
}
