package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type EgressMode string

const (
	EgressHTTP EgressMode = "http"
	EgressWS   EgressMode = "ws"
	EgressAuto EgressMode = "auto"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	EgressMode   EgressMode
	EgressDryRun bool

	// optional result sinks
	RedisURL    string
	DatabaseURL string

	AllowedRooms []string

	BoardImage      bool
	BoardFont       string
	MessagesDir     string
	MetricsAddr     string
	LeaderboardSize int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:      EgressHTTP,
		BoardImage:      false,
		LeaderboardSize: 10,
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	switch mode := EgressMode(strings.ToLower(env("EGRESS_MODE"))); mode {
	case EgressHTTP, EgressWS, EgressAuto:
		cfg.EgressMode = mode
	case "":
	default:
		return nil, errors.New("EGRESS_MODE must be one of http, ws, auto")
	}
	cfg.EgressDryRun = envBool("EGRESS_DRYRUN", false)

	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.AllowedRooms = envList("ALLOWED_ROOMS")

	cfg.BoardImage = envBool("BOARD_IMAGE", cfg.BoardImage)
	cfg.BoardFont = env("BOARD_FONT")
	cfg.MessagesDir = env("MESSAGES_DIR")
	cfg.MetricsAddr = env("METRICS_ADDR")
	if v := env("LEADERBOARD_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LeaderboardSize = n
		}
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	return cfg, nil
}

// Headers returns the X-User-* headers sent with every Iris request and the WS handshake.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c == nil {
		return h
	}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

// RoomAllowed reports whether the bot should react in room. An empty allow-list allows all.
func (c *AppConfig) RoomAllowed(room string) bool {
	if c == nil || len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func envBool(k string, def bool) bool {
	if v := env(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(k string) []string {
	v := env(k)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
