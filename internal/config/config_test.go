package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("IRIS_BASE_URL", "http://iris:3000")
	t.Setenv("IRIS_WS_URL", "ws://iris:3000/ws")
	t.Setenv("BOT_PREFIX", "!")
	for _, k := range []string{"EGRESS_MODE", "ALLOWED_ROOMS", "BOARD_IMAGE", "BOARD_FONT", "LEADERBOARD_SIZE", "X_USER_ID", "X_USER_EMAIL", "X_SESSION_ID"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EgressMode != EgressHTTP || cfg.LeaderboardSize != 10 || cfg.BoardImage {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.RoomAllowed("any") {
		t.Fatalf("empty allow-list should allow every room")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("EGRESS_MODE", "AUTO")
	t.Setenv("ALLOWED_ROOMS", " r1, ,r2 ")
	t.Setenv("BOARD_IMAGE", "true")
	t.Setenv("BOARD_FONT", " /fonts/NanumGothic.ttf ")
	t.Setenv("LEADERBOARD_SIZE", "5")
	t.Setenv("X_USER_ID", "bot")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EgressMode != EgressAuto || !cfg.BoardImage || cfg.BoardFont != "/fonts/NanumGothic.ttf" || cfg.LeaderboardSize != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.AllowedRooms) != 2 || !cfg.RoomAllowed("r2") || cfg.RoomAllowed("r3") {
		t.Fatalf("allowed rooms: %v", cfg.AllowedRooms)
	}
	if h := cfg.Headers(); h["X-User-Id"] != "bot" || len(h) != 1 {
		t.Fatalf("headers: %v", h)
	}
}

func TestLoadRequired(t *testing.T) {
	t.Setenv("IRIS_BASE_URL", "")
	t.Setenv("IRIS_WS_URL", "ws://x")
	t.Setenv("BOT_PREFIX", "!")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without IRIS_BASE_URL")
	}
}

func TestLoadBadEgress(t *testing.T) {
	setRequired(t)
	t.Setenv("EGRESS_MODE", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown egress mode")
	}
}
