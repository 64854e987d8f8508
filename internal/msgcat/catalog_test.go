package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{
		"help", "unknown", "usage.start", "usage.move",
		"game.started", "game.your_turn", "game.won", "game.tied", "game.ended",
		"error.already_exists", "error.not_found", "error.nothing_to_end", "error.game_over", "error.invalid_cell",
		"error.not_your_turn", "error.cell_taken", "error.invalid_args", "error.internal",
		"stats.unavailable", "stats.record", "stats.top_header", "stats.top_line", "stats.top_empty",
	} {
		if !c.Has(key) {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestRender(t *testing.T) {
	c := Must()
	got, err := c.Render("error.not_your_turn", map[string]any{"Player": "Bob", "Owner": "Alice"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "It's not your turn, Bob. Waiting for Alice." {
		t.Fatalf("got %q", got)
	}

	help, err := c.Render("help", map[string]any{"Prefix": "!ttt "})
	if err != nil {
		t.Fatalf("Render help: %v", err)
	}
	if strings.HasSuffix(help, "\n") || !strings.Contains(help, "!ttt move <cell number>") {
		t.Fatalf("unexpected help %q", help)
	}
}

func TestRenderMissing(t *testing.T) {
	c := Must()
	if _, err := c.Render("nope", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("error.not_your_turn", map[string]any{"Player": "Bob"}); err == nil {
		t.Fatalf("expected error for missing field")
	}
	if got := c.RenderOr("nope", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
	var nilCat *Catalog
	if got := nilCat.RenderOr("help", nil, "fb"); got != "fb" {
		t.Fatalf("nil RenderOr = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "game:\n  tied: \"무승부!\"\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Render("game.tied", nil); got != "무승부!" {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("game.ended", nil); got != "The current Tic Tac Toe game has been ended." {
		t.Fatalf("default lost: %q", got)
	}
}

func TestOverrideDuplicate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "game:\n  tied: a\n")
	writeFile(t, filepath.Join(dir, "b.yml"), "game:\n  tied: b\n")
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestOverrideBadValue(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "game:\n  tied: [1, 2]\n")
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for non-string value")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
