package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestDefaultFace(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	again, _ := Default()
	if f != again {
		t.Fatalf("default font parsed twice")
	}
	face, err := CaptionFace(nil)
	if err != nil {
		t.Fatalf("CaptionFace: %v", err)
	}
	defer face.Close()
	if adv, ok := face.GlyphAdvance('A'); !ok || adv <= 0 {
		t.Fatalf("no advance for 'A'")
	}
	if h := face.Metrics().Height.Round(); h < CaptionSize {
		t.Fatalf("line height = %d", h)
	}
}

func TestCovers(t *testing.T) {
	if !Covers(nil, "Alice (X) vs Bob (O)") {
		t.Fatalf("default font should cover ASCII")
	}
	// Go Regular has no Hangul; BOARD_FONT must point at a font that does
	if Covers(nil, "철수") {
		t.Fatalf("default font unexpectedly covers Hangul")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !Covers(f, "Move 3") {
		t.Fatalf("loaded font should cover ASCII")
	}

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatalf("expected read error")
	}
}
