// Package fonts 는 보드 이미지 HUD 에 쓰는 글꼴을 제공합니다.
// 기본은 내장 Go Regular 이고, 한글 닉네임을 그리려면 BOARD_FONT 로 한글 TTF/OTF 를 지정합니다.
package fonts

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

const CaptionSize = 15

var (
	defaultOnce sync.Once
	defaultFont *opentype.Font
	defaultErr  error
)

// Default returns the embedded Go Regular font, parsed once.
func Default() (*opentype.Font, error) {
	defaultOnce.Do(func() {
		defaultFont, defaultErr = opentype.Parse(goregular.TTF)
	})
	return defaultFont, defaultErr
}

// Load parses a TTF or OTF file, e.g. NanumGothic for Hangul names.
func Load(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// CaptionFace returns a new face for f at CaptionSize. A face is not safe for concurrent use;
// callers create one per render.
func CaptionFace(f *opentype.Font) (font.Face, error) {
	if f == nil {
		var err error
		if f, err = Default(); err != nil {
			return nil, err
		}
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: CaptionSize, DPI: 72, Hinting: font.HintingFull})
}

// Covers reports whether f (nil for the default) has a glyph for every rune of s.
func Covers(f *opentype.Font, s string) bool {
	if f == nil {
		var err error
		if f, err = Default(); err != nil {
			return false
		}
	}
	var buf sfnt.Buffer
	for _, r := range s {
		// index 0 is .notdef
		if idx, err := f.GlyphIndex(&buf, r); err != nil || idx == 0 {
			return false
		}
	}
	return true
}
