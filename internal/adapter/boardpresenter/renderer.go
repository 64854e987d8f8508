package boardpresenter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/park285/kakao-tictactoe-bot/internal/assets/fonts"
	"github.com/park285/kakao-tictactoe-bot/pkg/boarddto"
)

const (
	markXSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">` +
		`<path d="M24 24 L76 76 M76 24 L24 76" fill="none" stroke="#e5484d" stroke-width="14" stroke-linecap="round"/></svg>`
	markOSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">` +
		`<circle cx="50" cy="50" r="28" fill="none" stroke="#3e63dd" stroke-width="12"/></svg>`
)

var (
	backgroundColor = color.RGBA{R: 28, G: 31, B: 46, A: 255}
	cellColor       = color.RGBA{R: 245, G: 240, B: 230, A: 255}
	lastMoveColor   = color.NRGBA{R: 255, G: 228, B: 120, A: 150}
	winLineColor    = color.NRGBA{R: 120, G: 220, B: 140, A: 170}
	cellNumberColor = color.NRGBA{R: 170, G: 165, B: 155, A: 255}
	hudTextColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudMutedColor   = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
)

type markKey struct {
	mark string
	size int
}

// Renderer draws a board snapshot as a PNG: a two-line HUD above a 3x3 grid.
type Renderer struct {
	cellSize int
	gap      int
	margin   int
	hud      int
	font     *opentype.Font

	mu    sync.RWMutex
	marks map[markKey]image.Image
}

// NewRenderer draws HUD text with f; nil uses the embedded default font.
func NewRenderer(f *opentype.Font) *Renderer {
	return &Renderer{
		cellSize: 120,
		gap:      6,
		margin:   24,
		hud:      56,
		font:     f,
		marks:    make(map[markKey]image.Image),
	}
}

func (r *Renderer) RenderPNG(ctx context.Context, s *boarddto.BoardState) ([]byte, error) {
	if s == nil {
		return nil, errors.New("board state is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boardSize := r.cellSize*3 + r.gap*2
	width := boardSize + r.margin*2
	height := r.hud + boardSize + r.margin*2
	// 폰트 face 는 동시 사용이 안전하지 않아 렌더마다 새로 만든다
	face, err := fonts.CaptionFace(r.font)
	if err != nil {
		return nil, fmt.Errorf("caption face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	origin := r.boardOrigin()
	r.drawHUD(img, face, s, width)

	winning := make(map[int]bool, len(s.WinLine))
	for _, c := range s.WinLine {
		winning[c] = true
	}
	for i := range s.Cells {
		rect := r.cellRect(origin, i)
		imagedraw.Draw(img, rect, image.NewUniform(cellColor), image.Point{}, imagedraw.Src)
		switch {
		case winning[i]:
			imagedraw.Draw(img, rect, image.NewUniform(winLineColor), image.Point{}, imagedraw.Over)
		case i == s.LastMove:
			imagedraw.Draw(img, rect, image.NewUniform(lastMoveColor), image.Point{}, imagedraw.Over)
		}
		if s.Cells[i] == "" {
			drawCentered(img, face, rect, strconv.Itoa(i+1), cellNumberColor)
			continue
		}
		mark, err := r.markImage(s.Cells[i])
		if err != nil {
			return nil, err
		}
		imagedraw.Draw(img, rect, mark, image.Point{}, imagedraw.Over)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) boardOrigin() image.Point { return image.Pt(r.margin, r.margin+r.hud) }

func (r *Renderer) cellRect(origin image.Point, idx int) image.Rectangle {
	row, col := idx/3, idx%3
	x := origin.X + col*(r.cellSize+r.gap)
	y := origin.Y + row*(r.cellSize+r.gap)
	return image.Rect(x, y, x+r.cellSize, y+r.cellSize)
}

func (r *Renderer) drawHUD(img *image.RGBA, face font.Face, s *boarddto.BoardState, width int) {
	title := fmt.Sprintf("%s (X) vs %s (O)", s.Players[0], s.Players[1])
	var status string
	switch s.Status {
	case boarddto.StatusWon:
		status = s.WinnerName() + " wins"
	case boarddto.StatusTied:
		status = "Tie"
	default:
		status = fmt.Sprintf("Move %d - %s to play", s.MoveCount+1, s.TurnOwner)
	}
	inner := width - r.margin*2
	top := image.Rect(r.margin, r.margin, width-r.margin, r.margin+r.hud/2)
	bottom := image.Rect(r.margin, r.margin+r.hud/2, width-r.margin, r.margin+r.hud)
	drawCentered(img, face, top, truncateWithEllipsis(face, title, inner), hudTextColor)
	drawCentered(img, face, bottom, truncateWithEllipsis(face, status, inner), hudMutedColor)
}

func drawCentered(img *image.RGBA, face font.Face, rect image.Rectangle, text string, clr color.Color) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(clr), Face: face}
	metrics := face.Metrics()
	w := d.MeasureString(text).Round()
	h := (metrics.Ascent + metrics.Descent).Round()
	x := rect.Min.X + (rect.Dx()-w)/2
	y := rect.Min.Y + (rect.Dy()-h)/2 + metrics.Ascent.Round()
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

// markImage rasterizes the X or O icon at cell size, caching the result.
func (r *Renderer) markImage(mark string) (image.Image, error) {
	key := markKey{mark: mark, size: r.cellSize}
	r.mu.RLock()
	img, ok := r.marks[key]
	r.mu.RUnlock()
	if ok {
		return img, nil
	}

	var src string
	switch mark {
	case "X":
		src = markXSVG
	case "O":
		src = markOSVG
	default:
		return nil, fmt.Errorf("unknown mark %q", mark)
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse mark svg: %w", err)
	}
	size := r.cellSize
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	r.mu.Lock()
	r.marks[key] = rgba
	r.mu.Unlock()
	return rgba, nil
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	text = strings.TrimSpace(text)
	d := font.Drawer{Face: face}
	if text == "" || d.MeasureString(text).Round() <= maxWidth {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if candidate := string(runes) + "..."; d.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return "..."
}
