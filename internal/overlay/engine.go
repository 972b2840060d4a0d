// Package overlay composites quote text onto background images. Font
// size adapts to the canvas, lines wrap to a pixel width, and a
// semi-transparent panel behind the text guarantees contrast against
// arbitrary imagery. Missing fonts degrade to a bitmap fallback, never to
// an error.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// ErrRender is returned only for unrecoverable compositing failures: a
// zero-sized canvas or text that is empty after trimming.
var ErrRender = errors.New("render failed")

// Options tune the overlay. Zero fields fall back to DefaultOptions
// values.
type Options struct {
	MaxFontFraction float64 // largest candidate font size as a fraction of min(width, height)
	MinFontPx       int     // font size floor
	MarginFraction  float64 // safety margin on each side as a fraction of that dimension
	LineSpacing     float64 // gap between lines as a fraction of the font size
	PanelPadding    float64 // panel padding around the text block as a fraction of the font size
	PanelOpacity    uint8   // backing panel alpha (white text on a dark panel)
	MinBitmapPx     int     // line height the bitmap fallback is upscaled to reach
}

// DefaultOptions returns the production overlay tuning.
func DefaultOptions() Options {
	return Options{
		MaxFontFraction: 0.08,
		MinFontPx:       14,
		MarginFraction:  0.09,
		LineSpacing:     0.2,
		PanelPadding:    0.6,
		PanelOpacity:    180,
		MinBitmapPx:     14,
	}
}

// Engine composites quote text onto backgrounds. Safe for concurrent use;
// it holds no per-render state.
type Engine struct {
	fonts *FontStack
	opts  Options
}

// New creates an Engine. A nil font stack gets the embedded fonts only.
func New(fonts *FontStack, opts Options) *Engine {
	if fonts == nil {
		fonts = NewFontStack()
	}
	def := DefaultOptions()
	if opts.MaxFontFraction <= 0 {
		opts.MaxFontFraction = def.MaxFontFraction
	}
	if opts.MinFontPx <= 0 {
		opts.MinFontPx = def.MinFontPx
	}
	if opts.MarginFraction <= 0 {
		opts.MarginFraction = def.MarginFraction
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = def.LineSpacing
	}
	if opts.PanelPadding <= 0 {
		opts.PanelPadding = def.PanelPadding
	}
	if opts.PanelOpacity == 0 {
		opts.PanelOpacity = def.PanelOpacity
	}
	if opts.MinBitmapPx <= 0 {
		opts.MinBitmapPx = def.MinBitmapPx
	}
	return &Engine{fonts: fonts, opts: opts}
}

// layout is the wrapped text block at one candidate font size.
type layout struct {
	lines      []string
	lineWidths []int
	blockW     int
	blockH     int
	lineHeight int
	ascent     int
	gap        int
}

// Compose draws text over a copy of background and returns the copy. The
// result has the background's dimensions; the background itself is never
// modified.
func (e *Engine) Compose(background image.Image, text string) (*image.RGBA, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrRender)
	}

	bounds := background.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: zero-size canvas %dx%d", ErrRender, w, h)
	}

	// Work on a copy; the caller keeps the unmodified background.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), background, bounds.Min, draw.Src)

	maxTextW := int(float64(w) * (1 - 2*e.opts.MarginFraction))
	if maxTextW < 1 {
		maxTextW = 1
	}
	maxTextH := int(float64(h) * (1 - 2*e.opts.MarginFraction))
	if maxTextH < 1 {
		maxTextH = 1
	}

	face, outline, lay, px := e.fitText(text, maxTextW, maxTextH, min(w, h))
	if lay.blockW > maxTextW || lay.blockH > maxTextH {
		slog.Warn("quote overflows margins at minimum font size, clipping",
			"font_px", px, "block_w", lay.blockW, "block_h", lay.blockH,
			"canvas_w", w, "canvas_h", h)
	}
	if !outline {
		slog.Warn("no outline font available, using bitmap fallback")
	}

	pad := int(float64(px) * e.opts.PanelPadding)
	if pad < 2 {
		pad = 2
	}

	if !outline && lay.lineHeight < e.opts.MinBitmapPx {
		if e.drawUpscaledBlock(dst, face, lay, pad) {
			return dst, nil
		}
	}

	blockX := (w - lay.blockW) / 2
	blockY := (h - lay.blockH) / 2

	panel := image.Rect(blockX-pad, blockY-pad, blockX+lay.blockW+pad, blockY+lay.blockH+pad)
	draw.Draw(dst, panel.Intersect(dst.Bounds()),
		image.NewUniform(color.NRGBA{A: e.opts.PanelOpacity}), image.Point{}, draw.Over)

	drawer := &font.Drawer{Dst: dst, Src: image.White, Face: face}
	y := blockY + lay.ascent
	for i, line := range lay.lines {
		drawer.Dot = fixed.P((w-lay.lineWidths[i])/2, y)
		drawer.DrawString(line)
		y += lay.lineHeight + lay.gap
	}

	slog.Debug("composed overlay", "font_px", px, "lines", len(lay.lines), "outline", outline)

	return dst, nil
}

// fitText searches downward from the maximum candidate font size until
// the wrapped block fits inside the margins or the floor is reached. The
// bitmap fallback has a fixed size, so its first layout is final.
func (e *Engine) fitText(text string, maxTextW, maxTextH, minDim int) (font.Face, bool, layout, int) {
	maxPx := int(float64(minDim) * e.opts.MaxFontFraction)
	if maxPx < e.opts.MinFontPx {
		maxPx = e.opts.MinFontPx
	}

	for px := maxPx; ; px-- {
		face, outline := e.fonts.Face(float64(px))
		lay := layoutText(face, text, maxTextW, int(float64(px)*e.opts.LineSpacing))
		if !outline ||
			(lay.blockW <= maxTextW && lay.blockH <= maxTextH) ||
			px <= e.opts.MinFontPx {
			return face, outline, lay, px
		}
	}
}

// layoutText wraps text for the face and returns the resulting block.
// Words pack greedily into lines no wider than maxWidth; a single word
// wider than maxWidth gets its own line rather than being broken.
func layoutText(face font.Face, text string, maxWidth, gap int) layout {
	metrics := face.Metrics()
	lay := layout{
		lineHeight: (metrics.Ascent + metrics.Descent).Ceil(),
		ascent:     metrics.Ascent.Ceil(),
		gap:        gap,
	}

	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			if font.MeasureString(face, candidate).Ceil() <= maxWidth {
				current = candidate
			} else {
				lay.lines = append(lay.lines, current)
				current = word
			}
		}
		lay.lines = append(lay.lines, current)
	}

	for _, line := range lay.lines {
		width := font.MeasureString(face, line).Ceil()
		lay.lineWidths = append(lay.lineWidths, width)
		if width > lay.blockW {
			lay.blockW = width
		}
	}
	lay.blockH = len(lay.lines)*lay.lineHeight + (len(lay.lines)-1)*lay.gap

	return lay
}

// drawUpscaledBlock renders the panel and text at the bitmap font's
// native size and scales the block up with nearest-neighbour so the text
// stays readable. Reports false when no integer factor fits the canvas,
// in which case the caller draws at native size.
func (e *Engine) drawUpscaledBlock(dst *image.RGBA, face font.Face, lay layout, pad int) bool {
	w := dst.Bounds().Dx()
	h := dst.Bounds().Dy()

	blockW := lay.blockW + 2*pad
	blockH := lay.blockH + 2*pad

	factor := (e.opts.MinBitmapPx + lay.lineHeight - 1) / lay.lineHeight
	for factor > 1 && (blockW*factor > w || blockH*factor > h) {
		factor--
	}
	if factor <= 1 {
		return false
	}

	block := image.NewRGBA(image.Rect(0, 0, blockW, blockH))
	draw.Draw(block, block.Bounds(),
		image.NewUniform(color.NRGBA{A: e.opts.PanelOpacity}), image.Point{}, draw.Src)

	drawer := &font.Drawer{Dst: block, Src: image.White, Face: face}
	y := pad + lay.ascent
	for i, line := range lay.lines {
		drawer.Dot = fixed.P(pad+(lay.blockW-lay.lineWidths[i])/2, y)
		drawer.DrawString(line)
		y += lay.lineHeight + lay.gap
	}

	scaled := image.NewRGBA(image.Rect(0, 0, blockW*factor, blockH*factor))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), block, block.Bounds(), xdraw.Src, nil)

	offset := image.Pt((w-scaled.Bounds().Dx())/2, (h-scaled.Bounds().Dy())/2)
	draw.Draw(dst, scaled.Bounds().Add(offset), scaled, image.Point{}, draw.Over)

	slog.Debug("upscaled bitmap text block", "factor", factor)

	return true
}
