// Package pipeline runs one quote-image generation request end to end:
// recent history conditions the quote, the quote drives an image prompt,
// the prompt renders a background, the overlay engine composites the
// text, and only then is anything persisted. Each stage fails fast with
// its own error; a failed request leaves no partial state behind.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"quotecanvas/internal/background"
	"quotecanvas/internal/db"
	"quotecanvas/internal/overlay"
	"quotecanvas/internal/quotegen"
)

// ErrPersistence is returned when the database or image store fails after
// a composite has been produced.
var ErrPersistence = errors.New("quote persistence failed")

// Composer produces a quote draft for an optional seed.
type Composer interface {
	Generate(ctx context.Context, seed string) (quotegen.Draft, error)
}

// BackgroundProvider renders a background image as PNG bytes.
type BackgroundProvider interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// OverlayEngine composites quote text onto a background.
type OverlayEngine interface {
	Compose(bg image.Image, text string) (*image.RGBA, error)
}

// QuoteStore persists quote rows.
type QuoteStore interface {
	CreateQuote(ctx context.Context, params db.CreateQuoteParams) (db.Quote, error)
	UpdateQuoteImages(ctx context.Context, id int64, rawFilename, overlayFilename string) error
}

// ImageStore persists the image files belonging to a quote.
type ImageStore interface {
	Filenames(quoteID int64) (raw, overlay string)
	SaveImages(rawPNG, overlayPNG []byte, rawName, overlayName string) error
}

// Pipeline wires the stages of one generation request. Instances are
// stateless and safe for concurrent use; the store is the only shared
// resource.
type Pipeline struct {
	composer Composer
	provider BackgroundProvider
	engine   OverlayEngine
	store    QuoteStore
	images   ImageStore
}

// Config holds the pipeline's collaborators.
type Config struct {
	Composer Composer
	Provider BackgroundProvider
	Engine   OverlayEngine
	Store    QuoteStore
	Images   ImageStore
}

// New creates a new Pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		composer: cfg.Composer,
		provider: cfg.Provider,
		engine:   cfg.Engine,
		store:    cfg.Store,
		images:   cfg.Images,
	}
}

// Result is a completed generation request.
type Result struct {
	Quote      db.Quote
	RawPNG     []byte
	OverlayPNG []byte
}

// Run executes the pipeline for one request. Cancellation before the
// persist stage leaves nothing behind.
func (p *Pipeline) Run(ctx context.Context, seed string) (*Result, error) {
	draft, err := p.composer.Generate(ctx, seed)
	if err != nil {
		return nil, err
	}

	rawPNG, err := p.provider.Generate(ctx, draft.ImagePrompt)
	if err != nil {
		return nil, err
	}

	bg, _, err := image.Decode(bytes.NewReader(rawPNG))
	if err != nil {
		return nil, fmt.Errorf("%w: decode background: %v", background.ErrImageGeneration, err)
	}

	composite, err := p.engine.Compose(bg, draft.Text)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, composite); err != nil {
		return nil, fmt.Errorf("%w: encode composite: %v", overlay.ErrRender, err)
	}

	// Persist only now that a complete composite exists.
	quote, err := p.store.CreateQuote(ctx, db.CreateQuoteParams{
		Text:        draft.Text,
		Seed:        draft.Seed,
		ImagePrompt: draft.ImagePrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	rawName, overlayName := p.images.Filenames(quote.ID)
	if err := p.images.SaveImages(rawPNG, buf.Bytes(), rawName, overlayName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := p.store.UpdateQuoteImages(ctx, quote.ID, rawName, overlayName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	quote.RawImageFilename = rawName
	quote.OverlayImageFilename = overlayName

	slog.Info("generated quote image",
		"id", quote.ID,
		"text", quote.Text,
		"raw", rawName,
		"overlay", overlayName,
	)

	return &Result{Quote: quote, RawPNG: rawPNG, OverlayPNG: buf.Bytes()}, nil
}
