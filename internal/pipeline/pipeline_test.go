package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"quotecanvas/internal/background"
	"quotecanvas/internal/db"
	"quotecanvas/internal/overlay"
	"quotecanvas/internal/quotegen"
	"quotecanvas/internal/variety"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeComposer struct {
	draft quotegen.Draft
	err   error
}

func (f *fakeComposer) Generate(ctx context.Context, seed string) (quotegen.Draft, error) {
	if f.err != nil {
		return quotegen.Draft{}, f.err
	}
	d := f.draft
	d.Seed = seed
	return d, nil
}

type fakeProvider struct {
	png    []byte
	err    error
	prompt string
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.png, nil
}

type fakeStore struct {
	nextID  int64
	quotes  []db.Quote
	updates map[int64][2]string

	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, updates: make(map[int64][2]string)}
}

func (f *fakeStore) CreateQuote(ctx context.Context, params db.CreateQuoteParams) (db.Quote, error) {
	if f.createErr != nil {
		return db.Quote{}, f.createErr
	}
	q := db.Quote{ID: f.nextID, Text: params.Text, ImagePrompt: params.ImagePrompt}
	f.nextID++
	f.quotes = append(f.quotes, q)
	return q, nil
}

func (f *fakeStore) UpdateQuoteImages(ctx context.Context, id int64, raw, overlay string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates[id] = [2]string{raw, overlay}
	return nil
}

type fakeImages struct {
	saved   map[string][]byte
	saveErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{saved: make(map[string][]byte)}
}

func (f *fakeImages) Filenames(quoteID int64) (string, string) {
	return fmt.Sprintf("quote_%d_raw.png", quoteID), fmt.Sprintf("quote_%d_overlay.png", quoteID)
}

func (f *fakeImages) SaveImages(rawPNG, overlayPNG []byte, rawName, overlayName string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[rawName] = rawPNG
	f.saved[overlayName] = overlayPNG
	return nil
}

func newTestPipeline(t *testing.T, store *fakeStore, images *fakeImages, provider *fakeProvider) *Pipeline {
	t.Helper()
	return New(Config{
		Composer: &fakeComposer{draft: quotegen.Draft{
			Text:        "Build the thing that matters.",
			ImagePrompt: "a workshop at dawn",
		}},
		Provider: provider,
		Engine:   overlay.New(overlay.NewFontStack(), overlay.DefaultOptions()),
		Store:    store,
		Images:   images,
	})
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("persists quote and both images", func(t *testing.T) {
		store := newFakeStore()
		images := newFakeImages()
		provider := &fakeProvider{png: encodePNG(t, 1024, 1024, color.RGBA{20, 60, 90, 255})}

		result, err := newTestPipeline(t, store, images, provider).Run(ctx, "grit")
		require.NoError(t, err)

		assert.Equal(t, "a workshop at dawn", provider.prompt)
		assert.Equal(t, int64(1), result.Quote.ID)
		assert.Equal(t, "quote_1_raw.png", result.Quote.RawImageFilename)
		assert.Equal(t, "quote_1_overlay.png", result.Quote.OverlayImageFilename)

		// Composite keeps the background dimensions
		composite, _, err := image.Decode(bytes.NewReader(result.OverlayPNG))
		require.NoError(t, err)
		assert.Equal(t, 1024, composite.Bounds().Dx())
		assert.Equal(t, 1024, composite.Bounds().Dy())

		// Raw image is stored unmodified
		assert.Equal(t, provider.png, images.saved["quote_1_raw.png"])
		assert.Equal(t, [2]string{"quote_1_raw.png", "quote_1_overlay.png"}, store.updates[1])
	})

	t.Run("generation failure persists nothing", func(t *testing.T) {
		store := newFakeStore()
		images := newFakeImages()
		p := New(Config{
			Composer: &fakeComposer{err: fmt.Errorf("%w: model down", quotegen.ErrGeneration)},
			Provider: &fakeProvider{},
			Engine:   overlay.New(overlay.NewFontStack(), overlay.DefaultOptions()),
			Store:    store,
			Images:   images,
		})

		_, err := p.Run(ctx, "")
		assert.ErrorIs(t, err, quotegen.ErrGeneration)
		assert.Empty(t, store.quotes)
		assert.Empty(t, images.saved)
	})

	t.Run("background failure persists nothing", func(t *testing.T) {
		store := newFakeStore()
		images := newFakeImages()
		provider := &fakeProvider{err: fmt.Errorf("%w: quota exhausted", background.ErrImageGeneration)}

		_, err := newTestPipeline(t, store, images, provider).Run(ctx, "")
		assert.ErrorIs(t, err, background.ErrImageGeneration)
		assert.Empty(t, store.quotes)
		assert.Empty(t, images.saved)
	})

	t.Run("undecodable background is an image generation failure", func(t *testing.T) {
		store := newFakeStore()
		images := newFakeImages()
		provider := &fakeProvider{png: []byte("not a png")}

		_, err := newTestPipeline(t, store, images, provider).Run(ctx, "")
		assert.ErrorIs(t, err, background.ErrImageGeneration)
		assert.Empty(t, store.quotes)
	})

	t.Run("database failure surfaces as persistence error", func(t *testing.T) {
		store := newFakeStore()
		store.createErr = errors.New("disk full")
		images := newFakeImages()
		provider := &fakeProvider{png: encodePNG(t, 64, 64, color.RGBA{0, 0, 0, 255})}

		_, err := newTestPipeline(t, store, images, provider).Run(ctx, "")
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Empty(t, images.saved)
	})

	t.Run("image save failure surfaces as persistence error", func(t *testing.T) {
		store := newFakeStore()
		images := newFakeImages()
		images.saveErr = errors.New("read-only filesystem")
		provider := &fakeProvider{png: encodePNG(t, 64, 64, color.RGBA{0, 0, 0, 255})}

		_, err := newTestPipeline(t, store, images, provider).Run(ctx, "")
		assert.ErrorIs(t, err, ErrPersistence)
	})
}

// scriptedGenerator feeds canned completions to the real composer.
type scriptedGenerator struct {
	replies []string
	calls   []string
}

func (g *scriptedGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	g.calls = append(g.calls, user)
	reply := g.replies[len(g.calls)-1]
	return reply, nil
}

type staticHistory struct{ texts []string }

func (s *staticHistory) RecentQuoteTexts(ctx context.Context, n int) ([]string, error) {
	if len(s.texts) > n {
		return s.texts[:n], nil
	}
	return s.texts, nil
}

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()

	// Three prior quotes, newest first, feed the variety tracker.
	history := &staticHistory{texts: []string{"third quote", "second quote", "first quote"}}
	tracker := variety.New(history, 20)

	examples, err := tracker.NegativeExamples(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"third quote", "second quote", "first quote"}, examples)

	gen := &scriptedGenerator{replies: []string{
		"Lead from the front, not from the org chart.",
		"A mountain trail at first light, mist in the valley below.",
	}}
	composer := quotegen.New(quotegen.Config{Generator: gen, Recent: tracker})

	store := newFakeStore()
	images := newFakeImages()
	provider := &fakeProvider{png: encodePNG(t, 1024, 1024, color.RGBA{200, 200, 200, 255})}

	p := New(Config{
		Composer: composer,
		Provider: provider,
		Engine:   overlay.New(overlay.NewFontStack(), overlay.DefaultOptions()),
		Store:    store,
		Images:   images,
	})

	result, err := p.Run(ctx, "leadership")
	require.NoError(t, err)

	// The quote call saw the seed and all three negative examples.
	require.Len(t, gen.calls, 2)
	assert.Contains(t, gen.calls[0], "inspired by: leadership")
	assert.Contains(t, gen.calls[0], "third quote, second quote, first quote")

	assert.NotEmpty(t, result.Quote.Text)
	assert.NotEmpty(t, result.Quote.ImagePrompt)

	// 1024x1024 background yields a 1024x1024 composite with a visible
	// backing panel: some band of pixels darker than the background.
	composite, _, err := image.Decode(bytes.NewReader(result.OverlayPNG))
	require.NoError(t, err)
	assert.Equal(t, 1024, composite.Bounds().Dx())
	assert.Equal(t, 1024, composite.Bounds().Dy())

	darkened := 0
	for y := 0; y < 1024; y++ {
		for x := 0; x < 1024; x++ {
			if r, _, _, _ := composite.At(x, y).RGBA(); r < 0x9000 {
				darkened++
			}
		}
	}
	assert.Greater(t, darkened, 1000, "expected a visible backing panel")
}
