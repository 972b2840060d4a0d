package app

import (
	"context"

	"quotecanvas/internal/background"
	"quotecanvas/internal/config"
	"quotecanvas/internal/db"
	"quotecanvas/internal/overlay"
	"quotecanvas/internal/pipeline"
	"quotecanvas/internal/quotegen"
	"quotecanvas/internal/storage"
	"quotecanvas/internal/variety"
)

// App is the main application container holding all dependencies.
type App struct {
	Config   *config.Config
	Store    *db.Store
	Images   *storage.ImageStore
	Composer *quotegen.Composer
	Pipeline *pipeline.Pipeline
}

// New creates a new application instance with all dependencies wired up.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Create database connection
	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	// Create image file store
	images, err := storage.New(cfg.ImagesDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	// Create the composer over the recent-quote window
	tracker := variety.New(store, cfg.RecentQuoteLimit)
	composer := quotegen.New(quotegen.Config{
		Generator: quotegen.NewOpenAIClient(quotegen.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}),
		Recent: tracker,
	})

	// Create background provider
	provider, err := background.NewImagenProvider(ctx, background.ImagenConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.ImagenModel,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	// Create overlay engine
	engine := overlay.New(overlay.NewFontStack(cfg.FontPaths...), overlay.DefaultOptions())

	return &App{
		Config:   cfg,
		Store:    store,
		Images:   images,
		Composer: composer,
		Pipeline: pipeline.New(pipeline.Config{
			Composer: composer,
			Provider: provider,
			Engine:   engine,
			Store:    store,
			Images:   images,
		}),
	}, nil
}

// Close closes all resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
