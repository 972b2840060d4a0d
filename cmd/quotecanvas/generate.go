package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"quotecanvas/internal/app"
	"quotecanvas/internal/config"
	"quotecanvas/internal/db"
	"quotecanvas/internal/quotegen"
	"quotecanvas/internal/variety"
)

var (
	generateSeed   string
	generateDryRun bool
	generateOut    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one quote image",
	Long: `Generate a quote, paint a background for it, overlay the text,
and store the result.

Examples:
  quotecanvas generate                       # Full pipeline
  quotecanvas generate --seed leadership     # Steer the quote topic
  quotecanvas generate --dry-run             # Quote and prompt only, nothing stored
  quotecanvas generate --out today.png       # Also write the composite here`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateSeed, "seed", "", "Optional topic hint for the quote")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Generate the quote and image prompt without images or storage")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Also write the composite PNG to this path")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if generateDryRun {
		return runGenerateDryRun(ctx, cfg)
	}

	if err := cfg.ValidateForGeneration(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer a.Close()

	slog.Info("starting generation", "seed", generateSeed)

	result, err := a.Pipeline.Run(ctx, generateSeed)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Quote ===")
	fmt.Println()
	fmt.Println(result.Quote.Text)
	fmt.Println()
	fmt.Printf("ID: %d\n", result.Quote.ID)
	fmt.Printf("Image prompt: %s\n", result.Quote.ImagePrompt)
	fmt.Printf("Raw image: %s\n", result.Quote.RawImageFilename)
	fmt.Printf("Overlay image: %s\n", result.Quote.OverlayImageFilename)

	if generateOut != "" {
		if err := os.WriteFile(generateOut, result.OverlayPNG, 0644); err != nil {
			return fmt.Errorf("write composite: %w", err)
		}
		fmt.Printf("Composite written to %s\n", generateOut)
	}

	return nil
}

// runGenerateDryRun runs the text stage only, against the real quote
// history, and prints what a full run would have used.
func runGenerateDryRun(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateForQuotes(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	composer := quotegen.New(quotegen.Config{
		Generator: quotegen.NewOpenAIClient(quotegen.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}),
		Recent: variety.New(store, cfg.RecentQuoteLimit),
	})

	draft, err := composer.Generate(ctx, generateSeed)
	if err != nil {
		return fmt.Errorf("generate quote: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Quote ===")
	fmt.Println()
	fmt.Println(draft.Text)
	fmt.Println()
	fmt.Printf("Image prompt: %s\n", draft.ImagePrompt)
	fmt.Println()
	fmt.Println("=== DRY RUN - Nothing stored ===")
	return nil
}
