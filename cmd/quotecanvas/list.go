package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quotecanvas/internal/config"
	"quotecanvas/internal/db"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored quotes",
	Long:  `Display the quotes in the database, most recent first.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
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

	quotes, err := store.ListQuotes(ctx)
	if err != nil {
		return fmt.Errorf("list quotes: %w", err)
	}

	if len(quotes) == 0 {
		fmt.Println("No quotes stored yet.")
		return nil
	}

	fmt.Printf("=== %d quotes ===\n", len(quotes))
	fmt.Println()
	for _, q := range quotes {
		fmt.Printf("[%d] %s\n", q.ID, q.Text)
		fmt.Printf("    Generated: %s\n", q.DateGenerated)
		if q.Seed.Valid {
			fmt.Printf("    Seed: %s\n", q.Seed.String)
		}
		if q.OverlayImageFilename != "" {
			fmt.Printf("    Image: %s\n", q.OverlayImageFilename)
		}
		fmt.Println()
	}

	return nil
}
