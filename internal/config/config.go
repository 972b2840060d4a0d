package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Storage
	DatabasePath string
	ImagesDir    string

	// OpenAI (quote and image-prompt generation)
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Imagen (background generation)
	GeminiAPIKey string
	ImagenModel  string

	// HTTP server
	HTTPAddr string
	APIToken string

	// Generation settings
	RecentQuoteLimit int
	GenerateInterval time.Duration

	// Overlay settings
	FontPaths []string

	// Logging
	LogLevel string
}

// DefaultFontPaths are the outline fonts tried, in order, before the
// embedded Go fonts.
var DefaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/freefont/FreeSans.ttf",
	"/usr/share/fonts/truetype/ubuntu/Ubuntu-B.ttf",
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath: getEnv("DATABASE_PATH", "data/quotecanvas.db"),
		ImagesDir:    getEnv("IMAGES_DIR", "generated_images"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		ImagenModel:  getEnv("IMAGEN_MODEL", "imagen-4.0-generate-001"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8101"),
		APIToken:     getEnv("API_TOKEN", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		FontPaths:    splitPaths(getEnv("FONT_PATHS", "")),
	}

	if len(cfg.FontPaths) == 0 {
		cfg.FontPaths = DefaultFontPaths
	}

	// Parse integers
	limit, err := strconv.Atoi(getEnv("RECENT_QUOTE_LIMIT", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECENT_QUOTE_LIMIT: %w", err)
	}
	cfg.RecentQuoteLimit = limit

	// Parse durations; 0 disables the interval generator in serve mode.
	cfg.GenerateInterval, err = time.ParseDuration(getEnv("GENERATE_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATE_INTERVAL: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.ImagesDir == "" {
		return fmt.Errorf("IMAGES_DIR is required")
	}
	if c.RecentQuoteLimit < 0 {
		return fmt.Errorf("RECENT_QUOTE_LIMIT must not be negative")
	}
	return nil
}

// ValidateForQuotes checks configuration needed for quote text generation.
func (c *Config) ValidateForQuotes() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for quote generation")
	}
	return nil
}

// ValidateForGeneration checks configuration needed for the full
// quote-image pipeline.
func (c *Config) ValidateForGeneration() error {
	if err := c.ValidateForQuotes(); err != nil {
		return err
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for background generation")
	}
	return nil
}

// ValidateForServe checks all configuration needed for serve mode.
func (c *Config) ValidateForServe() error {
	if err := c.ValidateForGeneration(); err != nil {
		return err
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// splitPaths splits a comma-separated path list, dropping empty entries.
func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
