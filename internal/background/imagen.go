// Package background renders quote backgrounds through Google's Imagen
// image-generation API. The rest of the system only consumes the returned
// PNG bytes and never inspects the provider.
package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// ErrImageGeneration is returned when the image model fails, rejects the
// prompt, or returns no image bytes.
var ErrImageGeneration = errors.New("background image generation failed")

const defaultModel = "imagen-4.0-generate-001"

// ImagenConfig holds configuration for the Imagen provider.
type ImagenConfig struct {
	APIKey string
	Model  string
}

// ImagenProvider generates square PNG backgrounds from text prompts.
type ImagenProvider struct {
	client *genai.Client
	model  string
}

// NewImagenProvider creates a new Imagen provider.
func NewImagenProvider(ctx context.Context, cfg ImagenConfig) (*ImagenProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &ImagenProvider{client: client, model: model}, nil
}

// Generate renders a 1:1 PNG background image for the prompt.
func (p *ImagenProvider) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", ErrImageGeneration)
	}

	slog.Info("generating background image", "model", p.model, "prompt_len", len(prompt))

	resp, err := p.client.Models.GenerateImages(ctx, p.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		OutputMIMEType:   "image/png",
		AspectRatio:      "1:1",
		PersonGeneration: genai.PersonGenerationAllowAdult,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageGeneration, err)
	}

	if len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("%w: model returned no images", ErrImageGeneration)
	}
	img := resp.GeneratedImages[0].Image
	if img == nil || len(img.ImageBytes) == 0 {
		return nil, fmt.Errorf("%w: model returned no image bytes", ErrImageGeneration)
	}

	return img.ImageBytes, nil
}
