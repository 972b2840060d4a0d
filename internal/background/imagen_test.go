package background

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImagenProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an api key", func(t *testing.T) {
		_, err := NewImagenProvider(ctx, ImagenConfig{})
		assert.ErrorContains(t, err, "api key")
	})

	t.Run("defaults the model", func(t *testing.T) {
		p, err := NewImagenProvider(ctx, ImagenConfig{APIKey: "test-key"})
		require.NoError(t, err)
		assert.Equal(t, defaultModel, p.model)
	})
}

func TestImagenProvider_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an empty prompt without calling the API", func(t *testing.T) {
		p, err := NewImagenProvider(ctx, ImagenConfig{APIKey: "test-key"})
		require.NoError(t, err)

		_, err = p.Generate(ctx, "   ")
		assert.ErrorIs(t, err, ErrImageGeneration)
	})
}
