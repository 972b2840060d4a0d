// Package quotegen generates quote text and a matching image prompt
// through a text-generation model, conditioned on recent history so that
// new quotes do not repeat old ones.
package quotegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrGeneration is returned when the text model fails or produces an
// empty result. The composer does not retry; retry policy belongs to the
// generator or the caller.
var ErrGeneration = errors.New("quote generation failed")

// TextGenerator produces a completion for a system/user prompt pair.
type TextGenerator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NegativeSource supplies recent quote texts to steer generation away
// from, most recent first.
type NegativeSource interface {
	NegativeExamples(ctx context.Context) ([]string, error)
}

// Draft is a generated quote before persistence assigns its identity.
type Draft struct {
	Text        string
	Seed        string
	ImagePrompt string
}

// Composer orchestrates the two generation calls for one quote: the quote
// text itself, then an image prompt derived from it. It has no side
// effects beyond those calls and never persists anything.
type Composer struct {
	gen    TextGenerator
	recent NegativeSource
}

// Config holds configuration for the composer.
type Config struct {
	Generator TextGenerator
	Recent    NegativeSource
}

// New creates a new Composer.
func New(cfg Config) *Composer {
	return &Composer{
		gen:    cfg.Generator,
		recent: cfg.Recent,
	}
}

// Generate produces a quote draft for the optional seed. Both generation
// calls run sequentially; the first failure aborts.
func (c *Composer) Generate(ctx context.Context, seed string) (Draft, error) {
	var negatives []string
	if c.recent != nil {
		var err error
		negatives, err = c.recent.NegativeExamples(ctx)
		if err != nil {
			return Draft{}, fmt.Errorf("%w: load negative examples: %v", ErrGeneration, err)
		}
	}

	text, err := c.gen.Complete(ctx, quoteSystemPrompt, quoteUserPrompt(seed, negatives))
	if err != nil {
		return Draft{}, fmt.Errorf("%w: quote text: %v", ErrGeneration, err)
	}
	text = firstLine(text)
	if text == "" {
		return Draft{}, fmt.Errorf("%w: model returned an empty quote", ErrGeneration)
	}

	slog.Debug("generated quote text", "text", text, "negative_examples", len(negatives))

	prompt, err := c.gen.Complete(ctx, imagePromptSystemPrompt, imageUserPrompt(text))
	if err != nil {
		return Draft{}, fmt.Errorf("%w: image prompt: %v", ErrGeneration, err)
	}
	prompt = firstLine(prompt)
	if prompt == "" {
		return Draft{}, fmt.Errorf("%w: model returned an empty image prompt", ErrGeneration)
	}

	slog.Info("composed quote", "text", text, "image_prompt", prompt)

	return Draft{Text: text, Seed: seed, ImagePrompt: prompt}, nil
}

// firstLine trims the completion to its first non-empty line. Models
// occasionally wrap output in blank lines or append commentary.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
