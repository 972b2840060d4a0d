package quotegen

import (
	"fmt"
	"strings"
)

// quoteSystemPrompt is the system prompt for quote text generation.
const quoteSystemPrompt = `You are a helpful assistant that produces a single concise quote that is: random, daily, wise, likely to go viral, and actionable business advice. Return only the quote text, do not include quotation marks or attribution.`

// imagePromptSystemPrompt is the system prompt for turning a quote into an
// image-generation prompt.
const imagePromptSystemPrompt = `You are a helpful assistant that produces prompts for AIs to create the most amazing viral images for quotes. You have expert knowledge of what makes an image shareable and viral. You are a marketing wizard and will make images that are shared everywhere.`

// quoteUserPrompt builds the user prompt for quote generation. Negative
// examples are listed most recent first so the model weighs the freshest
// history hardest.
func quoteUserPrompt(seed string, negatives []string) string {
	var b strings.Builder
	b.WriteString("Create one short (max 20 words) business advice quote")
	if seed != "" {
		fmt.Fprintf(&b, " inspired by: %s", seed)
	}
	if len(negatives) > 0 {
		b.WriteString("\n\nDo NOT create anything similar to these recent quotes, listed most recent first: ")
		b.WriteString(strings.Join(negatives, ", "))
	}
	return b.String()
}

// imageUserPrompt builds the user prompt asking for a background-image
// description for the given quote.
func imageUserPrompt(quote string) string {
	var b strings.Builder
	b.WriteString("Write a single-line prompt for an image generation model: a striking, cinematic background image to accompany a business quote. ")
	b.WriteString("Describe the scene, mood, lighting and composition. ")
	b.WriteString("The image must not contain any text, lettering or watermarks, since the quote will be composited on top of it.\n\n")
	fmt.Fprintf(&b, "The quote: %s", quote)
	return b.String()
}
