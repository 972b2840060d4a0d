package quotegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultModel = "gpt-4o"

// OpenAIClient implements TextGenerator using the official openai-go SDK
// (chat completions). Transient API failures are retried here, inside the
// collaborator, so the composer stays retry-free.
type OpenAIClient struct {
	client   openai.Client
	model    string
	attempts uint
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	Attempts uint // completion attempts per call (default 3)
}

// NewOpenAIClient creates a new OpenAI chat-completions client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 3
	}

	return &OpenAIClient{
		client:   openai.NewClient(opts...),
		model:    model,
		attempts: attempts,
	}
}

// Complete sends a completion request and returns the raw response text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	var out string
	err := retry.Do(
		func() error {
			resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(system),
					openai.UserMessage(user),
				},
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return errors.New("empty choices in response")
			}
			out = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return out, nil
}
