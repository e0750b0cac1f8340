// Package assistant owns prompt composition and the generation call.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured means the client was built without an API key
	// and stays degraded for the life of the process.
	ErrNotConfigured = errors.New("model client not configured")
	// ErrEmptyResponse means the provider answered with no usable text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

type Assistant struct {
	client       *openai.Client
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string
	instructions string
	logger       *zap.Logger
}

// New loads the static prompt texts once and binds the system
// instruction for every later call. Missing prompt files degrade to
// empty content; a missing API key degrades the client itself.
func New(apiKey, model string, maxTokens int, temperature float64, systemPromptPath, instructionsPath string, logger *zap.Logger) *Assistant {
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	} else {
		logger.Warn("No model API key provided, assistant will run degraded")
	}

	return &Assistant{
		client:       client,
		model:        model,
		maxTokens:    maxTokens,
		temperature:  temperature,
		systemPrompt: loadTextFile(systemPromptPath, logger),
		instructions: loadTextFile(instructionsPath, logger),
		logger:       logger,
	}
}

// Respond sends the composed prompt to the model and returns its text.
// The input is the rolling transcript plus the new question; the static
// instructions are prepended here, the system prompt was bound in New.
func (a *Assistant) Respond(ctx context.Context, input string) (string, error) {
	if a.client == nil {
		return "", ErrNotConfigured
	}

	var messages []openai.ChatCompletionMessage
	if a.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: a.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: a.buildPrompt(input),
	})

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       a.model,
			Messages:    messages,
			MaxTokens:   a.maxTokens,
			Temperature: float32(a.temperature),
		},
	)
	if err != nil {
		a.logger.Error("Failed to get model response", zap.Error(err))
		return "", fmt.Errorf("failed to get model response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (a *Assistant) buildPrompt(input string) string {
	return fmt.Sprintf("%s\n\nQuestion: %s\nAnswer:", a.instructions, input)
}
