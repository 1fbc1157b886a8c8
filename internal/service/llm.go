package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pageza/alchemorsel-bot/internal/logger"
)

// LLMService calls an OpenAI-compatible chat completions API
type LLMService struct {
	client openai.Client
	model  string
}

// NewLLMService creates a new LLMService instance. Retries are disabled so a
// failed call surfaces to the dialogue on the first attempt.
func NewLLMService(apiKey, baseURL, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("LLM API key must be set")
	}
	if model == "" {
		return nil, errors.New("LLM model must be set")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &LLMService{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate sends the prompt and returns the generated recipe text
func (s *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.NewString()
	logger.Debug(ctx).Str("request_id", requestID).Int("prompt_len", len(prompt)).Msg("Generating recipe")

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}, option.WithHeader("X-Request-Id", requestID))
	if err != nil {
		return "", fmt.Errorf("recipe generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("recipe generation returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("recipe generation returned empty content")
	}
	return content, nil
}
