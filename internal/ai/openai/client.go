package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/ai"
	"github.com/spigell/job-seeker/internal/logger"
)

const (
	DefaultModel     = goopenai.GPT4oMini
	defaultMaxTokens = 1500
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Generator produces text through the OpenAI chat completion API.
type Generator struct {
	client    chatCompleter
	model     string
	maxTokens int
	logger    *zap.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator builds an OpenAI generator. baseURL is optional and points the
// client at a compatible endpoint.
func NewGenerator(apiKey, model, baseURL string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	return &Generator{
		client:    goopenai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: defaultMaxTokens,
		logger:    logger.WithProvider(log, ai.ProviderOpenAI, model),
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("openai generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}

	g.logger.Debug("chat completion finished",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
