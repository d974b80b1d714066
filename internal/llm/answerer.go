package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

var _ service.Answerer = (*Answerer)(nil)

// Answerer answers questions through a chat completion endpoint.
type Answerer struct {
	client  *openai.Client
	limiter *rateLimiter
	logger  *slog.Logger
	cfg     Config
}

// NewAnswerer creates an answerer for a resolved Config.
func NewAnswerer(cfg Config, logger *slog.Logger) (*Answerer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger.Info("Initializing answer client", "provider", cfg.Provider, "model", cfg.Model)
	return &Answerer{
		client:  openai.NewClientWithConfig(clientCfg),
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// Answer sends the question with its context and returns the reply text.
func (a *Answerer) Answer(ctx context.Context, question, contextText string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(question, contextText)},
		},
	}

	var answer string
	err := common.WithRetry(ctx, func() error {
		if err := a.limiter.wait(ctx); err != nil {
			return common.Terminal(err)
		}

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return common.Terminal(common.ErrEmptyAnswer)
		}

		a.logger.Debug("Received answer", "finish_reason", resp.Choices[0].FinishReason)
		answer = resp.Choices[0].Message.Content
		return nil
	}, service.RetryOptions{
		MaxAttempts:  a.cfg.MaxRetries + 1,
		InitialDelay: a.cfg.RetryDelay,
		Logger:       a.logger,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrAnswerUnavailable, err)
	}
	return answer, nil
}

// Close releases the rate limiter.
func (a *Answerer) Close() {
	a.limiter.Close()
}

// classify marks rate limits and server errors as retryable.
func classify(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return common.Transient(err)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return common.Transient(fmt.Errorf("%w: %w", common.ErrRateLimit, err))
	case status >= http.StatusInternalServerError:
		return common.Transient(err)
	default:
		return common.Terminal(err)
	}
}
