package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	ollama "github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"github.com/wesleyorama2/rohan/internal/rate"
)

// OllamaClient is a Completer backed by a local ollama server. It is
// selected by model names of the form "ollama:<model>".
type OllamaClient struct {
	api         *ollama.Client
	model       string
	temperature float64
	retry       RetryPolicy
	limiter     rate.Limiter
	timeout     time.Duration
	log         zerolog.Logger
}

// NewOllamaClient creates an OllamaClient. With an empty APIBase the server
// address comes from OLLAMA_HOST.
func NewOllamaClient(cfg Config) (*OllamaClient, error) {
	model := strings.TrimPrefix(cfg.Model, OllamaPrefix)
	if model == "" {
		return nil, errors.New("ollama model name is required")
	}

	var client *ollama.Client
	if cfg.APIBase == "" || cfg.APIBase == DefaultAPIBase {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(cfg.APIBase)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid ollama base %q", cfg.APIBase)
		}
		client = ollama.NewClient(u, http.DefaultClient)
	}

	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}

	return &OllamaClient{
		api:         client,
		model:       model,
		temperature: temp,
		retry:       cfg.Retry.withDefaults(),
		limiter:     cfg.limiter(),
		timeout:     cfg.Timeout,
		log:         cfg.Logger.With().Str("component", "llm").Str("model", cfg.Model).Logger(),
	}, nil
}

// Complete runs a non-streaming chat against the ollama server.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]ollama.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}
	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]interface{}{"temperature": c.temperature},
	}

	var content strings.Builder
	err := c.retry.run(ctx, c.log, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attemptCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		content.Reset()
		err := c.api.Chat(attemptCtx, chatReq, func(res ollama.ChatResponse) error {
			content.WriteString(res.Message.Content)
			return nil
		})
		if err == nil {
			return nil
		}

		var statusErr ollama.StatusError
		if errors.As(err, &statusErr) {
			sErr := classifyStatus(statusErr.StatusCode, statusErr.ErrorMessage)
			var svcErr *ServiceError
			if errors.As(sErr, &svcErr) {
				return backoff.Permanent(svcErr)
			}
			return sErr
		}
		if isRetryableTransport(err) {
			return err
		}
		return backoff.Permanent(err)
	})
	if err != nil {
		return "", err
	}
	return content.String(), nil
}
