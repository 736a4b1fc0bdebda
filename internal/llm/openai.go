package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	rhttp "github.com/wesleyorama2/rohan/internal/http"
	"github.com/wesleyorama2/rohan/internal/rate"
	"github.com/wesleyorama2/rohan/pkg/jsonpath"
)

const chatCompletionsPath = "/chat/completions"

// DefaultTemperature keeps generated code close to deterministic.
const DefaultTemperature = 0.2

// Client is a Completer for OpenAI-compatible chat-completion services.
type Client struct {
	http         *rhttp.Client
	model        string
	responsePath string
	temperature  float64
	retry        RetryPolicy
	limiter      rate.Limiter
	log          zerolog.Logger
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// NewClient creates a Client. An empty APIKey sends no Authorization header,
// which local OpenAI-compatible servers accept.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	base := cfg.APIBase
	if base == "" {
		base = DefaultAPIBase
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base %q", base)
	}

	opts := []rhttp.ClientOption{
		rhttp.WithBaseURL(strings.TrimRight(base, "/")),
		rhttp.WithTimeout(cfg.Timeout),
		rhttp.WithHeader("Accept", "application/json"),
	}
	if cfg.APIKey != "" {
		opts = append(opts, rhttp.WithHeader("Authorization", "Bearer "+cfg.APIKey))
	}

	path := cfg.ResponsePath
	if path == "" {
		path = DefaultResponsePath
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}

	return &Client{
		http:         rhttp.NewClient(opts...),
		model:        cfg.Model,
		responsePath: path,
		temperature:  temp,
		retry:        cfg.Retry.withDefaults(),
		limiter:      cfg.limiter(),
		log:          cfg.Logger.With().Str("component", "llm").Str("model", cfg.Model).Logger(),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends req and returns the reply text found at the response path.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: c.temperature,
	}

	var content string
	err := c.retry.run(ctx, c.log, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(ctx, rhttp.NewRequest("POST", chatCompletionsPath).WithBody(body))
		if err != nil {
			if isRetryableTransport(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		c.log.Debug().Int("status", resp.StatusCode).Dur("elapsed", resp.ResponseTime).Msg("completion response")

		if !resp.IsSuccess() {
			sErr := classifyStatus(resp.StatusCode, resp.BodyString())
			var svcErr *ServiceError
			if errors.As(sErr, &svcErr) {
				return backoff.Permanent(svcErr)
			}
			return sErr
		}

		text, err := jsonpath.Extract(resp.BodyString(), c.responsePath)
		if err != nil {
			return backoff.Permanent(&ServiceError{
				StatusCode: resp.StatusCode,
				Reason:     ReasonMalformedResponse,
				Message:    err.Error(),
			})
		}
		content = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}
