// Package llm talks to chat-completion services. A Completer performs one
// logical completion; transient failures are retried internally and the
// final outcome is either the reply text, a *TransportError (retries
// exhausted) or a *ServiceError (the service rejected the request).
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/rohan/internal/rate"
)

// Role values for Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the input to a completion.
type Request struct {
	Messages []Message
}

// Completer performs one completion exchange.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// OllamaPrefix routes a model name to the ollama backend.
const OllamaPrefix = "ollama:"

// DefaultAPIBase is used for OpenAI-compatible models when no base is set.
const DefaultAPIBase = "https://api.openai.com/v1"

// DefaultResponsePath locates the reply text in an OpenAI-style response.
const DefaultResponsePath = "$.choices[0].message.content"

// Config configures a Completer.
type Config struct {
	Model        string
	APIBase      string
	APIKey       string
	ResponsePath string
	Timeout      time.Duration
	Temperature  float64
	Retry        RetryPolicy
	// Limiter is acquired before every HTTP attempt, retries included.
	// Nil means unlimited.
	Limiter rate.Limiter
	Logger  zerolog.Logger
}

func (c Config) limiter() rate.Limiter {
	if c.Limiter == nil {
		return rate.Unlimited{}
	}
	return c.Limiter
}

// New returns the Completer for cfg.Model.
func New(cfg Config) (Completer, error) {
	if strings.HasPrefix(cfg.Model, OllamaPrefix) {
		return NewOllamaClient(cfg)
	}
	return NewClient(cfg)
}
