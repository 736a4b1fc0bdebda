package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks every setting and returns all problems found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	add := func(path, format string, args ...interface{}) {
		errors = append(errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if c.Workers < 1 {
		add("workers", "must be at least 1, got %d", c.Workers)
	}
	if c.RPM < 0 {
		add("rpm", "must be 0 (unlimited) or positive, got %d", c.RPM)
	}
	if c.BatchSize < 1 {
		add("batch_size", "must be at least 1, got %d", c.BatchSize)
	}
	if strings.TrimSpace(c.Model) == "" {
		add("model", "model is required")
	}

	if c.APIBase != "" {
		u, err := url.Parse(c.APIBase)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			add("api_base", "invalid URL: %s", c.APIBase)
		}
	}
	if c.Target != "" {
		u, err := url.Parse(c.Target)
		if err != nil || u.Host == "" {
			add("target", "invalid URL: %s", c.Target)
		}
	}

	if c.ResponsePath == "" {
		add("response_path", "response_path is required")
	}
	if c.Timeout <= 0 {
		add("timeout", "must be positive, got %s", c.Timeout)
	}
	if c.Pacing != "window" && c.Pacing != "smooth" {
		add("pacing", "must be window or smooth, got %q", c.Pacing)
	}

	if c.Retry.Attempts < 1 {
		add("retry.attempts", "must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.InitialInterval <= 0 {
		add("retry.initial_interval", "must be positive, got %s", c.Retry.InitialInterval)
	}
	if c.Retry.MaxInterval < c.Retry.InitialInterval {
		add("retry.max_interval", "must not be below retry.initial_interval")
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil || c.LogLevel == "" {
		add("log_level", "unknown level %q", c.LogLevel)
	}

	if c.PromptDir != "" {
		info, err := os.Stat(c.PromptDir)
		switch {
		case err != nil:
			add("prompt_dir", "cannot access %s: %v", c.PromptDir, err)
		case !info.IsDir():
			add("prompt_dir", "%s is not a directory", c.PromptDir)
		}
	}

	return errors
}
