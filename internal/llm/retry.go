package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
)

// RetryConfig holds configuration for model call retry behavior
type RetryConfig struct {
	MaxRetries      int           `json:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay"`
	BackoffFactor   float64       `json:"backoff_factor"`
	TimeoutPerRetry time.Duration `json:"timeout_per_retry"`
}

// DefaultRetryConfig returns retry settings tuned for a local Ollama server
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		TimeoutPerRetry: 60 * time.Second,
	}
}

// RetryWrapper wraps a model with retry logic for transient failures
type RetryWrapper struct {
	llm    llms.Model
	config RetryConfig
}

// NewRetryWrapper creates a retrying wrapper around the given model
func NewRetryWrapper(llm llms.Model, config RetryConfig) *RetryWrapper {
	return &RetryWrapper{
		llm:    llm,
		config: config,
	}
}

// GenerateContent calls the wrapped model, retrying transient failures
// with exponential backoff until the retry budget runs out.
func (w *RetryWrapper) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var lastErr error
	delay := w.config.InitialDelay

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		// Create timeout context for this attempt
		attemptCtx, cancel := context.WithTimeout(ctx, w.config.TimeoutPerRetry)

		response, err := w.llm.GenerateContent(attemptCtx, messages, options...)
		cancel()

		if err == nil {
			if attempt > 0 {
				log.Debug().Int("attempt", attempt+1).Msg("LLM call succeeded after retry")
			}
			return response, nil
		}

		lastErr = err

		// Check if we've exhausted retries
		if attempt >= w.config.MaxRetries {
			break
		}

		// Check if error is retryable
		if !isRetryableError(err) {
			log.Debug().Err(err).Msg("LLM error is not retryable, giving up")
			break
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", w.config.MaxRetries+1).
			Dur("delay", delay).
			Msg("LLM call failed, retrying")

		// Wait with context cancellation support
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
		case <-time.After(delay):
		}

		// Increase delay for next retry
		delay = time.Duration(float64(delay) * w.config.BackoffFactor)
		if delay > w.config.MaxDelay {
			delay = w.config.MaxDelay
		}
	}

	return nil, fmt.Errorf("LLM call failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

// GenerateWithRetry is a convenience function that wraps a single model call
// with the default retry configuration.
func GenerateWithRetry(ctx context.Context, llm llms.Model, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	wrapper := NewRetryWrapper(llm, DefaultRetryConfig())
	return wrapper.GenerateContent(ctx, messages, options...)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors
	if strings.Contains(errStr, "context canceled") ||
		strings.Contains(errStr, "context cancelled") ||
		strings.Contains(errStr, "context deadline exceeded") {
		return true
	}

	// Network and server errors
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"timeout",
		"no such host",
		"network is unreachable",
		"temporary failure",
		"500", // Internal server error
		"502", // Bad gateway
		"503", // Service unavailable
		"504", // Gateway timeout
		"429", // Too many requests (rate limit)
		"rate limit",
		"overloaded",
		"server error",
		"service unavailable",
		"dns",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	// Check for specific error types
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || netErr.Temporary()
	}

	// URL errors wrap the underlying network failure
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return isRetryableError(urlErr.Err)
	}

	return false
}
