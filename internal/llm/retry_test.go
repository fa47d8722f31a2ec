package llm

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// scriptedModel fails a fixed number of times before succeeding.
type scriptedModel struct {
	failures int
	err      error
	calls    int
	onCall   func()
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.onCall != nil {
		m.onCall()
	}
	if m.calls <= m.failures {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialDelay:    time.Millisecond,
		MaxDelay:        4 * time.Millisecond,
		BackoffFactor:   2.0,
		TimeoutPerRetry: time.Second,
	}
}

func TestRetryWrapper_SucceedsFirstTry(t *testing.T) {
	model := &scriptedModel{}
	wrapper := NewRetryWrapper(model, testRetryConfig())

	response, err := wrapper.GenerateContent(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if model.calls != 1 {
		t.Errorf("Expected 1 call, got %d", model.calls)
	}
	if response.Choices[0].Content != "ok" {
		t.Errorf("Expected content 'ok', got %q", response.Choices[0].Content)
	}
}

func TestRetryWrapper_RetriesTransientFailure(t *testing.T) {
	model := &scriptedModel{
		failures: 2,
		err:      errors.New("connection refused"),
	}
	wrapper := NewRetryWrapper(model, testRetryConfig())

	response, err := wrapper.GenerateContent(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected success after retries, got error: %v", err)
	}
	if model.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", model.calls)
	}
	if len(response.Choices) != 1 {
		t.Errorf("Expected 1 choice, got %d", len(response.Choices))
	}
}

func TestRetryWrapper_NonRetryableStopsImmediately(t *testing.T) {
	model := &scriptedModel{
		failures: 5,
		err:      errors.New("invalid api key"),
	}
	wrapper := NewRetryWrapper(model, testRetryConfig())

	_, err := wrapper.GenerateContent(context.Background(), nil)
	if err == nil {
		t.Fatal("Expected error for non-retryable failure, got nil")
	}
	if model.calls != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", model.calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("Expected attempt count in error, got: %v", err)
	}
}

func TestRetryWrapper_ExhaustsRetries(t *testing.T) {
	transient := errors.New("connection reset by peer")
	model := &scriptedModel{
		failures: 5,
		err:      transient,
	}
	wrapper := NewRetryWrapper(model, testRetryConfig())

	_, err := wrapper.GenerateContent(context.Background(), nil)
	if err == nil {
		t.Fatal("Expected error after exhausting retries, got nil")
	}
	if model.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", model.calls)
	}
	if !errors.Is(err, transient) {
		t.Errorf("Expected wrapped transient error, got: %v", err)
	}
}

func TestRetryWrapper_ContextCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &scriptedModel{
		failures: 5,
		err:      errors.New("connection refused"),
		onCall:   cancel,
	}
	config := testRetryConfig()
	config.InitialDelay = 500 * time.Millisecond
	wrapper := NewRetryWrapper(model, config)

	_, err := wrapper.GenerateContent(ctx, nil)
	if err == nil {
		t.Fatal("Expected error after context cancellation, got nil")
	}
	if !strings.Contains(err.Error(), "context cancelled during retry delay") {
		t.Errorf("Expected cancellation error, got: %v", err)
	}
	if model.calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", model.calls)
	}
}

type fakeNetError struct {
	isTimeout bool
}

func (e *fakeNetError) Error() string   { return "dial tcp: i/o problem" }
func (e *fakeNetError) Timeout() bool   { return e.isTimeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"rate limited", errors.New("429 Too Many Requests"), true},
		{"rate limit text", errors.New("rate limit exceeded"), true},
		{"bad gateway", errors.New("POST failed with status 502"), true},
		{"service unavailable", errors.New("Service Unavailable"), true},
		{"deadline exceeded", errors.New("context deadline exceeded"), true},
		{"dns failure", errors.New("lookup ollama: DNS failure"), true},
		{"bad credentials", errors.New("invalid api key"), false},
		{"malformed request", errors.New("unsupported message type"), false},
		{"url error wrapping reset", &url.Error{Op: "Post", URL: "http://localhost:11434", Err: errors.New("connection reset by peer")}, true},
		{"net timeout", &fakeNetError{isTimeout: true}, true},
		{"net non-timeout", &fakeNetError{isTimeout: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.retryable {
				t.Errorf("Expected retryable=%v for %q, got %v", tt.retryable, tt.name, got)
			}
		})
	}
}
