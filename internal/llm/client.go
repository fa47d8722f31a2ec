package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	// DefaultServerURL is where a stock Ollama install listens.
	DefaultServerURL = "http://localhost:11434"

	// DefaultModel is the model tag used when none is configured.
	DefaultModel = "llama3.2"
)

// New connects to an Ollama server and returns a chat model handle.
// Empty arguments fall back to the local defaults.
func New(serverURL, model string) (llms.Model, error) {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return client, nil
}
