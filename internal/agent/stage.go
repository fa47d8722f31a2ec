package agent

import (
	"context"
)

// Stage is one unit of work in a chat turn. Stages share state through the
// baggage map and declare which stages must run before them.
type Stage interface {
	Name() string
	Dependencies() []string
	Process(ctx context.Context, baggage map[string]interface{}) error
}

// Baggage keys shared between stages.
const (
	baggageMessage      = "message"
	baggageConversation = "conversation"
	baggageResolution   = "resolution"
	baggageData         = "data"
	baggageFetchError   = "fetch_error"
	baggageGrounding    = "grounding"
	baggageReply        = "reply"
	baggageStream       = "stream"
)

// StageError represents an error that occurred inside a pipeline stage
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e StageError) Error() string {
	return e.Message
}

// NewStageError creates a new stage error
func NewStageError(stage, message, code string) *StageError {
	return &StageError{
		Stage:   stage,
		Message: message,
		Code:    code,
	}
}
