package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chainchat/chainchat/internal/metrics"
	"github.com/chainchat/chainchat/internal/models"
)

// Agent answers chat turns, grounding replies in live blockchain data
// whenever a message resolves to a supported intent.
type Agent struct {
	profile  *Profile
	model    llms.Model
	fetcher  Fetcher
	history  *Store
	pipeline *Pipeline
	tracer   trace.Tracer
}

// Config wires an Agent. Model is required; a nil Fetcher disables data
// lookups and every turn runs unaugmented.
type Config struct {
	Profile      *Profile
	Model        llms.Model
	Fetcher      Fetcher
	HistoryLimit int
}

// New creates a chat agent with its per-turn stage pipeline assembled.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	profile := cfg.Profile
	if profile == nil {
		profile = DefaultProfile()
	}

	tracer := otel.Tracer("github.com/chainchat/chainchat/internal/agent")

	pipeline := NewPipeline()
	stages := []Stage{
		&detectStage{tracer: tracer},
		&fetchStage{fetcher: cfg.Fetcher, tracer: tracer},
		&groundingStage{},
		&generateStage{model: cfg.Model, profile: profile, tracer: tracer},
		&verifyStage{},
	}
	for _, stage := range stages {
		if err := pipeline.AddStage(stage); err != nil {
			return nil, fmt.Errorf("failed to add %s stage: %w", stage.Name(), err)
		}
	}

	return &Agent{
		profile:  profile,
		model:    cfg.Model,
		fetcher:  cfg.Fetcher,
		history:  NewStore(cfg.HistoryLimit),
		pipeline: pipeline,
		tracer:   tracer,
	}, nil
}

// Name returns the persona name the agent speaks as.
func (a *Agent) Name() string {
	return a.profile.Name
}

// Conversations returns the number of active conversations.
func (a *Agent) Conversations() int {
	return a.history.Count()
}

// Chat runs one full turn: detect, fetch, ground, generate, verify. A nil
// stream gets a buffered reply; otherwise chunks go to the stream as the
// model produces them and the returned response carries the final text.
func (a *Agent) Chat(ctx context.Context, req models.ChatRequest, stream StreamFunc) (*models.ChatResponse, error) {
	ctx, span := a.tracer.Start(ctx, "agent.turn")
	defer span.End()

	metrics.ChatRequests.Inc()

	conversation := a.history.Get(req.ConversationID)
	conversation.Append(RoleUser, req.Message)

	baggage := map[string]interface{}{
		baggageMessage:      req.Message,
		baggageConversation: conversation,
	}
	if stream != nil {
		baggage[baggageStream] = stream
	}

	if err := a.pipeline.Execute(ctx, baggage); err != nil {
		span.RecordError(err)
		return nil, err
	}

	reply, _ := baggage[baggageReply].(string)
	conversation.Append(RoleAssistant, reply)

	response := &models.ChatResponse{
		ConversationID: conversation.ID,
		Reply:          reply,
		Timestamp:      time.Now().UTC(),
	}
	if resolution, ok := baggage[baggageResolution].(models.Resolution); ok {
		span.SetAttributes(attribute.String("intent", string(resolution.Intent)))
		response.Intent = &resolution
		response.Data = dataMap(baggage[baggageData])
	}

	return response, nil
}

// dataMap flattens a typed upstream payload into the generic map carried on
// the wire. Marshal failures just drop the payload from the envelope; the
// reply text already contains the rendered data.
func dataMap(v interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
