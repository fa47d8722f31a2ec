package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chainchat/chainchat/internal/intent"
	"github.com/chainchat/chainchat/internal/llm"
	"github.com/chainchat/chainchat/internal/metrics"
	"github.com/chainchat/chainchat/internal/models"
)

// Fetcher retrieves the upstream data backing a resolved intent.
type Fetcher interface {
	IsAvailable() bool
	Fetch(ctx context.Context, res models.Resolution) (interface{}, error)
}

// StreamFunc receives reply chunks as the model produces them.
type StreamFunc func(ctx context.Context, chunk []byte) error

// Grounding is the rendered data block plus the directive injected as a
// system message for one grounded turn. An error note carries only the
// directive, since there is no data to verify against.
type Grounding struct {
	Block     string
	Directive string
}

// detectStage resolves the message to at most one intent.
type detectStage struct {
	tracer trace.Tracer
}

func (s *detectStage) Name() string {
	return "detect"
}

func (s *detectStage) Dependencies() []string {
	return nil
}

func (s *detectStage) Process(ctx context.Context, baggage map[string]interface{}) error {
	_, span := s.tracer.Start(ctx, "intent.resolve")
	defer span.End()

	message, _ := baggage[baggageMessage].(string)

	resolution, ok := intent.Resolve(message)
	if !ok {
		log.Debug().Msg("no intent detected, proceeding unaugmented")
		return nil
	}

	span.SetAttributes(
		attribute.String("intent", string(resolution.Intent)),
		attribute.String("chain_id", resolution.ChainID),
	)
	metrics.Detections.WithLabelValues(string(resolution.Intent)).Inc()
	log.Debug().
		Str("intent", string(resolution.Intent)).
		Str("subject", resolution.Subject).
		Str("network", resolution.Network).
		Str("chain_id", resolution.ChainID).
		Msg("intent resolved")

	baggage[baggageResolution] = resolution
	return nil
}

// fetchStage pulls the upstream data for the resolved intent. Fetch
// failures do not abort the turn: the grounding stage turns them into an
// error note so the model can say the data is unavailable.
type fetchStage struct {
	fetcher Fetcher
	tracer  trace.Tracer
}

func (s *fetchStage) Name() string {
	return "fetch"
}

func (s *fetchStage) Dependencies() []string {
	return []string{"detect"}
}

func (s *fetchStage) Process(ctx context.Context, baggage map[string]interface{}) error {
	resolution, ok := baggage[baggageResolution].(models.Resolution)
	if !ok {
		return nil
	}

	if s.fetcher == nil || !s.fetcher.IsAvailable() {
		log.Debug().Str("intent", string(resolution.Intent)).Msg("no data fetcher configured, skipping lookup")
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "oneinch.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("intent", string(resolution.Intent)))

	data, err := s.fetcher.Fetch(ctx, resolution)
	if err != nil {
		metrics.FetchErrors.WithLabelValues(string(resolution.Intent)).Inc()
		span.RecordError(err)
		log.Warn().
			Err(err).
			Str("intent", string(resolution.Intent)).
			Str("chain_id", resolution.ChainID).
			Msg("upstream fetch failed")
		baggage[baggageFetchError] = err
		return nil
	}

	baggage[baggageData] = data
	return nil
}

// groundingStage renders fetched data into the block and directive the
// model answers from.
type groundingStage struct{}

func (s *groundingStage) Name() string {
	return "grounding"
}

func (s *groundingStage) Dependencies() []string {
	return []string{"fetch"}
}

func (s *groundingStage) Process(ctx context.Context, baggage map[string]interface{}) error {
	resolution, ok := baggage[baggageResolution].(models.Resolution)
	if !ok {
		return nil
	}

	if _, failed := baggage[baggageFetchError].(error); failed {
		baggage[baggageGrounding] = &Grounding{
			Directive: fmt.Sprintf(
				"NOTE: The user asked about %s but the live data lookup failed. Tell the user the data is unavailable right now. DO NOT invent figures.",
				directiveSubject(resolution)),
		}
		return nil
	}

	data, ok := baggage[baggageData]
	if !ok {
		return nil
	}

	block, err := RenderData(resolution, data)
	if err != nil {
		return NewStageError("grounding", err.Error(), "render_failed")
	}

	baggage[baggageGrounding] = &Grounding{
		Block:     block,
		Directive: Directive(resolution, block),
	}
	return nil
}

// generateStage runs the model over the transcript plus any grounding
// directive for this turn.
type generateStage struct {
	model   llms.Model
	profile *Profile
	tracer  trace.Tracer
}

func (s *generateStage) Name() string {
	return "generate"
}

func (s *generateStage) Dependencies() []string {
	return []string{"grounding"}
}

func (s *generateStage) Process(ctx context.Context, baggage map[string]interface{}) error {
	conversation, ok := baggage[baggageConversation].(*Conversation)
	if !ok {
		return NewStageError("generate", "no conversation in baggage", "missing_conversation")
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(s.profile.SystemPrompt())},
		},
	}
	for _, message := range conversation.Messages() {
		messages = append(messages, llms.MessageContent{
			Role:  chatMessageType(message.Role),
			Parts: []llms.ContentPart{llms.TextPart(message.Content)},
		})
	}

	// The directive rides after the user message so it lands closest to
	// the generation, where small local models weight it most.
	if grounding, ok := baggage[baggageGrounding].(*Grounding); ok && grounding.Directive != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(grounding.Directive)},
		})
	}

	var options []llms.CallOption
	if s.profile.Temperature > 0 {
		options = append(options, llms.WithTemperature(s.profile.Temperature))
	}
	if stream, ok := baggage[baggageStream].(StreamFunc); ok && stream != nil {
		options = append(options, llms.WithStreamingFunc(stream))
	}

	ctx, span := s.tracer.Start(ctx, "llm.generate")
	defer span.End()

	start := time.Now()
	response, err := llm.GenerateWithRetry(ctx, s.model, messages, options...)
	metrics.LLMLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		return NewStageError("generate", fmt.Sprintf("model call failed: %v", err), "llm_unavailable")
	}
	if len(response.Choices) == 0 {
		return NewStageError("generate", "model returned no choices", "llm_empty")
	}

	baggage[baggageReply] = response.Choices[0].Content
	return nil
}

func chatMessageType(role Role) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// verifyStage checks that a grounded reply actually used the fetched data
// and splices the canonical block in when it did not.
type verifyStage struct{}

func (s *verifyStage) Name() string {
	return "verify"
}

func (s *verifyStage) Dependencies() []string {
	return []string{"generate"}
}

func (s *verifyStage) Process(ctx context.Context, baggage map[string]interface{}) error {
	grounding, ok := baggage[baggageGrounding].(*Grounding)
	if !ok || grounding.Block == "" {
		return nil
	}
	resolution, ok := baggage[baggageResolution].(models.Resolution)
	if !ok {
		return nil
	}
	reply, _ := baggage[baggageReply].(string)

	if Verified(resolution, reply) {
		return nil
	}

	metrics.Corrections.Inc()
	log.Info().
		Str("intent", string(resolution.Intent)).
		Msg("reply ignored fetched data, splicing it in")

	baggage[baggageReply] = Splice(resolution.Intent, reply, grounding.Block)
	return nil
}
