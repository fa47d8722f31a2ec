package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/chainchat/chainchat/internal/models"
	"github.com/chainchat/chainchat/internal/oneinch"
)

// fakeModel records the messages of every call and returns a canned reply.
type fakeModel struct {
	reply string
	err   error
	calls [][]llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeFetcher serves canned payloads per intent.
type fakeFetcher struct {
	data      map[models.Intent]interface{}
	err       error
	available bool
	calls     []models.Resolution
}

func (f *fakeFetcher) IsAvailable() bool {
	return f.available
}

func (f *fakeFetcher) Fetch(ctx context.Context, res models.Resolution) (interface{}, error) {
	f.calls = append(f.calls, res)
	if f.err != nil {
		return nil, f.err
	}
	return f.data[res.Intent], nil
}

func gasPayload() *oneinch.GasPrices {
	return &oneinch.GasPrices{
		BaseFee: "25000000000",
		Low:     oneinch.GasFee{MaxFeePerGas: "26000000000", MaxPriorityFeePerGas: "1500000000"},
		Medium:  oneinch.GasFee{MaxFeePerGas: "30000000000", MaxPriorityFeePerGas: "2000000000"},
		High:    oneinch.GasFee{MaxFeePerGas: "40000000000", MaxPriorityFeePerGas: "3000000000"},
		Instant: oneinch.GasFee{MaxFeePerGas: "60000000000", MaxPriorityFeePerGas: "5000000000"},
	}
}

func messageText(message llms.MessageContent) string {
	var b strings.Builder
	for _, part := range message.Parts {
		if text, ok := part.(llms.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorContains(t, err, "chat model is required")
}

func TestAgent_ChatUngrounded(t *testing.T) {
	model := &fakeModel{reply: "Hi! How can I help?"}
	fetcher := &fakeFetcher{available: true}

	chat, err := New(Config{Model: model, Fetcher: fetcher})
	require.NoError(t, err)

	response, err := chat.Chat(context.Background(), models.ChatRequest{Message: "hello, how are you?"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Hi! How can I help?", response.Reply)
	assert.Nil(t, response.Intent)
	assert.Nil(t, response.Data)
	assert.NotEmpty(t, response.ConversationID)
	assert.Empty(t, fetcher.calls, "no intent means no fetch")

	// Only the persona system message and the user turn reach the model.
	require.Len(t, model.calls, 1)
	messages := model.calls[0]
	require.Len(t, messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].Role)
	assert.Contains(t, messageText(messages[0]), "You are ChainChat.")
	assert.Equal(t, llms.ChatMessageTypeHuman, messages[1].Role)
}

func TestAgent_ChatGrounded(t *testing.T) {
	model := &fakeModel{reply: "Gas on Polygon sits at 25 gwei right now."}
	fetcher := &fakeFetcher{
		available: true,
		data:      map[models.Intent]interface{}{models.IntentGasPrice: gasPayload()},
	}

	chat, err := New(Config{Model: model, Fetcher: fetcher})
	require.NoError(t, err)

	response, err := chat.Chat(context.Background(), models.ChatRequest{Message: "what is the gas price on polygon?"}, nil)
	require.NoError(t, err)

	require.NotNil(t, response.Intent)
	assert.Equal(t, models.IntentGasPrice, response.Intent.Intent)
	assert.Equal(t, "137", response.Intent.ChainID)
	assert.Equal(t, "polygon", response.Intent.Network)
	assert.NotNil(t, response.Data)
	assert.Equal(t, "Gas on Polygon sits at 25 gwei right now.", response.Reply, "verified reply is untouched")

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "137", fetcher.calls[0].ChainID)

	// The grounding directive lands after the user message.
	messages := model.calls[0]
	last := messages[len(messages)-1]
	assert.Equal(t, llms.ChatMessageTypeSystem, last.Role)
	assert.Contains(t, messageText(last), "CRITICAL INSTRUCTION")
	assert.Contains(t, messageText(last), "Base fee: 25 gwei")
}

func TestAgent_ChatSplicesIgnoredData(t *testing.T) {
	model := &fakeModel{reply: "I'd rather talk about the weather."}
	fetcher := &fakeFetcher{
		available: true,
		data:      map[models.Intent]interface{}{models.IntentGasPrice: gasPayload()},
	}

	chat, err := New(Config{Model: model, Fetcher: fetcher})
	require.NoError(t, err)

	response, err := chat.Chat(context.Background(), models.ChatRequest{Message: "what is the gas price on polygon?"}, nil)
	require.NoError(t, err)

	assert.Contains(t, response.Reply, "I'd rather talk about the weather.")
	assert.Contains(t, response.Reply, "Actually, let me provide you with the exact gas prices:")
	assert.Contains(t, response.Reply, "Base fee: 25 gwei")
}

func TestAgent_ChatFetchErrorStillReplies(t *testing.T) {
	model := &fakeModel{reply: "The live gas feed is unavailable right now, sorry."}
	fetcher := &fakeFetcher{available: true, err: errors.New("upstream 503")}

	chat, err := New(Config{Model: model, Fetcher: fetcher})
	require.NoError(t, err)

	response, err := chat.Chat(context.Background(), models.ChatRequest{Message: "what is the gas price on polygon?"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "The live gas feed is unavailable right now, sorry.", response.Reply)
	require.NotNil(t, response.Intent, "detection is reported even when the fetch fails")
	assert.Nil(t, response.Data)

	// The model is told the lookup failed instead of being handed data.
	messages := model.calls[0]
	last := messageText(messages[len(messages)-1])
	assert.Contains(t, last, "data lookup failed")
	assert.NotContains(t, last, "CRITICAL INSTRUCTION")
}

func TestAgent_ChatWithoutFetcher(t *testing.T) {
	model := &fakeModel{reply: "I cannot check live data at the moment."}

	chat, err := New(Config{Model: model})
	require.NoError(t, err)

	response, err := chat.Chat(context.Background(), models.ChatRequest{Message: "what is the gas price on polygon?"}, nil)
	require.NoError(t, err)

	require.NotNil(t, response.Intent)
	assert.Nil(t, response.Data)
	assert.Equal(t, "I cannot check live data at the moment.", response.Reply)
}

func TestAgent_ConversationContinuity(t *testing.T) {
	model := &fakeModel{reply: "Noted."}

	chat, err := New(Config{Model: model})
	require.NoError(t, err)

	first, err := chat.Chat(context.Background(), models.ChatRequest{Message: "remember the number 7"}, nil)
	require.NoError(t, err)

	second, err := chat.Chat(context.Background(), models.ChatRequest{
		ConversationID: first.ConversationID,
		Message:        "what number did I mention?",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, 1, chat.Conversations())

	// Second call sees persona + user, assistant, user.
	require.Len(t, model.calls, 2)
	assert.Len(t, model.calls[0], 2)
	assert.Len(t, model.calls[1], 4)
	assert.Equal(t, llms.ChatMessageTypeAI, model.calls[1][2].Role)
}

func TestAgent_ModelFailureSurfacesError(t *testing.T) {
	model := &fakeModel{err: errors.New("model exploded")}

	chat, err := New(Config{Model: model})
	require.NoError(t, err)

	_, err = chat.Chat(context.Background(), models.ChatRequest{Message: "hello"}, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "stage generate failed")

	var stageErr *StageError
	assert.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "generate", stageErr.Stage)
	assert.Equal(t, "llm_unavailable", stageErr.Code)
}

func TestAgent_StreamingReceivesChunks(t *testing.T) {
	model := &fakeModel{reply: "streamed reply"}

	chat, err := New(Config{Model: model})
	require.NoError(t, err)

	var streamed []string
	stream := func(ctx context.Context, chunk []byte) error {
		streamed = append(streamed, string(chunk))
		return nil
	}

	// The fake model never invokes the callback, but the option must plumb
	// through without breaking the turn.
	response, err := chat.Chat(context.Background(), models.ChatRequest{Message: "hello"}, stream)
	require.NoError(t, err)
	assert.Equal(t, "streamed reply", response.Reply)
	assert.Empty(t, streamed)
}
