package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edibez/cryptoagent/internal/llm"
	"github.com/edibez/cryptoagent/internal/tool"
)

// scriptedProvider replays canned responses and records every request.
type scriptedProvider struct {
	responses []*llm.Message
	err       error
	requests  []*llm.ChatRequest
}

func (s *scriptedProvider) Name() string         { return "scripted" }
func (s *scriptedProvider) DefaultModel() string { return "scripted-1" }

func (s *scriptedProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Message, error) {
	snapshot := *req
	snapshot.Messages = append([]llm.Message(nil), req.Messages...)
	s.requests = append(s.requests, &snapshot)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	next := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return next, nil
}

type fakeMarket struct{}

func (fakeMarket) GetPrice(ctx context.Context, coinID string) string {
	return "💰 price of " + coinID
}
func (fakeMarket) GetTopCryptos(ctx context.Context, limit int) string {
	return fmt.Sprintf("📊 top %d", limit)
}
func (fakeMarket) SearchCrypto(ctx context.Context, query string) string {
	return "🔍 " + query + " - ID: bitcoin"
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func wantsTools(calls ...llm.ToolCall) *llm.Message {
	return &llm.Message{Role: llm.RoleAssistant, Content: llm.PlainText(""), ToolCalls: calls}
}

func TestRunDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Message{
		{Role: llm.RoleAssistant, Content: llm.PlainText("Hello!")},
	}}
	a := New(provider)

	msg, err := a.Run(context.Background(), "be nice", []llm.Message{llm.UserMessage("hi")}, tool.NewCryptoRegistry(fakeMarket{}), 7)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", msg.Text())
	require.Len(t, provider.requests, 1)
	assert.Equal(t, "be nice", provider.requests[0].SystemPrompt)
	assert.Len(t, provider.requests[0].Tools, 3)
}

func TestRunSearchThenPrice(t *testing.T) {
	final := &llm.Message{Role: llm.RoleAssistant, Content: llm.BlockSequence{
		llm.TextBlock("Bitcoin is "),
		llm.OtherBlock("image"),
		llm.TextBlock("$60,000."),
	}}
	provider := &scriptedProvider{responses: []*llm.Message{
		wantsTools(toolCall("1", "search_crypto", `{"query":"btc"}`)),
		wantsTools(toolCall("2", "get_crypto_price", `{"coin_id":"bitcoin"}`)),
		final,
	}}

	msg, err := New(provider).Run(context.Background(), "", []llm.Message{llm.UserMessage("btc price?")}, tool.NewCryptoRegistry(fakeMarket{}), 7)
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin is $60,000.", llm.Normalize(msg.Content))

	require.Len(t, provider.requests, 3)
	last := provider.requests[2].Messages
	require.Len(t, last, 5)
	assert.Equal(t, llm.RoleTool, last[2].Role)
	assert.Equal(t, "1", last[2].ToolCallID)
	assert.Equal(t, "search_crypto", last[2].ToolName)
	assert.Equal(t, "🔍 btc - ID: bitcoin", last[2].Text())
	assert.Equal(t, "💰 price of bitcoin", last[4].Text())
}

func TestRunStepBudget(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Message{
		wantsTools(toolCall("x", "get_top_cryptos", `{"limit":2}`)),
	}}

	msg, err := New(provider).Run(context.Background(), "", []llm.Message{llm.UserMessage("loop forever")}, tool.NewCryptoRegistry(fakeMarket{}), 7)
	require.NoError(t, err)
	assert.Equal(t, OutOfStepsAnswer, msg.Text())
	// model, tools, model, tools, model, tools, model
	assert.Len(t, provider.requests, 4)
}

func TestRunStepBudgetOfOne(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Message{
		wantsTools(toolCall("x", "get_top_cryptos", `{}`)),
	}}

	msg, err := New(provider).Run(context.Background(), "", []llm.Message{llm.UserMessage("q")}, tool.NewCryptoRegistry(fakeMarket{}), 1)
	require.NoError(t, err)
	assert.Equal(t, OutOfStepsAnswer, msg.Text())
	assert.Len(t, provider.requests, 1)
}

func TestRunToolErrorsAreFedBack(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Message{
		wantsTools(
			toolCall("a", "launch_rocket", `{}`),
			toolCall("b", "get_crypto_price", `{"coin_id":`),
		),
		{Role: llm.RoleAssistant, Content: llm.PlainText("could not do it")},
	}}

	msg, err := New(provider).Run(context.Background(), "", []llm.Message{llm.UserMessage("q")}, tool.NewCryptoRegistry(fakeMarket{}), 7)
	require.NoError(t, err)
	assert.Equal(t, "could not do it", msg.Text())

	observed := provider.requests[1].Messages
	require.Len(t, observed, 4)
	assert.Equal(t, "Error: tool 'launch_rocket' not found", observed[2].Text())
	assert.Contains(t, observed[3].Text(), "Error: get_crypto_price: invalid arguments")
}

func TestRunProviderError(t *testing.T) {
	authErr := &llm.LLMError{Type: llm.ErrorAuth, Message: "API key not valid"}
	provider := &scriptedProvider{err: authErr}

	_, err := New(provider).Run(context.Background(), "", []llm.Message{llm.UserMessage("q")}, nil, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, authErr)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestRunRejectsBadInput(t *testing.T) {
	a := New(&scriptedProvider{})

	_, err := a.Run(context.Background(), "", []llm.Message{llm.UserMessage("q")}, nil, 0)
	assert.Error(t, err)

	_, err = a.Run(context.Background(), "", nil, nil, 7)
	assert.Error(t, err)
}

func TestTruncateKeepsRunes(t *testing.T) {
	got := truncate("é"+strings.Repeat("🔍", 2), 4)
	assert.True(t, utf8.ValidString(got), got)
	assert.Equal(t, "é...", got)
}
