package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/edibez/cryptoagent/internal/llm"
	"github.com/edibez/cryptoagent/internal/tool"
)

// OutOfStepsAnswer is returned when the model still wants tools but the step
// budget cannot fit another tool round plus a final answer.
const OutOfStepsAnswer = "Sorry, need more steps to process this request."

// Runner drives a conversation to a final assistant message.
type Runner interface {
	Run(ctx context.Context, systemPrompt string, conversation []llm.Message, tools *tool.Registry, maxIterations int) (*llm.Message, error)
}

// Agent is a ReAct loop over an LLM provider: think, act, observe, until the
// model answers without tool calls.
type Agent struct {
	provider llm.Provider
}

// New creates a new Agent.
func New(provider llm.Provider) *Agent {
	return &Agent{provider: provider}
}

// Run executes the loop. maxIterations is a step budget shared by model calls
// and tool rounds.
func (a *Agent) Run(ctx context.Context, systemPrompt string, conversation []llm.Message, tools *tool.Registry, maxIterations int) (*llm.Message, error) {
	if maxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", maxIterations)
	}
	if len(conversation) == 0 {
		return nil, errors.New("empty conversation")
	}

	messages := make([]llm.Message, len(conversation), len(conversation)+2*maxIterations)
	copy(messages, conversation)

	var defs []llm.ToolDefinition
	if tools != nil {
		defs = tools.Definitions()
	}

	steps := 0
	for {
		remaining := maxIterations - steps
		steps++

		// Think
		resp, err := a.provider.Chat(ctx, &llm.ChatRequest{
			Messages:     messages,
			Tools:        defs,
			SystemPrompt: systemPrompt,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM error: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp, nil
		}
		if remaining < 2 {
			log.Printf("[agent] step budget of %d exhausted with %d pending tool calls", maxIterations, len(resp.ToolCalls))
			return &llm.Message{Role: llm.RoleAssistant, Content: llm.PlainText(OutOfStepsAnswer)}, nil
		}

		messages = append(messages, *resp)

		// Act, then observe
		steps++
		for _, tc := range resp.ToolCalls {
			result := a.execute(ctx, tools, tc)
			messages = append(messages, llm.ToolMessage(tc, result))
		}
	}
}

func (a *Agent) execute(ctx context.Context, tools *tool.Registry, tc llm.ToolCall) string {
	log.Printf("[agent] tool call %s(%s)", tc.Name, truncate(string(tc.Arguments), 200))

	if tools == nil {
		return fmt.Sprintf("Error: tool '%s' not found", tc.Name)
	}
	t, err := tools.Get(tc.Name)
	if err != nil {
		return fmt.Sprintf("Error: tool '%s' not found", tc.Name)
	}

	result, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		return fmt.Sprintf("Error: %s: %v", tc.Name, err)
	}
	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
