package llm

import "encoding/json"

// Roles used in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message.
type Message struct {
	Role       string     `json:"role"`
	Content    Content    `json:"-"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	// ToolName is set on tool results; Gemini matches responses by name.
	ToolName string `json:"tool_name,omitempty"`
}

// Text returns the normalized text of the message.
func (m Message) Text() string {
	return Normalize(m.Content)
}

// UserMessage builds a single user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: PlainText(text)}
}

// ToolMessage builds the result message for a tool call.
func ToolMessage(call ToolCall, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    PlainText(result),
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}
}

// ToolDefinition describes a tool available to the LLM.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ToolCall represents an LLM request to invoke a tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries provider-specific data that must be echoed back verbatim.
	Meta map[string]any `json:"-"`
}

// ChatRequest is the input for a chat completion.
type ChatRequest struct {
	Model        string           `json:"model"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	MaxTokens    int              `json:"max_tokens"`
	Temperature  float64          `json:"temperature"`
	SystemPrompt string           `json:"system_prompt,omitempty"`
}

// ErrorType classifies LLM errors for fallback decisions.
type ErrorType int

const (
	ErrorUnknown      ErrorType = iota
	ErrorRateLimit              // 429
	ErrorAuth                   // 401/403
	ErrorInvalidInput           // 400
	ErrorServerError            // 500+
	ErrorTimeout                // context deadline exceeded
	ErrorNetwork                // connection refused, DNS, etc.
)
