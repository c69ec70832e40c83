package types

import "time"

// AskRequest is the body of POST /ask
type AskRequest struct {
	Input string `json:"input"`
}

// WSQuestion is a question frame received on the websocket
type WSQuestion struct {
	Input string `json:"input"`
}

// WSAnswer is the reply frame sent on the websocket
type WSAnswer struct {
	Input  string `json:"input"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FunctionCall format for LLM tool use
type FunctionCall struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// AskRecord is one stored /ask exchange
type AskRecord struct {
	ID         int64     `json:"id"`
	Input      string    `json:"input"`
	Answer     string    `json:"answer"`
	Status     int       `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// UsageStats are the running ask counters
type UsageStats struct {
	Total  int64 `json:"total"`
	OK     int64 `json:"ok"`
	Failed int64 `json:"failed"`
}

// ErrorResponse standard error format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
