package tool

import (
	"context"
	"encoding/json"
)

// Tool is the interface for agent tools.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage // JSON Schema
	// Execute runs the tool. The result is always text; an error means the
	// arguments could not be used at all.
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
