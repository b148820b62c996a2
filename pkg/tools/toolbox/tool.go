// Package toolbox holds tool declarations and a small registry that executes
// them by name.
package toolbox

import (
	"context"
	"encoding/json"
)

// Handler executes a tool with the given JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a tool declaration: name, description for the model and JSON
// Schema of its input. Handler is nil for tools that are executed elsewhere,
// such as the per-turn study tools.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}
