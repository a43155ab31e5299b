package orchestrator

import (
	_ "embed"

	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
)

//go:embed prompts/toolcall.md
var toolCallSystemPrompt string

//go:embed prompts/jsonaction.md
var jsonActionSystemPrompt string

// systemPrompt returns the system instructions for the given protocol, with
// an optional config override replacing the embedded default.
func systemPrompt(protocol model.Protocol, override string) string {
	if override != "" {
		return override
	}
	if protocol == model.ProtocolJSONAction {
		return jsonActionSystemPrompt
	}
	return toolCallSystemPrompt
}
