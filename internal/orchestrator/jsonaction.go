package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
)

// retryNudge is sent once when the engine fails to produce valid JSON under
// the single-JSON-action protocol. A second failure ends the run with an
// error status.
const retryNudge = "ERROR: You must respond with valid JSON only. No prose, no markdown fences. Respond with exactly one JSON object with fields status, reasoning, and commands."

// ParseAction extracts the single JSON action from an engine response.
// Markdown code fences around the object are tolerated and stripped.
func ParseAction(text string) (*model.Action, error) {
	cleaned := stripCodeFences(strings.TrimSpace(text))

	var action model.Action
	if err := json.Unmarshal([]byte(cleaned), &action); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	switch action.Status {
	case model.ActionContinue, model.ActionComplete, model.ActionBlocked:
	default:
		return nil, fmt.Errorf("invalid status %q", action.Status)
	}

	return &action, nil
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	// Drop the opening fence line and a closing fence if present.
	lines = lines[1:]
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			lines = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
