package model

// Message represents a single message in the conversation history
type Message struct {
	Role    string // "user", "assistant", "system", "model", "function"
	Content string

	// For model messages with tool calls
	ToolCalls []ToolCall

	// For function messages with tool results
	ToolResults []ToolResult
}

// ToolCall represents a structured tool invocation from the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	ID      string // Matches ToolCall.ID
	Name    string // Tool name
	Content string // Result content (serialized execution result)
	Error   string // Error message if tool failed
}

// Action is one turn's payload under the single-JSON-action protocol: the
// engine must respond with exactly one JSON object of this shape.
type Action struct {
	Status    string   `json:"status"` // "continue", "complete", or "blocked"
	Reasoning string   `json:"reasoning"`
	Commands  []string `json:"commands"`
}

// Action status values.
const (
	ActionContinue = "continue"
	ActionComplete = "complete"
	ActionBlocked  = "blocked"
)

// Protocol selects how engine responses are interpreted.
type Protocol string

const (
	// ProtocolToolCall interprets structured function-call objects; a turn
	// with no tool calls is the engine's final answer.
	ProtocolToolCall Protocol = "tool_call"
	// ProtocolJSONAction requires each response to parse as one Action.
	ProtocolJSONAction Protocol = "json_action"
)

// Status is the terminal state of a session. All terminal states are reached
// from the iterating state only.
type Status string

const (
	StatusComplete      Status = "complete"
	StatusBlocked       Status = "blocked"
	StatusMaxIterations Status = "max_iterations"
	StatusError         Status = "error"
)
