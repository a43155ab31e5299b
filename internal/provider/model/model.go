package model

import (
	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
)

// GenerateRequest encapsulates all parameters for a generation request.
type GenerateRequest struct {
	// System contains the system instructions for the session
	System string

	// History contains the conversation history
	History []model.Message

	// Tools contains tool definitions for native tool calling
	Tools []ToolDefinition
}

// GenerateResponse contains the model's response and metadata.
type GenerateResponse struct {
	// Content contains the generated response
	Content ResponseContent

	// Truncated reports that the response was cut short by the output length
	// limit and the caller should issue a continuation request.
	Truncated bool

	// Metadata contains information about the generation
	Metadata ResponseMetadata
}

// ResponseContent is a union type representing different response types.
type ResponseContent struct {
	// Type indicates what the model produced
	Type ResponseType

	// For Type = ResponseTypeText
	Text string

	// For Type = ResponseTypeToolCall
	ToolCalls []model.ToolCall

	// For Type = ResponseTypeRefusal (safety block, policy violation)
	RefusalReason string
}

// ResponseType indicates the type of response from the model.
type ResponseType string

const (
	ResponseTypeText     ResponseType = "text"
	ResponseTypeToolCall ResponseType = "tool_call"
	ResponseTypeRefusal  ResponseType = "refusal"
)

// ResponseMetadata contains information about the generation.
type ResponseMetadata struct {
	// Token usage
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// Cost estimation in USD, when the provider can compute one
	EstimatedCost float64

	// Model used
	ModelUsed string
}

// ToolDefinition defines a tool that the model can invoke.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *ParameterSchema // Pointer to allow nil (no params)
}

// ParameterSchema maps directly to standard JSON Schema.
type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema defines a single parameter property.
type PropertySchema struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Items       *PropertySchema `json:"items,omitempty"`
}
