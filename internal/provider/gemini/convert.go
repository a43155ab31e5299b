package gemini

import (
	"fmt"

	"github.com/Cyclone1070/hostagent/internal/orchestrator/model"
	provider "github.com/Cyclone1070/hostagent/internal/provider/model"
	"google.golang.org/genai"
)

// Pricing per 1M tokens in USD, used for the session cost counters. Unknown
// models report zero cost rather than guessing.
var modelPricing = map[string]struct{ prompt, completion float64 }{
	"gemini-2.0-flash":      {0.10, 0.40},
	"gemini-2.0-flash-lite": {0.075, 0.30},
	"gemini-1.5-pro":        {1.25, 5.00},
	"gemini-1.5-flash":      {0.075, 0.30},
}

// toGeminiContents converts conversation history to Gemini Content format.
func toGeminiContents(history []model.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		content := messageToGeminiContent(msg)
		if content != nil {
			contents = append(contents, content)
		}
	}
	return contents
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg model.Message) *genai.Content {
	role := "user"
	if msg.Role == "assistant" || msg.Role == "model" {
		role = "model"
	}

	parts := make([]*genai.Part, 0)

	if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}

	// Tool calls on model messages
	for _, toolCall := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				Name: toolCall.Name,
				Args: toolCall.Args,
			},
		})
	}

	// Tool results on function messages
	for _, result := range msg.ToolResults {
		responseContent := result.Content
		if result.Error != "" {
			responseContent = fmt.Sprintf("Error: %s", result.Error)
		}
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				Name: result.Name,
				Response: map[string]any{
					"content": responseContent,
				},
			},
		})
	}

	if len(parts) == 0 {
		return nil
	}

	return &genai.Content{
		Role:  role,
		Parts: parts,
	}
}

// toGeminiConfig builds the generation config, carrying system instructions
// and the output token cap.
func toGeminiConfig(system string, maxOutputTokens int32) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}
	if maxOutputTokens > 0 {
		config.MaxOutputTokens = maxOutputTokens
	}
	return config
}

// toGeminiTools converts internal ToolDefinition to Gemini tools.
func toGeminiTools(tools []provider.ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if tool.Parameters != nil {
			fd.Parameters = toGeminiSchema(tool.Parameters)
		}
		functionDeclarations = append(functionDeclarations, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// toGeminiSchema converts ParameterSchema to Gemini Schema.
func toGeminiSchema(params *provider.ParameterSchema) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if params.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range params.Properties {
			schema.Properties[name] = &genai.Schema{
				Type:        toGeminiType(prop.Type),
				Description: prop.Description,
			}
			if len(prop.Enum) > 0 {
				schema.Properties[name].Enum = prop.Enum
			}
			if prop.Items != nil {
				schema.Properties[name].Items = &genai.Schema{
					Type:        toGeminiType(prop.Items.Type),
					Description: prop.Items.Description,
				}
			}
		}
	}

	if len(params.Required) > 0 {
		schema.Required = params.Required
	}

	return schema
}

// toGeminiType converts string type to Gemini Type.
func toGeminiType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts Gemini response to internal format.
// A max-tokens finish is not an error here: the response is returned as a
// truncated fragment and the loop issues a continuation request.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelUsed string) (*provider.GenerateResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidRequest,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return &provider.GenerateResponse{
			Content: provider.ResponseContent{
				Type:          provider.ResponseTypeRefusal,
				RefusalReason: "content blocked by safety filters",
			},
			Metadata: buildMetadata(resp.UsageMetadata, modelUsed),
		}, nil
	}

	truncated := candidate.FinishReason == genai.FinishReasonMaxTokens

	// Function calls take precedence over text parts.
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.FunctionCall != nil {
				return buildToolCallResponse(candidate, resp.UsageMetadata, modelUsed), nil
			}
		}
	}

	response := buildTextResponse(candidate, resp.UsageMetadata, modelUsed)
	response.Truncated = truncated
	return response, nil
}

// buildTextResponse builds a text response from a candidate.
func buildTextResponse(candidate *genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) *provider.GenerateResponse {
	var text string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
	}

	return &provider.GenerateResponse{
		Content: provider.ResponseContent{
			Type: provider.ResponseTypeText,
			Text: text,
		},
		Metadata: buildMetadata(usage, modelUsed),
	}
}

// buildToolCallResponse builds a tool call response from a candidate.
func buildToolCallResponse(candidate *genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) *provider.GenerateResponse {
	toolCalls := make([]model.ToolCall, 0)
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, model.ToolCall{
				ID:   "", // Gemini doesn't provide IDs
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}

	return &provider.GenerateResponse{
		Content: provider.ResponseContent{
			Type:      provider.ResponseTypeToolCall,
			ToolCalls: toolCalls,
		},
		Metadata: buildMetadata(usage, modelUsed),
	}
}

// buildMetadata builds response metadata from usage data.
func buildMetadata(usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) provider.ResponseMetadata {
	metadata := provider.ResponseMetadata{
		ModelUsed: modelUsed,
	}

	if usage != nil {
		metadata.PromptTokens = int(usage.PromptTokenCount)
		metadata.CompletionTokens = int(usage.CandidatesTokenCount)
		metadata.TotalTokens = int(usage.TotalTokenCount)
		if price, ok := modelPricing[modelUsed]; ok {
			metadata.EstimatedCost = float64(metadata.PromptTokens)/1_000_000*price.prompt +
				float64(metadata.CompletionTokens)/1_000_000*price.completion
		}
	}

	return metadata
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 401, 403:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeAuth,
				Message:    "authentication failed",
				Underlying: err,
				Retryable:  false,
			}
		case 429:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeRateLimit,
				Message:    "rate limit exceeded",
				Underlying: err,
				Retryable:  true,
			}
		case 400:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeInvalidRequest,
				Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
				Underlying: err,
				Retryable:  false,
			}
		case 500, 502, 503, 504:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeUnavailable,
				Message:    "service unavailable",
				Underlying: err,
				Retryable:  true,
			}
		default:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeNetwork,
				Message:    fmt.Sprintf("API error: %s", apiErr.Message),
				Underlying: err,
				Retryable:  true,
			}
		}
	}

	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}
