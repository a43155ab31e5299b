package gemini

import (
	"context"
	"sync"

	provider "github.com/Cyclone1070/hostagent/internal/provider/model"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client          GeminiClient
	mu              sync.RWMutex
	modelName       string
	maxOutputTokens int32
}

// New creates a new GeminiProvider with the specified client and model.
// maxOutputTokens caps each generation; a truncated finish at that cap is
// reported via GenerateResponse.Truncated and stitched by the caller.
func New(client GeminiClient, modelName string, maxOutputTokens int) *GeminiProvider {
	return &GeminiProvider{
		client:          client,
		modelName:       modelName,
		maxOutputTokens: int32(maxOutputTokens),
	}
}

// Generate sends a request to the Gemini API and returns the response.
func (p *GeminiProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	p.mu.RLock()
	model := p.modelName
	p.mu.RUnlock()

	contents := toGeminiContents(req.History)
	config := toGeminiConfig(req.System, p.maxOutputTokens)
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	resp, err := p.client.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	return fromGeminiResponse(resp, model)
}

// SetModel changes the active model at runtime.
func (p *GeminiProvider) SetModel(model string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelName = model
	return nil
}

// GetModel returns the currently active model name.
func (p *GeminiProvider) GetModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modelName
}
