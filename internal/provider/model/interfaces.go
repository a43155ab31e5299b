package model

import (
	"context"
)

// Provider defines the interface for reasoning-engine backends. The engine is
// an opaque external dependency; the loop only needs generation, and model
// selection for the session record.
type Provider interface {
	// Generate sends a request to the model and returns the response.
	// A response with Truncated set is a partial fragment; the caller is
	// expected to issue a continuation request.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// SetModel changes the active model at runtime.
	SetModel(model string) error

	// GetModel returns the currently active model name.
	GetModel() string
}
