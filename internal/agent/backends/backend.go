package backends

import (
	"context"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// GenerateRequest is one completion call. Timeout is tiered by output mode
// and applied by the backend itself so every implementation enforces the
// same budget semantics.
type GenerateRequest struct {
	Prompt    string
	MaxTokens int
	Recency   model.Recency
	Timeout   time.Duration
}

// Generator is one completion provider. Errors must be classifiable via the
// errx backend sentinels so callers can tell timeout from rate-limit from
// auth failure.
type Generator interface {
	Name() model.Backend
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
