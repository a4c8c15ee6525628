package backends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/gobapps/emma-core/internal/agent/model"
	errx "github.com/gobapps/emma-core/internal/core/error"
)

// PremiumBackend produces long-form polished prose through the Anthropic
// API. Reserved for briefings and similar high-value outputs.
type PremiumBackend struct {
	client     anthropic.Client
	modelName  string
	maxTokens  int
	configured bool
}

var _ Generator = (*PremiumBackend)(nil)

// NewPremiumBackend builds the premium backend. An empty API key defers the
// failure to Generate with a configuration error.
func NewPremiumBackend(apiKey, modelName string, maxTokens int) *PremiumBackend {
	return &PremiumBackend{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		modelName:  modelName,
		maxTokens:  maxTokens,
		configured: apiKey != "",
	}
}

func (b *PremiumBackend) Name() model.Backend { return model.BackendPremium }

func (b *PremiumBackend) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if !b.configured {
		return "", errx.New(errx.ErrBackendConfig, http.StatusInternalServerError, "premium backend API key not configured")
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.maxTokens
	}
	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.modelName),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.Prompt)},
			},
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", errx.WrapBackend(err, apiErr.StatusCode)
		}
		return "", errx.WrapBackend(err, 0)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errx.WrapBackend(fmt.Errorf("empty completion"), 0)
	}
	return sb.String(), nil
}
