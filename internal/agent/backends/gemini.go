package backends

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/gobapps/emma-core/internal/agent/model"
	errx "github.com/gobapps/emma-core/internal/core/error"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// FreeBackend answers conceptual questions on the low-cost chat model.
type FreeBackend struct {
	chat      einomodel.BaseChatModel
	modelName string
}

var _ Generator = (*FreeBackend)(nil)

// NewFreeBackend wraps an already-constructed chat model.
func NewFreeBackend(chat einomodel.BaseChatModel, modelName string) *FreeBackend {
	return &FreeBackend{chat: chat, modelName: modelName}
}

func (b *FreeBackend) Name() model.Backend { return model.BackendFree }

func (b *FreeBackend) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	out, err := b.chat.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)})
	if err != nil {
		return "", errx.WrapBackend(err, 0)
	}
	if out == nil || out.Content == "" {
		return "", errx.WrapBackend(fmt.Errorf("empty completion"), 0)
	}

	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		in, outCost, total := model.ComputeCost(out.ResponseMeta.Usage, model.ResolvePricing(b.modelName))
		logx.Debug().
			Str("backend", "free").
			Float64("input_cost_usd", in).
			Float64("output_cost_usd", outCost).
			Float64("total_cost_usd", total).
			Msg("completion cost")
	}
	return out.Content, nil
}
