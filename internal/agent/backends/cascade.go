package backends

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gobapps/emma-core/internal/agent/model"
	errx "github.com/gobapps/emma-core/internal/core/error"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// cascadeOrder lists the next-cheaper backend tried after each failure.
var cascadeOrder = map[model.Backend]model.Backend{
	model.BackendPremium: model.BackendSourced,
	model.BackendSourced: model.BackendFree,
}

// Cascade degrades across backends on failure, ending at a locally
// synthesized answer built from whatever tool data succeeded.
type Cascade struct {
	gens map[model.Backend]Generator
}

// NewCascade indexes the available generators.
func NewCascade(gens ...Generator) *Cascade {
	m := map[model.Backend]Generator{}
	for _, g := range gens {
		m[g.Name()] = g
	}
	return &Cascade{gens: m}
}

// Result reports which backend finally answered and whether the answer is
// degraded (synthesized locally instead of model-generated).
type Result struct {
	Text      string
	Used      model.Backend
	Synthetic bool
}

// Generate tries the selected backend, then each next-cheaper one.
// Configuration errors abort immediately: a missing credential is a
// deployment problem the caller must surface, not degrade over. Any other
// failure class cascades; when every backend fails, the answer is
// synthesized from tool data and the error return is nil.
func (c *Cascade) Generate(ctx context.Context, selected model.Backend, req GenerateRequest, toolResults []model.ToolExecutionResult) (Result, error) {
	for backend := selected; backend != ""; backend = cascadeOrder[backend] {
		gen, ok := c.gens[backend]
		if !ok {
			continue
		}
		text, err := gen.Generate(ctx, req)
		if err == nil {
			return Result{Text: text, Used: backend}, nil
		}
		if errors.Is(err, errx.ErrBackendConfig) {
			return Result{}, err
		}
		logx.Warn().Err(err).Str("backend", string(backend)).Msg("backend failed, cascading")
	}

	return Result{
		Text:      SynthesizeFromTools(toolResults),
		Used:      selected,
		Synthetic: true,
	}, nil
}

// SynthesizeFromTools renders a plain-language answer from successful tool
// results when no backend is reachable. Better a terse factual reply than
// an error payload.
func SynthesizeFromTools(results []model.ToolExecutionResult) string {
	var lines []string
	for _, r := range results {
		if !r.Success || len(r.Data) == 0 {
			continue
		}
		lines = append(lines, renderToolData(r.ToolID, r.Data))
	}
	if len(lines) == 0 {
		return "I'm having trouble reaching my data sources right now. Please try again in a moment."
	}
	return "I couldn't generate a full analysis right now, but here is the data I gathered:\n" +
		strings.Join(lines, "\n")
}

func renderToolData(toolID string, data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := data[k].(type) {
		case string, float64, int, int64, bool:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return fmt.Sprintf("- %s: %s", toolID, strings.Join(parts, ", "))
}
