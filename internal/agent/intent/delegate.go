package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/gobapps/emma-core/internal/agent/model"
	"github.com/gobapps/emma-core/internal/agent/prompts"
	errx "github.com/gobapps/emma-core/internal/core/error"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// basic safety limits to avoid pathological model outputs
const (
	maxDelegateContent   = 64 * 1024 // 64KB
	maxDelegateEntities  = 10
	maxDelegateQuestions = 3
)

// defaultDelegateTimeout bounds the classification call when no explicit
// timeout is configured. A stuck delegate must resolve into the local
// fallback path, never hang the request.
const defaultDelegateTimeout = 10 * time.Second

// delegateThresholds remap the delegate's confidence into needs_clarification
// per intent. Data-integrity-sensitive intents get stricter thresholds; free
// conversation gets the loosest one. Intents not listed use the default.
var delegateThresholds = map[model.Intent]float64{
	model.IntentPortfolio:           0.8,
	model.IntentRecommendation:      0.75,
	model.IntentComparativeAnalysis: 0.7,
	model.IntentGeneralConversation: 0.4,
	model.IntentGreeting:            0.4,
}

const defaultDelegateThreshold = 0.6

// ModelDelegate classifies ambiguous messages through a chat model.
type ModelDelegate struct {
	chat    einomodel.BaseChatModel
	timeout time.Duration
}

var _ Delegate = (*ModelDelegate)(nil)

// NewModelDelegate wraps a chat model as the delegate classifier. A
// non-positive timeout falls back to the package default.
func NewModelDelegate(chat einomodel.BaseChatModel, timeout time.Duration) *ModelDelegate {
	if timeout <= 0 {
		timeout = defaultDelegateTimeout
	}
	return &ModelDelegate{chat: chat, timeout: timeout}
}

// Analyze asks the model to classify the message, then normalizes its
// structured output. Any parse problem is returned as an error so the
// caller can fall back to the local path.
func (d *ModelDelegate) Analyze(ctx context.Context, message string, recentTurns []string, contextSummary string) (model.IntentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	prompt := prompts.RenderClassifier(message, recentTurns, contextSummary)
	out, err := d.chat.Generate(ctx, []*schema.Message{schema.SystemMessage(prompt)})
	if err != nil {
		return model.IntentResult{}, errx.WrapBackend(err, 0)
	}
	if out == nil {
		return model.IntentResult{}, fmt.Errorf("delegate returned no message")
	}
	return parseDelegateResponse(out.Content)
}

// delegatePayload mirrors the JSON contract in the classifier template.
type delegatePayload struct {
	Intent                 string   `json:"intent"`
	Confidence             float64  `json:"confidence"`
	Entities               []string `json:"entities"`
	NeedsClarification     bool     `json:"needs_clarification"`
	ClarificationQuestions []string `json:"clarification_questions"`
}

// parseDelegateResponse extracts and validates the delegate's JSON object.
func parseDelegateResponse(content string) (res model.IntentResult, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "delegate_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("delegate parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			res = model.IntentResult{}
		}
	}()

	if len(content) > maxDelegateContent {
		content = content[:maxDelegateContent]
	}

	// Tolerate prose or code fences around the object: take the outermost
	// brace pair.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return model.IntentResult{}, fmt.Errorf("no json object in delegate output")
	}

	var payload delegatePayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return model.IntentResult{}, fmt.Errorf("delegate json: %w", err)
	}
	if payload.Intent == "" {
		return model.IntentResult{}, fmt.Errorf("delegate omitted intent")
	}

	it := model.Intent(strings.ToLower(strings.TrimSpace(payload.Intent)))
	if _, known := model.Profiles[it]; !known {
		return model.IntentResult{}, fmt.Errorf("delegate returned unknown intent %q", payload.Intent)
	}

	conf := payload.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	ents := make([]string, 0, len(payload.Entities))
	for _, e := range payload.Entities {
		e = strings.ToUpper(strings.TrimSpace(e))
		if e == "" || len(e) > 10 {
			continue
		}
		ents = append(ents, e)
		if len(ents) >= maxDelegateEntities {
			break
		}
	}

	qs := payload.ClarificationQuestions
	if len(qs) > maxDelegateQuestions {
		qs = qs[:maxDelegateQuestions]
	}

	threshold, ok := delegateThresholds[it]
	if !ok {
		threshold = defaultDelegateThreshold
	}
	needs := payload.NeedsClarification || conf < threshold
	if !needs {
		qs = nil
	}

	p := model.ProfileFor(it)
	return model.IntentResult{
		Intent:                 it,
		Confidence:             conf,
		Entities:               ents,
		SuggestedTools:         append([]string(nil), p.SuggestedTools...),
		Method:                 model.MethodLLM,
		NeedsClarification:     needs,
		ClarificationQuestions: qs,
		Recency:                p.DefaultRecency,
		AnalyzedAt:             time.Now().UTC(),
	}, nil
}
