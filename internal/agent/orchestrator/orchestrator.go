// Package orchestrator drives one user turn through classification, context
// memory, tool execution, model routing, generation and validation, and
// returns a uniform response envelope.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gobapps/emma-core/internal/agent/backends"
	"github.com/gobapps/emma-core/internal/agent/contextmem"
	"github.com/gobapps/emma-core/internal/agent/entities"
	"github.com/gobapps/emma-core/internal/agent/intent"
	"github.com/gobapps/emma-core/internal/agent/model"
	"github.com/gobapps/emma-core/internal/agent/prompts"
	"github.com/gobapps/emma-core/internal/agent/tools"
	"github.com/gobapps/emma-core/internal/agent/validate"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// Per-mode completion budgets.
const (
	chatMaxTokens     = 800
	briefingMaxTokens = 2000
	noteMaxTokens     = 600
	dataMaxTokens     = 500
)

// Params collects everything the orchestrator wires together.
type Params struct {
	Classifier *intent.Classifier
	Memories   *contextmem.Store
	History    model.ConversationRepository
	Scorer     *tools.Scorer
	Executor   *tools.Executor
	Cascade    *backends.Cascade
	Validator  *validate.Validator

	Conversation model.ConversationConfig
	Backends     model.BackendConfig
	Cache        model.CacheConfig
}

type Orchestrator struct {
	classifier *intent.Classifier
	memories   *contextmem.Store
	history    model.ConversationRepository
	scorer     *tools.Scorer
	executor   *tools.Executor
	cascade    *backends.Cascade
	validator  *validate.Validator

	cache           *expirable.LRU[string, model.Response]
	chatTimeout     time.Duration
	briefingTimeout time.Duration
	contextTurns    int
}

func New(p Params) (*Orchestrator, error) {
	chatTimeout, err := time.ParseDuration(p.Backends.ChatTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse chat timeout: %w", err)
	}
	briefingTimeout, err := time.ParseDuration(p.Backends.BriefingTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse briefing timeout: %w", err)
	}
	cacheTTL, err := time.ParseDuration(p.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("parse cache ttl: %w", err)
	}

	return &Orchestrator{
		classifier:      p.Classifier,
		memories:        p.Memories,
		history:         p.History,
		scorer:          p.Scorer,
		executor:        p.Executor,
		cascade:         p.Cascade,
		validator:       p.Validator,
		cache:           expirable.NewLRU[string, model.Response](p.Cache.Size, nil, cacheTTL),
		chatTimeout:     chatTimeout,
		briefingTimeout: briefingTimeout,
		contextTurns:    p.Conversation.ContextTurns,
	}, nil
}

// Process handles one turn end to end. It never panics across a request and
// only reports Success false when no answer could be produced at all, e.g.
// on a backend configuration error.
func (o *Orchestrator) Process(ctx context.Context, req model.Request) model.Response {
	start := time.Now()
	requestID := uuid.NewString()
	mode := req.OutputMode
	if mode == "" {
		mode = model.ModeChat
	}
	channel := req.Channel
	if channel == "" {
		channel = model.ChannelChat
	}

	if cached, ok := o.cache.Get(cacheKey(req.ConversationID, req.Message)); ok {
		cached.RequestID = requestID
		cached.Cached = true
		cached.ExecutionTimeMS = time.Since(start).Milliseconds()
		return cached
	}

	memory := o.memories.Get(req.ConversationID)
	hints := o.buildHints(ctx, req.ConversationID, memory)

	var res model.IntentResult
	if req.ForcedIntent != "" {
		ents := entities.Extract(req.Message, entities.Options{Strict: true, MaxSymbols: 10})
		res = intent.Forced(req.ForcedIntent, ents)
	} else {
		res = o.classifier.Classify(ctx, req.Message, hints)
	}

	if res.Intent == model.IntentReset {
		memory.Reset()
		o.clearHistory(req.ConversationID)
		return o.finish(req, requestID, start, model.Response{
			Success:    true,
			Response:   "Done, I cleared our conversation context. What would you like to look at next?",
			ToolsUsed:  []string{},
			Intent:     res.Intent,
			Confidence: res.Confidence,
			IsReliable: true,
			OutputMode: mode,
		}, false)
	}

	res, inferred := memory.InferMissing(req.Message, res)
	if inferred > 0 && inferred < res.Confidence {
		res.Confidence = inferred
	}
	memory.Update(req.Message, res)

	if res.NeedsClarification {
		return o.finish(req, requestID, start, model.Response{
			Success:    true,
			Response:   strings.Join(res.ClarificationQuestions, " "),
			ToolsUsed:  []string{},
			Intent:     res.Intent,
			Confidence: res.Confidence,
			IsReliable: true,
			OutputMode: mode,
		}, false)
	}

	selected := o.scorer.Select(res, tools.SelectionContext{
		Message:        req.Message,
		Channel:        channel,
		ContextTickers: hints.Tickers,
	})
	results := o.executor.ExecuteAll(ctx, selected, tools.ExecutionContext{
		Message:    req.Message,
		Entities:   res.Entities,
		Parameters: res.Parameters,
	})
	used, failed := splitOutcomes(results)

	if res.Intent == model.IntentPortfolio {
		return o.finish(req, requestID, start, model.Response{
			Success:     true,
			Response:    formatWatchlist(results),
			ToolsUsed:   used,
			FailedTools: failed,
			Intent:      res.Intent,
			Confidence:  res.Confidence,
			IsReliable:  true,
			OutputMode:  mode,
		}, true)
	}

	toolData := formatToolData(results)
	sel := backends.Select(res, mode, toolData != "", req.Message)

	genReq := backends.GenerateRequest{
		Prompt:    prompts.RenderAnswer(mode, req.Message, toolData, memory.Summary(), primaryTicker(res, memory)),
		MaxTokens: maxTokensFor(mode),
		Recency:   sel.Recency,
		Timeout:   o.timeoutFor(mode),
	}

	result, err := o.cascade.Generate(ctx, sel.Backend, genReq, results)
	if err != nil {
		logx.Error().Err(err).Str("requestID", requestID).Msg("generation aborted")
		return model.Response{
			RequestID:          requestID,
			Success:            false,
			Response:           "The assistant is not fully configured for this request. Please contact support.",
			ToolsUsed:          used,
			FailedTools:        failed,
			UnavailableSources: failed,
			Intent:             res.Intent,
			Confidence:         res.Confidence,
			ModelUsed:          sel.Backend,
			OutputMode:         mode,
			ExecutionTimeMS:    time.Since(start).Milliseconds(),
		}
	}

	text, reliable := o.checkAndRetry(ctx, result, genReq, res, req.Message)
	if anyUnreliable(results) {
		reliable = false
	}

	return o.finish(req, requestID, start, model.Response{
		Success:            true,
		Response:           text,
		ToolsUsed:          used,
		FailedTools:        failed,
		UnavailableSources: failed,
		Intent:             res.Intent,
		Confidence:         res.Confidence,
		IsReliable:         reliable,
		ModelUsed:          result.Used,
		OutputMode:         mode,
	}, reliable)
}

// checkAndRetry validates the generated text and, when validation or the
// freshness check fails, performs exactly one reinforced retry on the
// backend that answered. A still-failing retry is accepted as unreliable.
func (o *Orchestrator) checkAndRetry(ctx context.Context, result backends.Result, genReq backends.GenerateRequest, res model.IntentResult, message string) (string, bool) {
	if result.Synthetic {
		return result.Text, false
	}
	if res.Intent.IsConversational() {
		return result.Text, true
	}

	vctx := validate.Context{Intent: res.Intent, RawMessage: message, Entities: res.Entities}
	vres := o.validator.Validate(result.Text, vctx)
	fresh := result.Used != model.BackendSourced || validate.IsFresh(result.Text, res.Intent)
	if vres.Valid && fresh {
		return result.Text, true
	}

	issues := validate.IssueSummaries(vres)
	if !fresh {
		issues = append(issues, "answer lacked citations or recent data")
	}
	logx.Warn().
		Float64("score", vres.Score).
		Bool("fresh", fresh).
		Str("intent", string(res.Intent)).
		Msg("answer rejected, retrying once")

	retryReq := genReq
	retryReq.Prompt = prompts.RenderRetry(message, issues)
	retried, err := o.cascade.Generate(ctx, result.Used, retryReq, nil)
	if err != nil || retried.Synthetic {
		return result.Text, false
	}

	rres := o.validator.Validate(retried.Text, vctx)
	rfresh := result.Used != model.BackendSourced || validate.IsFresh(retried.Text, res.Intent)
	if rres.Valid && rfresh {
		return retried.Text, true
	}
	// keep whichever attempt scored better, flagged unreliable
	if rres.Score > vres.Score {
		return retried.Text, false
	}
	return result.Text, false
}

// finish stamps the envelope, persists the turn and optionally caches it.
func (o *Orchestrator) finish(req model.Request, requestID string, start time.Time, resp model.Response, cacheable bool) model.Response {
	resp.RequestID = requestID
	resp.ExecutionTimeMS = time.Since(start).Milliseconds()

	o.persistTurn(req.ConversationID, req.Message, resp.Response)
	if cacheable && resp.Success {
		o.cache.Add(cacheKey(req.ConversationID, req.Message), resp)
	}
	return resp
}

// clearHistory wipes the stored turns on an explicit reset command. The
// reset exchange itself is persisted afterwards as the new history start.
func (o *Orchestrator) clearHistory(conversationID string) {
	if o.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := o.history.ClearHistory(ctx, conversationID); err != nil {
		logx.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to clear history")
	}
}

// persistTurn stores the user and assistant messages. History is soft
// state, so failures are logged and swallowed.
func (o *Orchestrator) persistTurn(conversationID, userMsg, answer string) {
	if o.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := o.history.AddMessage(ctx, conversationID, schema.UserMessage(userMsg)); err != nil {
		logx.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to persist user message")
		return
	}
	if answer == "" {
		return
	}
	if err := o.history.AddMessage(ctx, conversationID, schema.AssistantMessage(answer, nil)); err != nil {
		logx.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to persist assistant message")
	}
}

func (o *Orchestrator) buildHints(ctx context.Context, conversationID string, memory *contextmem.Memory) intent.ContextHints {
	snap := memory.Snapshot()
	hints := intent.ContextHints{
		Tickers: snap.Tickers,
		Summary: memory.Summary(),
	}
	if snap.Topic != nil {
		hints.TopicIntent = snap.Topic.Intent
	}
	if o.history != nil {
		if h, err := o.history.LoadHistory(ctx, conversationID); err != nil {
			logx.Warn().Err(err).Str("conversationID", conversationID).Msg("failed to load history")
		} else {
			hints.RecentTurns = h.RecentUserTurns(o.contextTurns)
		}
	}
	return hints
}

func (o *Orchestrator) timeoutFor(mode model.OutputMode) time.Duration {
	if mode == model.ModeBriefing {
		return o.briefingTimeout
	}
	return o.chatTimeout
}

func maxTokensFor(mode model.OutputMode) int {
	switch mode {
	case model.ModeBriefing:
		return briefingMaxTokens
	case model.ModeTickerNote:
		return noteMaxTokens
	case model.ModeData:
		return dataMaxTokens
	default:
		return chatMaxTokens
	}
}

func cacheKey(conversationID, message string) string {
	return conversationID + "\x00" + strings.ToLower(strings.TrimSpace(message))
}

func primaryTicker(res model.IntentResult, memory *contextmem.Memory) string {
	if len(res.Entities) > 0 {
		return res.Entities[0]
	}
	return memory.Snapshot().PrimaryTicker
}

func splitOutcomes(results []model.ToolExecutionResult) (used, failed []string) {
	used = []string{}
	for _, r := range results {
		if r.Success {
			used = append(used, r.ToolID)
		} else {
			failed = append(failed, r.ToolID)
		}
	}
	return used, failed
}

func anyUnreliable(results []model.ToolExecutionResult) bool {
	for _, r := range results {
		if !r.IsReliable && !r.Skipped {
			return true
		}
	}
	return false
}

// formatToolData renders execution results as the data block for generation
// prompts. Only successful results contribute; keys are sorted so prompts
// are stable across runs.
func formatToolData(results []model.ToolExecutionResult) string {
	var b strings.Builder
	for _, r := range results {
		if !r.Success || len(r.Data) == 0 {
			continue
		}
		b.WriteString("## ")
		b.WriteString(r.ToolID)
		if r.FallbackUsed != "" {
			b.WriteString(" (via ")
			b.WriteString(r.FallbackUsed)
			b.WriteString(")")
		}
		b.WriteString("\n")
		keys := make([]string, 0, len(r.Data))
		for k := range r.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %v\n", k, r.Data[k])
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// formatWatchlist builds the direct portfolio answer from tool data without
// a model call.
func formatWatchlist(results []model.ToolExecutionResult) string {
	for _, r := range results {
		if !r.Success {
			continue
		}
		rows, ok := r.Data["watchlist"].([]map[string]any)
		if !ok {
			continue
		}
		var b strings.Builder
		b.WriteString("Your watchlist:\n")
		for _, row := range rows {
			fmt.Fprintf(&b, "- %v", row["ticker"])
			if note, ok := row["note"].(string); ok && note != "" {
				fmt.Fprintf(&b, " (%s)", note)
			}
			b.WriteString("\n")
		}
		return strings.TrimSpace(b.String())
	}
	return "Your watchlist is empty."
}
