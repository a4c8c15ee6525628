// Package intent implements hybrid intent classification: a cheap local
// path for unambiguous messages and an LLM delegate for the rest.
package intent

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/gobapps/emma-core/internal/agent/entities"
	"github.com/gobapps/emma-core/internal/agent/model"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// Delegate is the LLM-backed classifier used for ambiguous messages.
type Delegate interface {
	Analyze(ctx context.Context, message string, recentTurns []string, contextSummary string) (model.IntentResult, error)
}

// ContextHints carries conversation-derived signals into classification.
type ContextHints struct {
	// Tickers recently discussed, most recent first.
	Tickers []string
	// Summary is the rendered context block for delegate prompts.
	Summary string
	// RecentTurns holds the last few user messages, newest last.
	RecentTurns []string
	// TopicIntent is the intent of the current conversation topic, used to
	// carry the subject across short follow-up turns like "et MSFT?".
	TopicIntent model.Intent
}

// Classifier routes each message through the pre-filter, the command table,
// and then either local keyword scoring or the delegate.
type Classifier struct {
	cfg      model.ClassifierConfig
	delegate Delegate
}

// NewClassifier builds a classifier. A nil delegate disables the LLM path;
// every message then classifies locally.
func NewClassifier(cfg model.ClassifierConfig, delegate Delegate) *Classifier {
	return &Classifier{cfg: cfg, delegate: delegate}
}

// alwaysLocal intents never use the delegate: their keyword signal is
// strong enough that an LLM adds latency without accuracy.
var alwaysLocal = map[model.Intent]struct{}{
	model.IntentPortfolio: {},
}

// Classify produces an IntentResult for one message. It never returns an
// error: delegate failures fall back to the local path.
func (c *Classifier) Classify(ctx context.Context, message string, hints ContextHints) model.IntentResult {
	if res, ok := PreFilter(message); ok {
		return res
	}
	if res, ok := lookupCommand(message); ok {
		return res
	}

	ents := entities.Extract(message, entities.Options{Strict: true, MaxSymbols: 10})

	// A short follow-up naming only a new symbol continues the current
	// topic: "Analyse AAPL" then "et MSFT?" stays a comprehensive analysis.
	if res, ok := c.followUp(message, ents, hints); ok {
		return res
	}

	hits, total := keywordHits(message)
	top := topIntent(hits, ents, total)

	clarity := clarityScore(clarityInput{
		Message:        message,
		EntityCount:    len(ents),
		KeywordMatched: total > 0,
		ContextTickers: len(hints.Tickers),
	}, c.cfg)

	_, forceLocal := alwaysLocal[top]
	if forceLocal || clarity >= c.cfg.ClarityThreshold || c.delegate == nil {
		return c.classifyLocal(message, top, ents, clarity, hints)
	}

	res, err := c.delegate.Analyze(ctx, message, hints.RecentTurns, hints.Summary)
	if err != nil {
		logx.Warn().Err(err).Msg("delegate classification failed, using local path")
		return c.classifyLocal(message, top, ents, clarity, hints)
	}
	res.ClarityScore = clarity
	res.Method = model.MethodLLM
	if res.Recency == "" {
		res.Recency = model.ProfileFor(res.Intent).DefaultRecency
	}
	return res
}

// followUpPattern matches terse continuation turns that name a new subject
// without restating the request, in English or French.
var followUpPattern = regexp.MustCompile(`(?i)^\s*(et|and|what about|how about|même chose pour|same for)\b[^.]{0,30}\??\s*$`)

func (c *Classifier) followUp(message string, ents []string, hints ContextHints) (model.IntentResult, bool) {
	if hints.TopicIntent == "" || hints.TopicIntent.IsConversational() {
		return model.IntentResult{}, false
	}
	if len(ents) == 0 || !followUpPattern.MatchString(message) {
		return model.IntentResult{}, false
	}
	p := model.ProfileFor(hints.TopicIntent)
	return model.IntentResult{
		Intent:         hints.TopicIntent,
		Confidence:     p.BaseConfidence,
		Entities:       ents,
		SuggestedTools: append([]string(nil), p.SuggestedTools...),
		ClarityScore:   10,
		Method:         model.MethodLocal,
		Recency:        p.DefaultRecency,
		AnalyzedAt:     time.Now().UTC(),
	}, true
}

// Forced wraps a caller-supplied intent in a full result, for scheduled
// jobs that already know what they want.
func Forced(it model.Intent, ents []string) model.IntentResult {
	p := model.ProfileFor(it)
	if ents == nil {
		ents = []string{}
	}
	return model.IntentResult{
		Intent:         it,
		Confidence:     1.0,
		Entities:       ents,
		SuggestedTools: append([]string(nil), p.SuggestedTools...),
		ClarityScore:   10,
		Method:         model.MethodForced,
		Recency:        p.DefaultRecency,
		AnalyzedAt:     time.Now().UTC(),
	}
}

// keywordHits counts keyword matches per data intent.
func keywordHits(message string) (map[model.Intent]int, int) {
	lower := strings.ToLower(message)
	hits := map[model.Intent]int{}
	total := 0
	for _, it := range model.DataIntents {
		for _, kw := range model.Profiles[it].Keywords {
			if kw == "or" || kw == "vs" {
				// Single short connectives only count as whole words,
				// otherwise "worth" would score for comparison.
				if !containsWholeWord(lower, kw) {
					continue
				}
			} else if !strings.Contains(lower, kw) {
				continue
			}
			hits[it]++
			total++
		}
	}
	return hits, total
}

func containsWholeWord(lower, word string) bool {
	for _, f := range strings.Fields(lower) {
		if strings.Trim(f, "?!.,") == word {
			return true
		}
	}
	return false
}

// topIntent picks the best-scoring intent. Ties resolve in declaration
// order of DataIntents so classification stays deterministic.
func topIntent(hits map[model.Intent]int, ents []string, total int) model.Intent {
	// Multiple tickers with no keyword signal read as a comparison request.
	if len(ents) >= 2 && total == 0 {
		return model.IntentComparativeAnalysis
	}
	if total == 0 {
		if len(ents) > 0 {
			// A bare ticker is a quote request more often than anything else.
			return model.IntentStockPrice
		}
		return model.IntentGeneralConversation
	}
	best := model.IntentGeneralConversation
	bestHits := 0
	for _, it := range model.DataIntents {
		if hits[it] > bestHits {
			best, bestHits = it, hits[it]
		}
	}
	return best
}

func (c *Classifier) classifyLocal(message string, top model.Intent, ents []string, clarity int, hints ContextHints) model.IntentResult {
	p := model.ProfileFor(top)

	ents = dropKeywordCollisions(ents, p.Keywords)

	// Only entity-requiring intents may borrow tickers from earlier turns;
	// chit-chat must not suddenly inherit a symbol.
	if len(ents) == 0 && p.RequiresEntity {
		ents = backsearchEntities(hints.RecentTurns, 3)
	}

	res := model.IntentResult{
		Intent:         top,
		Confidence:     p.BaseConfidence,
		Entities:       ents,
		Parameters:     extractParameters(message, top),
		SuggestedTools: append([]string(nil), p.SuggestedTools...),
		ClarityScore:   clarity,
		Method:         model.MethodLocal,
		Recency:        p.DefaultRecency,
		AnalyzedAt:     time.Now().UTC(),
	}
	if res.Entities == nil {
		res.Entities = []string{}
	}

	if res.Confidence < c.cfg.MinConfidence {
		res.NeedsClarification = true
		res.ClarificationQuestions = clarificationsFor(top, message)
	}
	return res
}

// dropKeywordCollisions removes extracted symbols that are really just
// uppercase spellings of the chosen intent's keywords, e.g. "NEWS".
func dropKeywordCollisions(ents []string, keywords []string) []string {
	if len(ents) == 0 {
		return ents
	}
	kw := map[string]struct{}{}
	for _, k := range keywords {
		kw[strings.ToUpper(k)] = struct{}{}
	}
	out := ents[:0]
	for _, e := range ents {
		if _, clash := kw[e]; !clash {
			out = append(out, e)
		}
	}
	return out
}

// backsearchEntities scans the most recent user turns, newest first, for
// ticker symbols.
func backsearchEntities(turns []string, depth int) []string {
	for i := len(turns) - 1; i >= 0 && i >= len(turns)-depth; i-- {
		if ents := entities.Extract(turns[i], entities.Options{Strict: true, MaxSymbols: 5}); len(ents) > 0 {
			return ents
		}
	}
	return nil
}
