// Package backends routes requests across the completion providers and
// wraps each provider behind a common Generate interface.
package backends

import (
	"regexp"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// todayPattern catches explicit temporal language that forces the tightest
// recency window regardless of the intent's default.
var todayPattern = regexp.MustCompile(`(?i)\b(today|right now|at the moment|this morning|aujourd'hui|maintenant|ce matin|en ce moment)\b`)

// routerFactual is the intent family whose answers depend on market facts.
// Broader than Intent.IsFactual: analysis and recommendation answers also
// embed figures that must come from sourced data.
var routerFactual = map[model.Intent]struct{}{
	model.IntentStockPrice:            {},
	model.IntentFundamentals:          {},
	model.IntentTechnicalAnalysis:     {},
	model.IntentNews:                  {},
	model.IntentComprehensiveAnalysis: {},
	model.IntentComparativeAnalysis:   {},
	model.IntentEarnings:              {},
	model.IntentRecommendation:        {},
}

// Select picks the backend for one request. Pure function of its inputs and
// the static tables above; the rule order is a deliberate cost/accuracy
// tradeoff and must not change.
func Select(res model.IntentResult, mode model.OutputMode, hasToolData bool, message string) model.ModelSelection {
	switch mode {
	case model.ModeBriefing:
		return model.ModelSelection{Backend: model.BackendPremium, Reason: "premium prose output mode"}
	case model.ModeTickerNote:
		return model.ModelSelection{Backend: model.BackendSourced, Recency: recencyFor(res, message), Reason: "structured note output mode"}
	case model.ModeData:
		return model.ModelSelection{Backend: model.BackendSourced, Recency: recencyFor(res, message), Reason: "structured data extraction mode"}
	}

	_, factual := routerFactual[res.Intent]
	if factual || len(res.Entities) > 0 || hasToolData {
		return model.ModelSelection{Backend: model.BackendSourced, Recency: recencyFor(res, message), Reason: "factual request needs sourced data"}
	}
	if res.Intent.IsConversational() || res.Intent == model.IntentGeneralConversation {
		return model.ModelSelection{Backend: model.BackendFree, Reason: "conceptual question without entities"}
	}
	return model.ModelSelection{Backend: model.BackendSourced, Recency: recencyFor(res, message), Reason: "default to sourced for reliability"}
}

func recencyFor(res model.IntentResult, message string) model.Recency {
	if todayPattern.MatchString(message) {
		return model.RecencyHour
	}
	if res.Recency != "" {
		return res.Recency
	}
	return model.ProfileFor(res.Intent).DefaultRecency
}
