package intent

import (
	"strings"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// commandTable maps exact short commands to intents. These short-circuit
// classification entirely, so a bare "portfolio" never reaches the delegate
// even though one word scores poorly on clarity.
var commandTable = map[string]model.Intent{
	"help":          model.IntentHelp,
	"aide":          model.IntentHelp,
	"commands":      model.IntentHelp,
	"portfolio":     model.IntentPortfolio,
	"watchlist":     model.IntentPortfolio,
	"portefeuille":  model.IntentPortfolio,
	"market":        model.IntentMarketOverview,
	"marché":        model.IntentMarketOverview,
	"news":          model.IntentNews,
	"actualités":    model.IntentNews,
	"reset":         model.IntentReset,
	"new topic":     model.IntentReset,
	"nouveau sujet": model.IntentReset,
	"oublie tout":   model.IntentReset,
}

// lookupCommand returns the intent for an exact command message, if any.
func lookupCommand(message string) (model.IntentResult, bool) {
	key := strings.ToLower(strings.TrimSpace(strings.Trim(message, "/!.")))
	it, ok := commandTable[key]
	if !ok {
		return model.IntentResult{}, false
	}
	p := model.ProfileFor(it)
	return model.IntentResult{
		Intent:         it,
		Confidence:     p.BaseConfidence,
		Entities:       []string{},
		SuggestedTools: append([]string(nil), p.SuggestedTools...),
		ClarityScore:   10,
		Method:         model.MethodLocal,
		Recency:        p.DefaultRecency,
		AnalyzedAt:     time.Now().UTC(),
	}, true
}
