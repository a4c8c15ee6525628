package intent

import (
	"regexp"
	"strings"

	"github.com/gobapps/emma-core/internal/agent/model"
)

var (
	timeframePattern = regexp.MustCompile(`(?i)\b(\d+\s*(day|week|month|year)s?|ytd|1d|5d|1m|3m|6m|1y|5y)\b`)
	quarterPattern   = regexp.MustCompile(`(?i)\bq([1-4])\b`)
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
)

// extractParameters pulls intent-specific arguments out of the message.
// Returns nil when nothing was found so empty results stay out of JSON.
func extractParameters(message string, it model.Intent) map[string]string {
	params := map[string]string{}
	lower := strings.ToLower(message)

	switch it {
	case model.IntentTechnicalAnalysis:
		if m := timeframePattern.FindString(message); m != "" {
			params["timeframe"] = strings.ToLower(strings.TrimSpace(m))
		}
		for _, ind := range []string{"rsi", "macd", "moving average", "bollinger"} {
			if strings.Contains(lower, ind) {
				params["indicator"] = ind
				break
			}
		}
	case model.IntentEarnings:
		if m := quarterPattern.FindStringSubmatch(message); m != nil {
			params["quarter"] = "Q" + m[1]
		}
		if m := yearPattern.FindString(message); m != "" {
			params["year"] = m
		}
	case model.IntentComprehensiveAnalysis:
		switch {
		case strings.Contains(lower, "short term") || strings.Contains(lower, "court terme"):
			params["analysis_type"] = "short_term"
		case strings.Contains(lower, "long term") || strings.Contains(lower, "long terme"):
			params["analysis_type"] = "long_term"
		}
	}

	if len(params) == 0 {
		return nil
	}
	return params
}

// clarificationTemplates holds per-intent follow-up questions used when a
// message is too ambiguous to act on.
var clarificationTemplates = map[model.Intent][]string{
	model.IntentStockPrice:            {"Which stock would you like a price for?"},
	model.IntentFundamentals:          {"Which company's fundamentals should I look at?"},
	model.IntentTechnicalAnalysis:     {"Which ticker should I run the technical analysis on?", "Any particular timeframe?"},
	model.IntentComprehensiveAnalysis: {"Which company would you like me to analyze?"},
	model.IntentComparativeAnalysis:   {"Which stocks would you like me to compare?"},
	model.IntentEarnings:              {"Which company's earnings are you interested in?"},
	model.IntentRecommendation:        {"Which stock are you considering?"},
}

// clarificationsFor returns the questions to ask for an ambiguous message.
// Very short messages get a generic prompt instead of an intent-specific
// one, since the intent guess itself is unreliable there.
func clarificationsFor(it model.Intent, message string) []string {
	if len(strings.Fields(message)) < 3 {
		return []string{"Could you give me a bit more detail about what you'd like to know?"}
	}
	if qs, ok := clarificationTemplates[it]; ok {
		return append([]string(nil), qs...)
	}
	return []string{"Could you tell me which company or topic you mean?"}
}
