package validate

import (
	"regexp"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// citationPatterns mark an answer as grounded in retrieved sources.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[\d+\]`),
	regexp.MustCompile(`(?i)\bsource[s]?\s*:`),
	regexp.MustCompile(`(?i)\b(according to|as reported by|per)\s+[A-Z]`),
	regexp.MustCompile(`(?i)\b(selon|d'après)\s+`),
	regexp.MustCompile(`https?://\S+`),
}

// recentDataPatterns mark an answer as carrying time-anchored figures.
var recentDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(today|yesterday|this (morning|week)|aujourd'hui|hier|cette semaine)\b`),
	regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-zé]*\.?\s+\d{1,2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(janvier|février|mars|avril|mai|juin|juillet|août|septembre|octobre|novembre|décembre)\b`),
	regexp.MustCompile(`(?i)\bas of\b`),
	regexp.MustCompile(`\$\s?\d`),
}

// freshnessIntents are the intents whose answers are expected to carry
// sourced, recent material.
var freshnessIntents = map[model.Intent]struct{}{
	model.IntentStockPrice:            {},
	model.IntentNews:                  {},
	model.IntentEarnings:              {},
	model.IntentMarketOverview:        {},
	model.IntentComprehensiveAnalysis: {},
}

// IsFresh reports whether a sourced answer shows evidence of grounding,
// either citations or recent time-anchored data. Intents outside the
// freshness family always pass.
func IsFresh(response string, intent model.Intent) bool {
	if _, watched := freshnessIntents[intent]; !watched {
		return true
	}
	for _, p := range citationPatterns {
		if p.MatchString(response) {
			return true
		}
	}
	for _, p := range recentDataPatterns {
		if p.MatchString(response) {
			return true
		}
	}
	return false
}
