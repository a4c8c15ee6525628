package intent

import (
	"regexp"
	"strings"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// vaguePatterns match questions that cannot be answered without guessing
// what the user means.
var vaguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(something|anything|whatever|stuff|things)\b`),
	regexp.MustCompile(`(?i)\bwhat about\b\s*$`),
	regexp.MustCompile(`(?i)\b(tell me more|more info|go on)\b\s*$`),
	regexp.MustCompile(`(?i)\b(quelque chose|n'importe quoi|des trucs)\b`),
	regexp.MustCompile(`(?i)\bet (sinon|après)\b\s*\??\s*$`),
}

// clarityInput carries the signals clarity scoring needs.
type clarityInput struct {
	Message        string
	EntityCount    int
	KeywordMatched bool
	ContextTickers int
}

// clarityScore rates how unambiguous a message is on a 0 to 10 scale.
// Higher scores mean the local path can classify it safely; low scores are
// sent to the LLM delegate.
func clarityScore(in clarityInput, cfg model.ClassifierConfig) int {
	score := cfg.ClarityBase
	words := len(strings.Fields(in.Message))

	if in.EntityCount > 0 {
		score += cfg.EntityBonus
	}
	if in.KeywordMatched {
		score += cfg.KeywordBonus
	}
	if in.EntityCount == 0 && in.ContextTickers > 0 {
		score += cfg.ContextBonus
	}
	for _, p := range vaguePatterns {
		if p.MatchString(in.Message) {
			score -= cfg.VaguePenalty
			break
		}
	}
	if words < cfg.ShortWordLimit && in.EntityCount == 0 {
		score -= cfg.ShortPenalty
	}
	if words > cfg.LongWordLimit && !in.KeywordMatched {
		score -= cfg.LongPenalty
	}

	return clampInt(score, 0, 10)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
