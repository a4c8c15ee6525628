// Package validate scores generated answers before they reach the user and
// decides whether a reinforced retry is warranted.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// Sub-score weights. The derived quality term rewards answers that do well
// across the board rather than excelling on one axis.
const (
	weightRelevance    = 0.30
	weightCompleteness = 0.25
	weightCoherence    = 0.20
	weightAlignment    = 0.15
	weightQuality      = 0.10
)

const minAnswerLength = 40

// forbiddenPhrases invalidate an answer outright: they leak assistant
// limitations the pipeline exists to paper over.
var forbiddenPhrases = []string{
	"as an ai",
	"i cannot access real-time",
	"i don't have access to real-time",
	"i am unable to browse",
	"en tant qu'ia",
	"je ne peux pas accéder aux données en temps réel",
	"[insert",
	"lorem ipsum",
}

// overreachPatterns catch directive language an assistant must not use for
// advisory intents.
var overreachPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bguaranteed (return|profit|gain)s?\b`),
	regexp.MustCompile(`(?i)\bwill definitely (rise|fall|double|go up|go down)\b`),
	regexp.MustCompile(`(?i)\byou (must|should immediately) (buy|sell)\b`),
	regexp.MustCompile(`(?i)\bcan't lose\b`),
	regexp.MustCompile(`(?i)\bgain[s]? garantis?\b`),
}

var disclaimerPattern = regexp.MustCompile(`(?i)(not (personalized |individual )?(financial|investment) advice|do your own research|consult (a|your) (financial )?advisor|ne constitue pas un conseil|consultez un conseiller)`)

var sourcePattern = regexp.MustCompile(`(?i)(according to|as reported|per |source[s]?:|\[\d+\]|reuters|bloomberg|selon |d'après )`)

var pricePattern = regexp.MustCompile(`\$\s?(\d+(?:[.,]\d+)?)`)

// stopWords are excluded from relevance keyword matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "what": {},
	"how": {}, "why": {}, "of": {}, "for": {}, "to": {}, "in": {}, "on": {},
	"and": {}, "or": {}, "do": {}, "does": {}, "me": {}, "my": {}, "about": {},
	"le": {}, "la": {}, "les": {}, "de": {}, "du": {}, "des": {}, "est": {},
	"que": {}, "quelle": {}, "quel": {}, "pour": {}, "sur": {}, "et": {},
}

// requiredTerms lists any-of term groups an intent's answer should contain.
var requiredTerms = map[model.Intent][][]string{
	model.IntentStockPrice:          {{"$", "€", "price", "cours", "prix"}},
	model.IntentFundamentals:        {{"revenue", "margin", "ratio", "chiffre", "marge"}},
	model.IntentEarnings:            {{"eps", "earnings", "quarter", "résultats", "trimestre"}},
	model.IntentRecommendation:      {{"risk", "consider", "depend", "risque", "dépend"}},
	model.IntentTechnicalAnalysis:   {{"rsi", "average", "trend", "support", "resistance", "moyenne", "tendance"}},
	model.IntentComparativeAnalysis: {{"while", "whereas", "compared", "tandis", "alors que", "contre"}},
}

// Context carries what the validator needs to judge an answer.
type Context struct {
	Intent     model.Intent
	RawMessage string
	Entities   []string
}

// Validator scores answers. The zero threshold uses the standard 0.7.
type Validator struct {
	minScore float64
}

// New creates a validator with the configured acceptance threshold.
func New(cfg model.ValidatorConfig) *Validator {
	min := cfg.MinScore
	if min <= 0 {
		min = 0.7
	}
	return &Validator{minScore: min}
}

// Validate computes the weighted sub-scores for one answer. A forbidden
// phrase is always a critical issue and defeats the score gate regardless
// of the other criteria.
func (v *Validator) Validate(response string, vctx Context) model.ValidationResult {
	var issues []model.ValidationIssue

	relevance := v.scoreRelevance(response, vctx)
	completeness := v.scoreCompleteness(response, vctx, &issues)
	coherence := v.scoreCoherence(response, &issues)
	alignment := v.scoreAlignment(response, vctx, &issues)
	quality := (relevance + completeness + coherence + alignment) / 4

	score := relevance*weightRelevance +
		completeness*weightCompleteness +
		coherence*weightCoherence +
		alignment*weightAlignment +
		quality*weightQuality

	res := model.ValidationResult{
		Score:        score,
		Relevance:    relevance,
		Completeness: completeness,
		Coherence:    coherence,
		Alignment:    alignment,
		Issues:       issues,
	}
	res.Valid = score >= v.minScore && !res.HasCritical()
	res.Confidence = confidenceFrom(score, issues)
	return res
}

func (v *Validator) scoreRelevance(response string, vctx Context) float64 {
	respLower := strings.ToLower(response)
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(vctx.RawMessage)) {
		w = strings.Trim(w, "?!.,;:")
		if len(w) < 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	if len(keywords) == 0 {
		return 0.8
	}
	echoed := 0
	for _, w := range keywords {
		if strings.Contains(respLower, w) {
			echoed++
		}
	}
	score := float64(echoed) / float64(len(keywords))
	if groupsPresent(respLower, requiredTerms[vctx.Intent]) {
		score += 0.2
	}
	return clamp01(score)
}

func (v *Validator) scoreCompleteness(response string, vctx Context, issues *[]model.ValidationIssue) float64 {
	respLower := strings.ToLower(response)
	score := 1.0

	if len(response) < minAnswerLength {
		score -= 0.4
		*issues = append(*issues, model.ValidationIssue{
			Severity: model.SeverityMajor, Code: "too_short",
			Detail: "answer is below the minimum useful length",
		})
	}
	if groups := requiredTerms[vctx.Intent]; len(groups) > 0 && !groupsPresent(respLower, groups) {
		score -= 0.2
		*issues = append(*issues, model.ValidationIssue{
			Severity: model.SeverityMinor, Code: "missing_required_terms",
			Detail: "answer lacks terms expected for the intent",
		})
	}
	for _, e := range vctx.Entities {
		if !strings.Contains(respLower, strings.ToLower(e)) {
			score -= 0.15
			*issues = append(*issues, model.ValidationIssue{
				Severity: model.SeverityMinor, Code: "entity_not_mentioned",
				Detail: "answer never mentions " + e,
			})
			break
		}
	}
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(respLower, phrase) {
			score -= 0.5
			*issues = append(*issues, model.ValidationIssue{
				Severity: model.SeverityCritical, Code: "forbidden_phrase",
				Detail: "answer contains forbidden phrase: " + phrase,
			})
			break
		}
	}
	return clamp01(score)
}

func (v *Validator) scoreCoherence(response string, issues *[]model.ValidationIssue) float64 {
	score := 1.0

	sentences := splitSentences(response)
	if len(response) > 300 && len(sentences) < 2 {
		score -= 0.2
		*issues = append(*issues, model.ValidationIssue{
			Severity: model.SeverityMinor, Code: "run_on",
			Detail: "long answer with no sentence structure",
		})
	}
	if hasRepeatedSentence(sentences) {
		score -= 0.3
		*issues = append(*issues, model.ValidationIssue{
			Severity: model.SeverityMajor, Code: "repetition",
			Detail: "answer repeats itself",
		})
	}
	if min, max, ok := priceRange(response); ok && min > 0 && max/min > 1.5 {
		score -= 0.4
		*issues = append(*issues, model.ValidationIssue{
			Severity: model.SeverityMajor, Code: "price_divergence",
			Detail: "answer quotes wildly divergent prices for the same subject",
		})
	}
	return clamp01(score)
}

func (v *Validator) scoreAlignment(response string, vctx Context, issues *[]model.ValidationIssue) float64 {
	score := 1.0

	advisory := vctx.Intent == model.IntentRecommendation || vctx.Intent == model.IntentComprehensiveAnalysis
	if advisory {
		for _, p := range overreachPatterns {
			if p.MatchString(response) {
				score -= 0.4
				*issues = append(*issues, model.ValidationIssue{
					Severity: model.SeverityMajor, Code: "overreach",
					Detail: "answer makes directive or certainty claims",
				})
				break
			}
		}
	}
	if vctx.Intent == model.IntentRecommendation && !disclaimerPattern.MatchString(response) {
		score -= 0.3
		*issues = append(*issues, model.ValidationIssue{
			Severity: model.SeverityMajor, Code: "missing_disclaimer",
			Detail: "recommendation answer lacks an advice disclaimer",
		})
	}
	if vctx.Intent.IsFactual() && len(response) > 400 && !sourcePattern.MatchString(response) {
		score -= 0.2
		*issues = append(*issues, model.ValidationIssue{
			Severity: model.SeverityMinor, Code: "missing_sources",
			Detail: "long factual answer cites no sources",
		})
	}
	return clamp01(score)
}

// confidenceFrom derives a confidence estimate by penalizing the score per
// issue severity.
func confidenceFrom(score float64, issues []model.ValidationIssue) float64 {
	c := score
	for _, is := range issues {
		switch is.Severity {
		case model.SeverityCritical:
			c -= 0.3
		case model.SeverityMajor:
			c -= 0.15
		case model.SeverityMinor:
			c -= 0.05
		}
	}
	return clamp01(c)
}

// IssueSummaries renders issue details for the reinforced retry prompt.
func IssueSummaries(res model.ValidationResult) []string {
	out := make([]string, 0, len(res.Issues))
	for _, is := range res.Issues {
		out = append(out, is.Detail)
	}
	return out
}

func groupsPresent(respLower string, groups [][]string) bool {
	if len(groups) == 0 {
		return false
	}
	for _, group := range groups {
		found := false
		for _, term := range group {
			if strings.Contains(respLower, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitSentences(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func hasRepeatedSentence(sentences []string) bool {
	seen := map[string]struct{}{}
	for _, s := range sentences {
		if len(s) < 25 {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

func priceRange(response string) (min, max float64, ok bool) {
	matches := pricePattern.FindAllStringSubmatch(response, -1)
	if len(matches) < 2 {
		return 0, 0, false
	}
	for i, m := range matches {
		val, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		if i == 0 {
			min, max = val, val
			continue
		}
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}
	return min, max, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
