package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobapps/emma-core/internal/agent/model"
)

func testValidator() *Validator {
	return New(model.ValidatorConfig{MinScore: 0.7})
}

const goodPriceAnswer = "AAPL is trading at $231.50 today, up 1.2% from the previous close. " +
	"The price has been supported by steady iPhone revenue and continued buyback activity."

func TestValidateGoodAnswer(t *testing.T) {
	v := testValidator()

	res := v.Validate(goodPriceAnswer, Context{
		Intent:     model.IntentStockPrice,
		RawMessage: "what is the price of AAPL today",
		Entities:   []string{"AAPL"},
	})

	assert.True(t, res.Valid)
	assert.GreaterOrEqual(t, res.Score, 0.7)
	assert.False(t, res.HasCritical())
}

func TestValidateForbiddenPhraseIsCritical(t *testing.T) {
	v := testValidator()
	answer := "As an AI, I cannot access real-time market data, but AAPL is a well known company " +
		"with a strong balance sheet and a history of steady dividend growth over many years."

	res := v.Validate(answer, Context{
		Intent:     model.IntentStockPrice,
		RawMessage: "price of AAPL",
		Entities:   []string{"AAPL"},
	})

	assert.False(t, res.Valid)
	assert.True(t, res.HasCritical())
}

func TestValidateForbiddenPhraseBeatsHighScore(t *testing.T) {
	v := testValidator()
	// everything else about this answer is fine
	answer := goodPriceAnswer + " As an AI, I cannot access real-time data beyond this."

	res := v.Validate(answer, Context{
		Intent:     model.IntentStockPrice,
		RawMessage: "what is the price of AAPL today",
		Entities:   []string{"AAPL"},
	})

	assert.False(t, res.Valid)
}

func TestValidateTooShortAnswer(t *testing.T) {
	v := testValidator()

	res := v.Validate("It went up.", Context{
		Intent:     model.IntentStockPrice,
		RawMessage: "detailed price action for AAPL please",
		Entities:   []string{"AAPL"},
	})

	assert.False(t, res.Valid)
	codes := issueCodes(res)
	assert.Contains(t, codes, "too_short")
	assert.Contains(t, codes, "entity_not_mentioned")
}

func TestValidatePriceDivergence(t *testing.T) {
	v := testValidator()
	answer := "AAPL trades at $230 according to the latest price quote, although another price " +
		"section of this answer puts the value of the price at $560 for no stated reason at all."

	res := v.Validate(answer, Context{
		Intent:     model.IntentStockPrice,
		RawMessage: "price of AAPL",
		Entities:   []string{"AAPL"},
	})

	assert.Contains(t, issueCodes(res), "price_divergence")
}

func TestValidateRecommendationNeedsDisclaimer(t *testing.T) {
	v := testValidator()
	bare := "You should consider the risk profile before adding TSLA, its valuation already prices " +
		"in years of growth and delivery volumes depend on a difficult macro environment."

	res := v.Validate(bare, Context{
		Intent:     model.IntentRecommendation,
		RawMessage: "should i buy TSLA",
		Entities:   []string{"TSLA"},
	})
	assert.Contains(t, issueCodes(res), "missing_disclaimer")

	withDisclaimer := bare + " This is not financial advice, consult your advisor before acting."
	res = v.Validate(withDisclaimer, Context{
		Intent:     model.IntentRecommendation,
		RawMessage: "should i buy TSLA",
		Entities:   []string{"TSLA"},
	})
	assert.NotContains(t, issueCodes(res), "missing_disclaimer")
}

func TestValidateOverreach(t *testing.T) {
	v := testValidator()
	answer := "TSLA will definitely double, a guaranteed return for anyone who depends on quick risk-free gains, " +
		"so consider moving your whole savings into it right away without waiting for a dip."

	res := v.Validate(answer, Context{
		Intent:     model.IntentRecommendation,
		RawMessage: "should i buy TSLA",
		Entities:   []string{"TSLA"},
	})

	assert.Contains(t, issueCodes(res), "overreach")
}

func TestValidateRepetition(t *testing.T) {
	v := testValidator()
	sentence := "The quarterly revenue figures exceeded analyst expectations by a wide margin."
	answer := sentence + " " + sentence + " " + sentence

	res := v.Validate(answer, Context{
		Intent:     model.IntentEarnings,
		RawMessage: "AAPL quarterly revenue results",
		Entities:   []string{"AAPL"},
	})

	assert.Contains(t, issueCodes(res), "repetition")
}

func TestConfidencePenalizedPerIssue(t *testing.T) {
	v := testValidator()

	clean := v.Validate(goodPriceAnswer, Context{
		Intent: model.IntentStockPrice, RawMessage: "price of AAPL today", Entities: []string{"AAPL"},
	})
	dirty := v.Validate("It went up.", Context{
		Intent: model.IntentStockPrice, RawMessage: "price of AAPL today", Entities: []string{"AAPL"},
	})

	assert.Greater(t, clean.Confidence, dirty.Confidence)
}

func TestIsFresh(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		intent model.Intent
		want   bool
	}{
		{"citation marker", "AAPL gained ground [1] after the launch event.", model.IntentNews, true},
		{"according to source", "According to Reuters, the quarter beat estimates.", model.IntentEarnings, true},
		{"dollar figure", "AAPL closed at $231.50 in regular trading.", model.IntentStockPrice, true},
		{"dated reference", "Shares rallied on Aug 28 following the announcement.", model.IntentNews, true},
		{"stale prose", "Apple is a large technology company with many products.", model.IntentStockPrice, false},
		{"non factual intent always passes", "Diversification spreads risk across holdings.", model.IntentRecommendation, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFresh(tt.text, tt.intent))
		})
	}
}

func TestIssueSummaries(t *testing.T) {
	v := testValidator()
	res := v.Validate("It went up.", Context{
		Intent: model.IntentStockPrice, RawMessage: "price of AAPL", Entities: []string{"AAPL"},
	})

	require.NotEmpty(t, res.Issues)
	sums := IssueSummaries(res)
	assert.Len(t, sums, len(res.Issues))
	for _, s := range sums {
		assert.False(t, strings.Contains(s, "%"), "summaries should be plain text")
	}
}

func issueCodes(res model.ValidationResult) []string {
	out := make([]string, 0, len(res.Issues))
	for _, is := range res.Issues {
		out = append(out, is.Code)
	}
	return out
}
