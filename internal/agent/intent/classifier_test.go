package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobapps/emma-core/internal/agent/model"
)

func testConfig() model.ClassifierConfig {
	return model.ClassifierConfig{
		ClarityThreshold: 9,
		ClarityBase:      5,
		EntityBonus:      2,
		KeywordBonus:     2,
		ContextBonus:     1,
		VaguePenalty:     3,
		ShortPenalty:     2,
		LongPenalty:      1,
		ShortWordLimit:   5,
		LongWordLimit:    20,
		MinConfidence:    0.5,
	}
}

type fakeDelegate struct {
	res    model.IntentResult
	err    error
	called bool
}

func (f *fakeDelegate) Analyze(_ context.Context, _ string, _ []string, _ string) (model.IntentResult, error) {
	f.called = true
	return f.res, f.err
}

func TestClassifyClearMessageStaysLocal(t *testing.T) {
	d := &fakeDelegate{err: errors.New("should not be called")}
	c := NewClassifier(testConfig(), d)

	res := c.Classify(context.Background(), "Analyse AAPL", ContextHints{})

	assert.False(t, d.called)
	assert.Equal(t, model.IntentComprehensiveAnalysis, res.Intent)
	assert.Equal(t, []string{"AAPL"}, res.Entities)
	assert.Equal(t, model.MethodLocal, res.Method)
	assert.GreaterOrEqual(t, res.ClarityScore, 9)
	assert.False(t, res.NeedsClarification)
	assert.Contains(t, res.SuggestedTools, "stock_quote")
}

func TestClassifyFollowUpCarriesTopicIntent(t *testing.T) {
	c := NewClassifier(testConfig(), nil)
	hints := ContextHints{
		Tickers:     []string{"AAPL"},
		TopicIntent: model.IntentComprehensiveAnalysis,
	}

	res := c.Classify(context.Background(), "et MSFT ?", hints)

	assert.Equal(t, model.IntentComprehensiveAnalysis, res.Intent)
	assert.Equal(t, []string{"MSFT"}, res.Entities)
	assert.Equal(t, model.MethodLocal, res.Method)
}

func TestClassifyFollowUpNeedsTopic(t *testing.T) {
	c := NewClassifier(testConfig(), nil)

	res := c.Classify(context.Background(), "et MSFT ?", ContextHints{})

	// without a topic the terse turn reads as a bare ticker mention
	assert.Equal(t, model.IntentStockPrice, res.Intent)
}

func TestClassifyAmbiguousUsesDelegate(t *testing.T) {
	d := &fakeDelegate{res: model.IntentResult{
		Intent:     model.IntentRecommendation,
		Confidence: 0.82,
		Entities:   []string{"TSLA"},
	}}
	c := NewClassifier(testConfig(), d)

	res := c.Classify(context.Background(), "thoughts on that?", ContextHints{})

	require.True(t, d.called)
	assert.Equal(t, model.IntentRecommendation, res.Intent)
	assert.Equal(t, model.MethodLLM, res.Method)
	assert.NotZero(t, res.ClarityScore)
	assert.NotEmpty(t, res.Recency)
}

func TestClassifyDelegateFailureFallsBackLocal(t *testing.T) {
	d := &fakeDelegate{err: errors.New("model unavailable")}
	c := NewClassifier(testConfig(), d)

	res := c.Classify(context.Background(), "thoughts on that?", ContextHints{})

	assert.True(t, d.called)
	assert.Equal(t, model.MethodLocal, res.Method)
}

func TestClassifyPortfolioNeverDelegates(t *testing.T) {
	d := &fakeDelegate{err: errors.New("should not be called")}
	c := NewClassifier(testConfig(), d)

	res := c.Classify(context.Background(), "show holdings in my portfolio maybe?", ContextHints{})

	assert.False(t, d.called)
	assert.Equal(t, model.IntentPortfolio, res.Intent)
}

func TestTopIntentComparativeFromMultipleTickers(t *testing.T) {
	c := NewClassifier(testConfig(), nil)

	res := c.Classify(context.Background(), "AAPL MSFT GOOGL", ContextHints{})

	assert.Equal(t, model.IntentComparativeAnalysis, res.Intent)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, res.Entities)
}

func TestTopIntentWholeWordConnective(t *testing.T) {
	c := NewClassifier(testConfig(), nil)

	res := c.Classify(context.Background(), "AAPL or MSFT", ContextHints{})
	assert.Equal(t, model.IntentComparativeAnalysis, res.Intent)

	// "or" inside a longer word must not count as a comparison signal
	res = c.Classify(context.Background(), "price history for AAPL", ContextHints{})
	assert.Equal(t, model.IntentStockPrice, res.Intent)
}

func TestClassifyDropsKeywordCollisions(t *testing.T) {
	c := NewClassifier(testConfig(), nil)

	res := c.Classify(context.Background(), "latest NEWS on AAPL", ContextHints{})

	assert.Equal(t, model.IntentNews, res.Intent)
	assert.Equal(t, []string{"AAPL"}, res.Entities)
}

func TestClassifyBacksearchOnlyForEntityIntents(t *testing.T) {
	c := NewClassifier(testConfig(), nil)
	hints := ContextHints{RecentTurns: []string{"Analyse AAPL", "thanks"}}

	res := c.Classify(context.Background(), "what is the current price?", hints)

	assert.Equal(t, model.IntentStockPrice, res.Intent)
	assert.Equal(t, []string{"AAPL"}, res.Entities)
}

func TestClassifyDeterministicTieBreak(t *testing.T) {
	c := NewClassifier(testConfig(), nil)
	first := c.Classify(context.Background(), "price and revenue for AAPL", ContextHints{})
	for i := 0; i < 10; i++ {
		again := c.Classify(context.Background(), "price and revenue for AAPL", ContextHints{})
		assert.Equal(t, first.Intent, again.Intent)
	}
}

func TestForced(t *testing.T) {
	res := Forced(model.IntentComprehensiveAnalysis, []string{"AAPL"})

	assert.Equal(t, model.IntentComprehensiveAnalysis, res.Intent)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, model.MethodForced, res.Method)
	assert.Equal(t, 10, res.ClarityScore)
	assert.NotEmpty(t, res.SuggestedTools)
}
