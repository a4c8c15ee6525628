package intent

import (
	"context"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// hangingChatModel blocks every Generate call until the context is done.
type hangingChatModel struct{}

func (hangingChatModel) Generate(ctx context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingChatModel) Stream(ctx context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyzeTimesOutOnHungModel(t *testing.T) {
	d := NewModelDelegate(hangingChatModel{}, 30*time.Millisecond)

	start := time.Now()
	_, err := d.Analyze(context.Background(), "thoughts on that?", nil, "")

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHungDelegateFallsBackToLocal(t *testing.T) {
	c := NewClassifier(testConfig(), NewModelDelegate(hangingChatModel{}, 30*time.Millisecond))

	res := c.Classify(context.Background(), "thoughts on that?", ContextHints{})

	assert.Equal(t, model.MethodLocal, res.Method)
}

func TestParseDelegateResponse(t *testing.T) {
	raw := "```json\n{\"intent\": \"stock_price\", \"confidence\": 0.92, \"entities\": [\"aapl\"]}\n```"

	res, err := parseDelegateResponse(raw)
	require.NoError(t, err)

	assert.Equal(t, model.IntentStockPrice, res.Intent)
	assert.Equal(t, 0.92, res.Confidence)
	assert.Equal(t, []string{"AAPL"}, res.Entities)
	assert.Equal(t, model.MethodLLM, res.Method)
	assert.False(t, res.NeedsClarification)
}

func TestParseDelegateResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "sorry, I cannot classify this"},
		{"missing intent", `{"confidence": 0.9}`},
		{"unknown intent", `{"intent": "weather_forecast", "confidence": 0.9}`},
		{"broken json", `{"intent": "news", "confidence":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDelegateResponse(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseDelegateResponseThresholdRemap(t *testing.T) {
	// 0.72 clears the default threshold but not the portfolio one
	res, err := parseDelegateResponse(`{"intent": "portfolio", "confidence": 0.72}`)
	require.NoError(t, err)
	assert.True(t, res.NeedsClarification)

	res, err = parseDelegateResponse(`{"intent": "news", "confidence": 0.72}`)
	require.NoError(t, err)
	assert.False(t, res.NeedsClarification)
}

func TestParseDelegateResponseClampsAndCaps(t *testing.T) {
	res, err := parseDelegateResponse(`{"intent": "news", "confidence": 3.5, "entities": ["aapl", "", "verylongsymbolname", "msft"]}`)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, []string{"AAPL", "MSFT"}, res.Entities)
}

func TestParseDelegateResponseDropsQuestionsWhenClear(t *testing.T) {
	res, err := parseDelegateResponse(`{"intent": "news", "confidence": 0.9, "clarification_questions": ["which ticker?"]}`)
	require.NoError(t, err)

	assert.False(t, res.NeedsClarification)
	assert.Nil(t, res.ClarificationQuestions)
}
