package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gobapps/emma-core/internal/agent/model"
)

func TestRenderClassifier(t *testing.T) {
	got := RenderClassifier("et MSFT ?", []string{"Analyse AAPL"}, "<conversation_context>x</conversation_context>")

	assert.Contains(t, got, "et MSFT ?")
	assert.Contains(t, got, "Analyse AAPL")
	assert.Contains(t, got, "stock_price")
	assert.Contains(t, got, "general_conversation")
	assert.NotContains(t, got, "{message}")
	assert.NotContains(t, got, "{intents}")
}

func TestRenderClassifierEmptyTurns(t *testing.T) {
	got := RenderClassifier("hello", nil, "")
	assert.Contains(t, got, "(none)")
}

func TestRenderAnswerModes(t *testing.T) {
	for _, mode := range []model.OutputMode{model.ModeChat, model.ModeBriefing, model.ModeTickerNote, model.ModeData} {
		got := RenderAnswer(mode, "Analyse AAPL", "## stock_quote\nprice: 231.5", "ctx", "AAPL")
		assert.Contains(t, got, "Analyse AAPL", "mode %s", mode)
		assert.Contains(t, got, "stock_quote", "mode %s", mode)
		assert.False(t, strings.Contains(got, "{tool_data}"), "mode %s left a placeholder", mode)
		assert.False(t, strings.Contains(got, "{message}"), "mode %s left a placeholder", mode)
	}
}

func TestRenderAnswerEmptyToolData(t *testing.T) {
	got := RenderAnswer(model.ModeChat, "hi", "", "", "")
	assert.Contains(t, got, "(no tool data available)")
}

func TestRenderRetry(t *testing.T) {
	got := RenderRetry("Analyse AAPL", []string{"answer never mentions AAPL"})
	assert.Contains(t, got, "Analyse AAPL")
	assert.Contains(t, got, "- answer never mentions AAPL")

	got = RenderRetry("Analyse AAPL", nil)
	assert.Contains(t, got, "verifiable sourcing")
}
