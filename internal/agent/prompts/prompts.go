// Package prompts owns the embedded prompt templates. Template bodies are
// configuration data; the helpers here only substitute variables.
package prompts

import (
	_ "embed"
	"strings"

	"github.com/gobapps/emma-core/internal/agent/model"
)

//go:embed template/classifier_prompt.txt
var classifierPrompt string

//go:embed template/chat_prompt.txt
var chatPrompt string

//go:embed template/briefing_prompt.txt
var briefingPrompt string

//go:embed template/ticker_note_prompt.txt
var tickerNotePrompt string

//go:embed template/data_prompt.txt
var dataPrompt string

//go:embed template/retry_prompt.txt
var retryPrompt string

// RenderClassifier builds the delegate classifier prompt.
func RenderClassifier(message string, recentTurns []string, contextSummary string) string {
	intents := make([]string, 0, len(model.DataIntents)+4)
	for _, it := range model.DataIntents {
		intents = append(intents, string(it))
	}
	intents = append(intents,
		string(model.IntentGreeting),
		string(model.IntentHelp),
		string(model.IntentCapabilities),
		string(model.IntentGeneralConversation),
	)

	turns := "(none)"
	if len(recentTurns) > 0 {
		turns = "- " + strings.Join(recentTurns, "\n- ")
	}
	return strings.NewReplacer(
		"{intents}", strings.Join(intents, ", "),
		"{context}", contextSummary,
		"{recent_turns}", turns,
		"{message}", message,
	).Replace(classifierPrompt)
}

// RenderAnswer builds the generation prompt for an output mode.
func RenderAnswer(mode model.OutputMode, message, toolData, contextSummary, ticker string) string {
	var tpl string
	switch mode {
	case model.ModeBriefing:
		tpl = briefingPrompt
	case model.ModeTickerNote:
		tpl = tickerNotePrompt
	case model.ModeData:
		tpl = dataPrompt
	default:
		tpl = chatPrompt
	}
	if toolData == "" {
		toolData = "(no tool data available)"
	}
	return strings.NewReplacer(
		"{context}", contextSummary,
		"{tool_data}", toolData,
		"{message}", message,
		"{ticker}", ticker,
	).Replace(tpl)
}

// RenderRetry builds the reinforced retry prompt from validation issues.
func RenderRetry(message string, issues []string) string {
	list := "- answer lacked verifiable sourcing"
	if len(issues) > 0 {
		list = "- " + strings.Join(issues, "\n- ")
	}
	return strings.NewReplacer(
		"{issues}", list,
		"{message}", message,
	).Replace(retryPrompt)
}
