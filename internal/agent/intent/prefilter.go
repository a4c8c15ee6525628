package intent

import (
	"regexp"
	"strings"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// Messages caught here skip both clarity scoring and the LLM delegate:
// their meaning is obvious and spending a model call on them is waste.

var emotiveWords = map[string]struct{}{
	"wow": {}, "cool": {}, "nice": {}, "great": {}, "awesome": {}, "amazing": {},
	"ok": {}, "okay": {}, "thanks": {}, "thank you": {}, "thx": {}, "lol": {},
	"haha": {}, "hmm": {}, "oh": {}, "ouch": {}, "yay": {}, "perfect": {},
	"super": {}, "génial": {}, "merci": {}, "top": {}, "parfait": {}, "ah": {},
	"oui": {}, "non": {}, "d'accord": {}, "dac": {},
}

var greetingWords = map[string]struct{}{
	"hello": {}, "hi": {}, "hey": {}, "yo": {}, "bonjour": {}, "bonsoir": {},
	"salut": {}, "coucou": {}, "good morning": {}, "good evening": {},
}

var emailPattern = regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.]+\b`)

// PreFilter classifies trivially recognizable messages without scoring.
// The second return is false when the message needs the full pipeline.
func PreFilter(message string) (model.IntentResult, bool) {
	trimmed := strings.TrimSpace(message)
	normalized := strings.ToLower(strings.Trim(trimmed, " !?.,😀🙂👍"))

	res := model.IntentResult{
		ClarityScore: 10,
		Method:       model.MethodPreFiltered,
		AnalyzedAt:   time.Now().UTC(),
	}

	switch {
	case trimmed == "":
		res.Intent = model.IntentGeneralConversation
		res.Confidence = 0.9
	case emailPattern.MatchString(trimmed):
		// People paste contact details mid-conversation; never treat an
		// address as a data query.
		res.Intent = model.IntentGeneralConversation
		res.Confidence = 0.85
	case containsPhrase(normalized, greetingWords):
		res.Intent = model.IntentGreeting
		res.Confidence = 0.95
	case containsPhrase(normalized, emotiveWords):
		res.Intent = model.IntentGeneralConversation
		res.Confidence = 0.9
	default:
		return model.IntentResult{}, false
	}

	res.Recency = model.ProfileFor(res.Intent).DefaultRecency
	res.Entities = []string{}
	return res, true
}

// containsPhrase matches when the whole normalized message is one of the
// phrases, or when it is at most three words and starts with one. "hello
// everyone" greets; "hi, what is AAPL worth" does not stop the pipeline.
func containsPhrase(normalized string, phrases map[string]struct{}) bool {
	if _, ok := phrases[normalized]; ok {
		return true
	}
	words := strings.Fields(normalized)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	first := strings.Trim(words[0], "!?.,")
	_, ok := phrases[first]
	return ok
}
