package contextmem

import (
	"regexp"

	"github.com/gobapps/emma-core/internal/agent/model"
)

// Reference is the outcome of resolving pronouns and definite descriptions
// against the memory.
type Reference struct {
	// Tickers the message implicitly refers to, most recent first.
	Tickers []string
	// Metric is set when the message refers back to a discussed metric.
	Metric string
	// Explicit is true when the message contains a clear anaphoric marker
	// (a pronoun or "the company" style phrase), as opposed to the caller
	// merely borrowing the topic's subject.
	Explicit bool
}

// Anaphoric markers, English and French. Singular forms resolve to the most
// recent ticker, plural forms to the whole recent list.
var (
	singularRef = regexp.MustCompile(`(?i)\b(it|its|itself|il|elle|ça|cela|celle-ci|celui-ci)\b`)
	pluralRef   = regexp.MustCompile(`(?i)\b(them|they|these stocks|those stocks|both|ils|elles|ces actions|les deux)\b`)
	companyRef  = regexp.MustCompile(`(?i)\b(the company|this company|that company|la société|l'entreprise|cette entreprise)\b`)
	stockRef    = regexp.MustCompile(`(?i)\b(the stock|this stock|that stock|the share|l'action|ce titre|cette action)\b`)
	metricRef   = regexp.MustCompile(`(?i)\b(that metric|this metric|that number|this ratio|cette métrique|ce ratio|ce chiffre)\b`)
)

// Resolve inspects a message for anaphoric references and maps them onto the
// remembered tickers and metrics. A message with no marker returns a zero
// Reference.
func (m *Memory) Resolve(message string) Reference {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ref Reference
	switch {
	case pluralRef.MatchString(message):
		ref.Tickers = m.tickers.Values()
		ref.Explicit = len(ref.Tickers) > 0
	case singularRef.MatchString(message), companyRef.MatchString(message), stockRef.MatchString(message):
		if t := m.primaryTickerLocked(); t != "" {
			ref.Tickers = []string{t}
			ref.Explicit = true
		}
	}
	if metricRef.MatchString(message) {
		if met := m.metrics.Front(); met != "" {
			ref.Metric = met
			ref.Explicit = true
		}
	}
	return ref
}

// Inference confidence levels. An explicit marker is strong evidence; falling
// back to the topic's subject is a weaker guess.
const (
	confidenceExplicit = 0.8
	confidenceTopical  = 0.6
)

// InferMissing fills absent entities on an intent result from memory. It
// only acts when the intent requires an entity and classification found
// none; otherwise the result passes through untouched. The returned float is
// the inference confidence, 0 when nothing was inferred.
func (m *Memory) InferMissing(message string, res model.IntentResult) (model.IntentResult, float64) {
	if len(res.Entities) > 0 || !model.ProfileFor(res.Intent).RequiresEntity {
		return res, 0
	}

	ref := m.Resolve(message)
	if ref.Explicit && len(ref.Tickers) > 0 {
		res.Entities = ref.Tickers
		res.NeedsClarification = false
		res.ClarificationQuestions = nil
		if ref.Metric != "" {
			if res.Parameters == nil {
				res.Parameters = map[string]string{}
			}
			res.Parameters["metric"] = ref.Metric
		}
		return res, confidenceExplicit
	}

	if t := m.Snapshot().PrimaryTicker; t != "" {
		res.Entities = []string{t}
		res.NeedsClarification = false
		res.ClarificationQuestions = nil
		return res, confidenceTopical
	}
	return res, 0
}
