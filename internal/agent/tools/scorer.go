package tools

import (
	"sort"
	"strings"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// Selection weights. Lower total score wins; bonuses subtract.
const (
	priorityWeight     = 10
	suggestionBase     = 100
	suggestionStep     = 10
	keywordBonus       = 20
	usageContextBonus  = 15
	performanceScale   = 30
	performanceNeutral = 10
	recencyBonus1h     = 15
	recencyBonus6h     = 10
	recencyBonus24h    = 5
)

// noDataKeywords name question domains answerable without structured tool
// data as long as no ticker is in play: funds, macroeconomics, strategy.
var noDataKeywords = []string{
	"etf", "index fund", "mutual fund", "fonds",
	"inflation", "interest rate", "recession", "economy", "économie", "taux",
	"diversif", "strategy", "stratégie", "dollar cost", "long term investing",
	"what is a", "qu'est-ce qu",
}

// essentialComprehensive is forced to the front of the ranking for an
// entity-bearing comprehensive analysis, relative order preserved.
var essentialComprehensive = []string{"stock_quote", "company_fundamentals", "ticker_news"}

// SelectionContext carries the request-scoped signals scoring needs beyond
// the intent result itself.
type SelectionContext struct {
	Message        string
	Channel        model.Channel
	ContextTickers []string
}

// Scorer ranks registry tools for one request. Deterministic given the same
// inputs and stats snapshot.
type Scorer struct {
	reg   *Registry
	stats *StatsTracker
	now   func() time.Time
}

// NewScorer builds a scorer over a registry and stats tracker.
func NewScorer(reg *Registry, stats *StatsTracker) *Scorer {
	return &Scorer{reg: reg, stats: stats, now: time.Now}
}

// Select returns the ordered tools to execute for this request. An empty
// result means the request is answerable without structured data.
func (s *Scorer) Select(res model.IntentResult, sctx SelectionContext) []model.ToolDescriptor {
	// The no-data check runs first: selecting tools for a conceptual
	// question burns latency and quota for nothing.
	if s.answerableWithoutData(res, sctx) {
		return nil
	}

	lower := strings.ToLower(sctx.Message)
	type scored struct {
		d     model.ToolDescriptor
		score int
		idx   int
	}
	var ranked []scored
	for i, d := range s.reg.Enabled() {
		ranked = append(ranked, scored{d: d, score: s.scoreTool(d, res, lower), idx: i})
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score < ranked[b].score
		}
		return ranked[a].idx < ranked[b].idx
	})

	out := make([]model.ToolDescriptor, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.d)
	}

	if res.Intent == model.IntentComprehensiveAnalysis && len(res.Entities) > 0 {
		out = forceToFront(out, essentialComprehensive)
	}
	if sctx.Channel == model.ChannelSMS {
		out = pruneForChannel(out, lower)
	}
	if max := s.reg.MaxConcurrent(); len(out) > max {
		out = out[:max]
	}

	ids := make([]string, len(out))
	for i, d := range out {
		ids[i] = d.ID
	}
	logx.Debug().Str("intent", string(res.Intent)).Strs("tools", ids).Msg("tools selected")
	return out
}

// answerableWithoutData implements the deliberate no-tools early exit.
func (s *Scorer) answerableWithoutData(res model.IntentResult, sctx SelectionContext) bool {
	if res.Intent.IsConversational() {
		return true
	}
	if len(res.Entities) > 0 {
		return false
	}
	lower := strings.ToLower(sctx.Message)
	for _, kw := range noDataKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (s *Scorer) scoreTool(d model.ToolDescriptor, res model.IntentResult, lowerMsg string) int {
	score := d.Priority * priorityWeight

	for rank, id := range res.SuggestedTools {
		if id == d.ID {
			bonus := suggestionBase - rank*suggestionStep
			if bonus > 0 {
				score -= bonus
			}
			break
		}
	}
	for _, kw := range d.Keywords {
		if strings.Contains(lowerMsg, kw) {
			score -= keywordBonus
			break
		}
	}
	for _, uc := range d.UsageContext {
		if uc == string(res.Intent) {
			score -= usageContextBonus
			break
		}
	}

	st := s.stats.Get(d.ID)
	if rate := st.SuccessRate(); rate < 0 {
		score -= performanceNeutral
	} else {
		score -= int(rate * performanceScale)
	}

	if !st.LastUsed.IsZero() {
		switch age := s.now().Sub(st.LastUsed); {
		case age < time.Hour:
			score -= recencyBonus1h
		case age < 6*time.Hour:
			score -= recencyBonus6h
		case age < 24*time.Hour:
			score -= recencyBonus24h
		}
	}
	return score
}

// forceToFront moves the named ids to the head of the list, keeping the
// relative order of both the named ids and the remainder.
func forceToFront(ds []model.ToolDescriptor, ids []string) []model.ToolDescriptor {
	front := make([]model.ToolDescriptor, 0, len(ds))
	rest := make([]model.ToolDescriptor, 0, len(ds))
	named := map[string]int{}
	for i, id := range ids {
		named[id] = i
	}
	for _, d := range ds {
		if _, ok := named[d.ID]; ok {
			front = append(front, d)
		} else {
			rest = append(rest, d)
		}
	}
	sort.SliceStable(front, func(a, b int) bool {
		return named[front[a].ID] < named[front[b].ID]
	})
	return append(front, rest...)
}

// pruneForChannel drops optional tools on low-bandwidth channels unless the
// message asks for them by keyword.
func pruneForChannel(ds []model.ToolDescriptor, lowerMsg string) []model.ToolDescriptor {
	out := ds[:0]
	for _, d := range ds {
		if d.Optional && !keywordPresent(d, lowerMsg) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func keywordPresent(d model.ToolDescriptor, lowerMsg string) bool {
	for _, kw := range d.Keywords {
		if strings.Contains(lowerMsg, kw) {
			return true
		}
	}
	return false
}
