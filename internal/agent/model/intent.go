package model

import "time"

// Intent identifies what the user is asking for.
type Intent string

const (
	IntentStockPrice            Intent = "stock_price"
	IntentFundamentals          Intent = "fundamentals"
	IntentTechnicalAnalysis     Intent = "technical_analysis"
	IntentNews                  Intent = "news"
	IntentComprehensiveAnalysis Intent = "comprehensive_analysis"
	IntentComparativeAnalysis   Intent = "comparative_analysis"
	IntentEarnings              Intent = "earnings"
	IntentPortfolio             Intent = "portfolio"
	IntentMarketOverview        Intent = "market_overview"
	IntentRecommendation        Intent = "recommendation"
	IntentGreeting              Intent = "greeting"
	IntentHelp                  Intent = "help"
	IntentCapabilities          Intent = "capabilities"
	IntentGeneralConversation   Intent = "general_conversation"
	IntentReset                 Intent = "reset_context"
)

// AnalysisMethod records which path produced an IntentResult.
type AnalysisMethod string

const (
	MethodLocal       AnalysisMethod = "local"
	MethodLLM         AnalysisMethod = "llm"
	MethodForced      AnalysisMethod = "forced"
	MethodPreFiltered AnalysisMethod = "pre_filtered"
)

// Recency is the maximum acceptable age of source data for an answer.
type Recency string

const (
	RecencyHour  Recency = "hour"
	RecencyDay   Recency = "day"
	RecencyWeek  Recency = "week"
	RecencyMonth Recency = "month"
)

// IntentResult is the outcome of classifying one user message. Context
// memory may append inferred entities before the result flows downstream;
// nothing else mutates it after creation.
type IntentResult struct {
	Intent                 Intent            `json:"intent"`
	Confidence             float64           `json:"confidence"`
	Entities               []string          `json:"entities"`
	Parameters             map[string]string `json:"parameters,omitempty"`
	SuggestedTools         []string          `json:"suggested_tools,omitempty"`
	ClarityScore           int               `json:"clarity_score"`
	Method                 AnalysisMethod    `json:"method"`
	NeedsClarification     bool              `json:"needs_clarification"`
	ClarificationQuestions []string          `json:"clarification_questions,omitempty"`
	Recency                Recency           `json:"recency"`
	AnalyzedAt             time.Time         `json:"analyzed_at"`
}

// IsConversational reports whether the intent carries no data request.
func (i Intent) IsConversational() bool {
	switch i {
	case IntentGreeting, IntentHelp, IntentCapabilities, IntentGeneralConversation, IntentReset:
		return true
	}
	return false
}

// IsFactual reports whether answers for the intent depend on market data
// that goes stale, which forces the answer through a source-backed model.
func (i Intent) IsFactual() bool {
	switch i {
	case IntentStockPrice, IntentNews, IntentEarnings, IntentMarketOverview:
		return true
	}
	return false
}

// IntentProfile is the static configuration of one intent.
type IntentProfile struct {
	Keywords       []string
	BaseConfidence float64
	RequiresEntity bool
	DefaultRecency Recency
	SuggestedTools []string
}

// Profiles holds the hand-tuned intent table. Keywords mix English and
// French because the assistant serves both.
var Profiles = map[Intent]IntentProfile{
	IntentStockPrice: {
		Keywords:       []string{"price", "quote", "trading at", "worth", "value", "cours", "prix", "cote", "vaut"},
		BaseConfidence: 0.95,
		RequiresEntity: true,
		DefaultRecency: RecencyHour,
		SuggestedTools: []string{"stock_quote"},
	},
	IntentFundamentals: {
		Keywords:       []string{"fundamentals", "revenue", "balance sheet", "cash flow", "margins", "valuation", "pe ratio", "chiffre d'affaires", "bilan", "marges", "fondamentaux"},
		BaseConfidence: 0.9,
		RequiresEntity: true,
		DefaultRecency: RecencyMonth,
		SuggestedTools: []string{"company_fundamentals", "financial_ratios", "key_metrics"},
	},
	IntentTechnicalAnalysis: {
		Keywords:       []string{"technical", "rsi", "macd", "moving average", "support", "resistance", "momentum", "chart", "moyenne mobile", "technique", "graphique"},
		BaseConfidence: 0.9,
		RequiresEntity: true,
		DefaultRecency: RecencyDay,
		SuggestedTools: []string{"technical_indicators", "stock_quote"},
	},
	IntentNews: {
		Keywords:       []string{"news", "headline", "headlines", "announcement", "latest", "actualités", "nouvelles", "annonce", "dernières"},
		BaseConfidence: 0.85,
		RequiresEntity: false,
		DefaultRecency: RecencyDay,
		SuggestedTools: []string{"ticker_news"},
	},
	IntentComprehensiveAnalysis: {
		Keywords:       []string{"analyze", "analyse", "analysis", "overview", "deep dive", "full picture", "tell me about", "complet", "complète"},
		BaseConfidence: 0.9,
		RequiresEntity: true,
		DefaultRecency: RecencyDay,
		SuggestedTools: []string{"stock_quote", "company_fundamentals", "ticker_news", "analyst_ratings", "technical_indicators"},
	},
	IntentComparativeAnalysis: {
		Keywords:       []string{"compare", "versus", "vs", "better than", "or", "comparer", "contre", "plutôt que"},
		BaseConfidence: 0.85,
		RequiresEntity: true,
		DefaultRecency: RecencyDay,
		SuggestedTools: []string{"stock_quote", "financial_ratios", "key_metrics"},
	},
	IntentEarnings: {
		Keywords:       []string{"earnings", "quarterly results", "eps", "guidance", "results", "résultats", "bénéfices", "trimestre"},
		BaseConfidence: 0.9,
		RequiresEntity: true,
		DefaultRecency: RecencyMonth,
		SuggestedTools: []string{"earnings_calendar", "company_fundamentals"},
	},
	IntentPortfolio: {
		Keywords:       []string{"portfolio", "watchlist", "my stocks", "holdings", "positions", "portefeuille", "mes actions"},
		BaseConfidence: 0.85,
		RequiresEntity: false,
		DefaultRecency: RecencyDay,
		SuggestedTools: []string{"watchlist_snapshot"},
	},
	IntentMarketOverview: {
		Keywords:       []string{"market", "markets", "indices", "s&p", "nasdaq", "dow", "sector", "sectors", "marché", "marchés", "secteur"},
		BaseConfidence: 0.75,
		RequiresEntity: false,
		DefaultRecency: RecencyDay,
		SuggestedTools: []string{"market_movers", "ticker_news"},
	},
	IntentRecommendation: {
		Keywords:       []string{"should i buy", "should i sell", "recommend", "buy or sell", "good investment", "acheter", "vendre", "conseil", "recommandation"},
		BaseConfidence: 0.8,
		RequiresEntity: true,
		DefaultRecency: RecencyDay,
		SuggestedTools: []string{"analyst_ratings", "stock_quote", "company_fundamentals"},
	},
	IntentGreeting: {
		Keywords:       []string{"hello", "hi", "hey", "good morning", "good evening", "bonjour", "bonsoir", "salut", "coucou"},
		BaseConfidence: 0.95,
		DefaultRecency: RecencyMonth,
	},
	IntentHelp: {
		Keywords:       []string{"help", "how do i", "how does this work", "aide", "comment faire"},
		BaseConfidence: 0.9,
		DefaultRecency: RecencyMonth,
	},
	IntentCapabilities: {
		Keywords:       []string{"what can you do", "capabilities", "features", "que peux-tu faire", "que sais-tu faire"},
		BaseConfidence: 0.9,
		DefaultRecency: RecencyMonth,
	},
	IntentGeneralConversation: {
		Keywords:       []string{},
		BaseConfidence: 0.6,
		DefaultRecency: RecencyMonth,
	},
	IntentReset: {
		Keywords:       []string{"reset", "new topic", "oublie tout"},
		BaseConfidence: 0.95,
		DefaultRecency: RecencyMonth,
	},
}

// ProfileFor returns the profile for an intent, falling back to the
// general conversation profile for unknown values.
func ProfileFor(i Intent) IntentProfile {
	if p, ok := Profiles[i]; ok {
		return p
	}
	return Profiles[IntentGeneralConversation]
}

// DataIntents lists intents in declaration order for deterministic arg-max
// scans. Conversational intents are excluded because the pre-filter and
// command table handle them before keyword scoring runs.
var DataIntents = []Intent{
	IntentStockPrice,
	IntentFundamentals,
	IntentTechnicalAnalysis,
	IntentNews,
	IntentComprehensiveAnalysis,
	IntentComparativeAnalysis,
	IntentEarnings,
	IntentPortfolio,
	IntentMarketOverview,
	IntentRecommendation,
}
