package model

// ================ Config ================
type ConversationConfig struct {
	TTL          string `envconfig:"CONVERSATION_TTL" default:"15m"`
	MaxMessages  int    `envconfig:"CONVERSATION_MAX_MESSAGES" default:"20"`
	ContextTurns int    `envconfig:"CONVERSATION_CONTEXT_TURNS" default:"3"`
}

// ClassifierConfig carries the hand-tuned clarity weights. All of them are
// environment-tunable so threshold experiments do not need a rebuild.
type ClassifierConfig struct {
	ClarityThreshold int     `envconfig:"CLASSIFIER_CLARITY_THRESHOLD" default:"9"`
	ClarityBase      int     `envconfig:"CLASSIFIER_CLARITY_BASE" default:"5"`
	EntityBonus      int     `envconfig:"CLASSIFIER_ENTITY_BONUS" default:"2"`
	KeywordBonus     int     `envconfig:"CLASSIFIER_KEYWORD_BONUS" default:"2"`
	ContextBonus     int     `envconfig:"CLASSIFIER_CONTEXT_BONUS" default:"1"`
	VaguePenalty     int     `envconfig:"CLASSIFIER_VAGUE_PENALTY" default:"3"`
	ShortPenalty     int     `envconfig:"CLASSIFIER_SHORT_PENALTY" default:"2"`
	LongPenalty      int     `envconfig:"CLASSIFIER_LONG_PENALTY" default:"1"`
	ShortWordLimit   int     `envconfig:"CLASSIFIER_SHORT_WORD_LIMIT" default:"5"`
	LongWordLimit    int     `envconfig:"CLASSIFIER_LONG_WORD_LIMIT" default:"20"`
	MinConfidence    float64 `envconfig:"CLASSIFIER_MIN_CONFIDENCE" default:"0.5"`
}

// DelegateModelConfig configures the LLM classifier used for ambiguous
// messages.
type DelegateModelConfig struct {
	Model       string  `envconfig:"DELEGATE_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"DELEGATE_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"DELEGATE_TEMPERATURE" default:"0.1"`
	Timeout     string  `envconfig:"DELEGATE_TIMEOUT" default:"10s"`
}

type ContextConfig struct {
	MaxTickers    int    `envconfig:"CONTEXT_MAX_TICKERS" default:"5"`
	MaxConcepts   int    `envconfig:"CONTEXT_MAX_CONCEPTS" default:"3"`
	MaxTimeframes int    `envconfig:"CONTEXT_MAX_TIMEFRAMES" default:"2"`
	MaxMetrics    int    `envconfig:"CONTEXT_MAX_METRICS" default:"3"`
	TopicIdle     string `envconfig:"CONTEXT_TOPIC_IDLE" default:"5m"`
	TopicHistory  int    `envconfig:"CONTEXT_TOPIC_HISTORY" default:"5"`
}

type ToolsConfig struct {
	MaxConcurrent  int    `envconfig:"TOOLS_MAX_CONCURRENT" default:"5"`
	DefaultTimeout string `envconfig:"TOOLS_DEFAULT_TIMEOUT" default:"8s"`
}

type BackendConfig struct {
	Free struct {
		Model       string  `envconfig:"FREE_MODEL" default:"gemini-2.5-flash"`
		MaxTokens   int     `envconfig:"FREE_MAX_TOKENS" default:"2000"`
		Temperature float32 `envconfig:"FREE_TEMPERATURE" default:"0.4"`
	}
	Sourced struct {
		BaseURL   string `envconfig:"SOURCED_BASE_URL" default:"https://api.perplexity.ai"`
		Model     string `envconfig:"SOURCED_MODEL" default:"sonar-pro"`
		MaxTokens int    `envconfig:"SOURCED_MAX_TOKENS" default:"2000"`
	}
	Premium struct {
		Model     string `envconfig:"PREMIUM_MODEL" default:"claude-sonnet-4-20250514"`
		MaxTokens int    `envconfig:"PREMIUM_MAX_TOKENS" default:"4000"`
	}
	ChatTimeout     string `envconfig:"BACKEND_CHAT_TIMEOUT" default:"30s"`
	BriefingTimeout string `envconfig:"BACKEND_BRIEFING_TIMEOUT" default:"90s"`
}

type ValidatorConfig struct {
	MinScore float64 `envconfig:"VALIDATOR_MIN_SCORE" default:"0.7"`
}

type CacheConfig struct {
	Size int    `envconfig:"CACHE_SIZE" default:"256"`
	TTL  string `envconfig:"CACHE_TTL" default:"5m"`
}
