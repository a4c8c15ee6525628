package model

import "time"

// ToolCategory groups tools for channel pruning and scoring bonuses.
type ToolCategory string

const (
	CategoryMarketData  ToolCategory = "market_data"
	CategoryFundamental ToolCategory = "fundamental"
	CategoryNews        ToolCategory = "news"
	CategoryAnalysis    ToolCategory = "analysis"
	CategoryPortfolio   ToolCategory = "portfolio"
)

// ToolDescriptor is the static registration record of one data tool.
// Descriptors are read-only at request time; the registry owns them.
type ToolDescriptor struct {
	ID                 string        `json:"id"`
	Description        string        `json:"description"`
	Enabled            bool          `json:"enabled"`
	Category           ToolCategory  `json:"category"`
	Priority           int           `json:"priority"`
	Keywords           []string      `json:"keywords"`
	UsageContext       []string      `json:"usage_context"`
	RequiredParameters []string      `json:"required_parameters,omitempty"`
	FallbackTools      []string      `json:"fallback_tools,omitempty"`
	// Optional tools are dropped on low-bandwidth channels unless their
	// keywords appear verbatim in the message.
	Optional bool          `json:"optional"`
	Timeout  time.Duration `json:"timeout"`
}

// ToolExecutionResult is the settled outcome of one tool invocation. The
// executor guarantees one result per selected tool, in selection order.
type ToolExecutionResult struct {
	ToolID       string         `json:"tool_id"`
	Success      bool           `json:"success"`
	Data         map[string]any `json:"data,omitempty"`
	Error        string         `json:"error,omitempty"`
	FallbackUsed string         `json:"fallback_used,omitempty"`
	Duration     time.Duration  `json:"duration"`
	IsReliable   bool           `json:"is_reliable"`
	// Skipped marks tools that never ran because no valid parameters could
	// be derived; they carry success false without touching usage stats.
	Skipped bool `json:"skipped,omitempty"`
}

// UsageStats tracks the observed behaviour of one tool over time.
type UsageStats struct {
	TotalCalls      int           `json:"total_calls"`
	SuccessfulCalls int           `json:"successful_calls"`
	FailedCalls     int           `json:"failed_calls"`
	AvgLatency      time.Duration `json:"avg_latency"`
	LastUsed        time.Time     `json:"last_used"`
	ErrorHistory    []string      `json:"error_history,omitempty"`
}

// SuccessRate returns the observed success ratio, or -1 when the tool has
// no history so scorers can treat it as neutral.
func (s UsageStats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return -1
	}
	return float64(s.SuccessfulCalls) / float64(s.TotalCalls)
}
