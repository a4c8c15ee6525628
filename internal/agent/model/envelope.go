package model

// Request is one user turn entering the orchestrator.
type Request struct {
	ConversationID string     `json:"conversation_id"`
	Message        string     `json:"message"`
	Channel        Channel    `json:"channel,omitempty"`
	OutputMode     OutputMode `json:"output_mode,omitempty"`
	// ForcedIntent bypasses classification when a caller already knows the
	// intent, e.g. a scheduled briefing job.
	ForcedIntent Intent `json:"forced_intent,omitempty"`
}

// Response is the uniform envelope returned for every processed turn.
// Success reports whether an answer was produced at all; degraded answers
// still set Success with IsReliable false.
type Response struct {
	RequestID          string     `json:"request_id"`
	Success            bool       `json:"success"`
	Response           string     `json:"response"`
	ToolsUsed          []string   `json:"tools_used"`
	FailedTools        []string   `json:"failed_tools,omitempty"`
	UnavailableSources []string   `json:"unavailable_sources,omitempty"`
	Intent             Intent     `json:"intent"`
	Confidence         float64    `json:"confidence"`
	IsReliable         bool       `json:"is_reliable"`
	ModelUsed          Backend    `json:"model_used"`
	OutputMode         OutputMode `json:"output_mode"`
	Cached             bool       `json:"cached,omitempty"`
	ExecutionTimeMS    int64      `json:"execution_time_ms"`
}
