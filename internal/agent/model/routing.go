package model

// OutputMode shapes both prompt selection and backend routing.
type OutputMode string

const (
	ModeChat       OutputMode = "chat"
	ModeBriefing   OutputMode = "briefing"
	ModeTickerNote OutputMode = "ticker_note"
	ModeData       OutputMode = "data"
)

// Backend names a completion provider tier.
type Backend string

const (
	// BackendSourced answers with citations from fresh web sources.
	BackendSourced Backend = "sourced"
	// BackendFree is the low-cost conversational model.
	BackendFree Backend = "free"
	// BackendPremium produces long-form polished prose.
	BackendPremium Backend = "premium"
)

// ModelSelection is the router's decision for one request.
type ModelSelection struct {
	Backend Backend `json:"backend"`
	Recency Recency `json:"recency,omitempty"`
	Reason  string  `json:"reason"`
}

// Channel identifies the delivery surface of the conversation.
type Channel string

const (
	ChannelChat Channel = "chat"
	ChannelSMS  Channel = "sms"
)
