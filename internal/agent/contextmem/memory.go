// Package contextmem keeps short-lived conversational context per
// conversation: recently discussed tickers, concepts and timeframes, the
// current topic, and the reference resolution built on top of them.
package contextmem

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobapps/emma-core/internal/agent/model"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// Config bounds the memory. Durations are parsed from the envconfig strings
// by the constructor.
type Config struct {
	MaxTickers    int
	MaxConcepts   int
	MaxTimeframes int
	MaxMetrics    int
	TopicIdle     time.Duration
	TopicHistory  int
}

// DefaultConfig mirrors the envconfig defaults.
func DefaultConfig() Config {
	return Config{
		MaxTickers:    5,
		MaxConcepts:   3,
		MaxTimeframes: 2,
		MaxMetrics:    3,
		TopicIdle:     5 * time.Minute,
		TopicHistory:  5,
	}
}

// ParseConfig converts the envconfig representation.
func ParseConfig(c model.ContextConfig) (Config, error) {
	idle, err := time.ParseDuration(c.TopicIdle)
	if err != nil {
		return Config{}, fmt.Errorf("parse topic idle: %w", err)
	}
	return Config{
		MaxTickers:    c.MaxTickers,
		MaxConcepts:   c.MaxConcepts,
		MaxTimeframes: c.MaxTimeframes,
		MaxMetrics:    c.MaxMetrics,
		TopicIdle:     idle,
		TopicHistory:  c.TopicHistory,
	}, nil
}

// Topic is one span of conversation about a single subject.
type Topic struct {
	Intent        model.Intent
	PrimaryTicker string
	StartedAt     time.Time
}

// State is a point-in-time copy of the memory, safe to read without locks.
type State struct {
	Tickers       []string
	Concepts      []string
	Timeframes    []string
	Metrics       []string
	PrimaryTicker string
	Topic         *Topic
	LastActivity  time.Time
}

// Memory holds the context of one conversation. All methods serialize on an
// internal mutex; concurrent turns of the same conversation observe each
// update atomically.
type Memory struct {
	mu  sync.Mutex
	cfg Config

	tickers    *mruList
	concepts   *mruList
	timeframes *mruList
	metrics    *mruList
	mentions   map[string]int

	topic        *Topic
	topicHistory []Topic
	lastActivity time.Time

	now func() time.Time
}

// NewMemory creates an empty memory for one conversation.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		cfg:        cfg,
		tickers:    newMRU(cfg.MaxTickers),
		concepts:   newMRU(cfg.MaxConcepts),
		timeframes: newMRU(cfg.MaxTimeframes),
		metrics:    newMRU(cfg.MaxMetrics),
		mentions:   map[string]int{},
		now:        time.Now,
	}
}

// conceptTerms and metricTerms label recurring discussion subjects so topic
// continuity survives turns that mention no ticker.
var conceptTerms = []string{
	"inflation", "interest rates", "rates", "recession", "dividends",
	"valuation", "diversification", "volatility", "etf", "crypto",
	"taux", "récession", "dividendes", "volatilité",
}

var metricTerms = []string{
	"pe ratio", "p/e", "eps", "revenue", "margin", "margins", "free cash flow",
	"market cap", "dividend yield", "rsi", "macd",
	"chiffre d'affaires", "marge", "capitalisation", "rendement",
}

var timeframeTerms = []string{
	"today", "this week", "this month", "this quarter", "this year", "ytd",
	"1y", "5y", "6 months", "aujourd'hui", "cette semaine", "ce trimestre",
	"cette année",
}

// Update folds a classified turn into the memory. It must be called after
// classification for every processed message, including conversational ones,
// so mentions and activity stay accurate.
func (m *Memory) Update(message string, res model.IntentResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	lower := strings.ToLower(message)

	for i := len(res.Entities) - 1; i >= 0; i-- {
		// Reverse order so the first-mentioned entity ends up most recent.
		m.tickers.Touch(res.Entities[i])
		m.mentions[res.Entities[i]]++
	}
	for _, t := range conceptTerms {
		if strings.Contains(lower, t) {
			m.concepts.Touch(t)
		}
	}
	for _, t := range metricTerms {
		if strings.Contains(lower, t) {
			m.metrics.Touch(t)
		}
	}
	for _, t := range timeframeTerms {
		if strings.Contains(lower, t) {
			m.timeframes.Touch(t)
		}
	}

	if !res.Intent.IsConversational() {
		m.trackTopic(res, now)
	}
	m.lastActivity = now
}

// trackTopic opens a new topic when the intent changes, the primary ticker
// changes, or the topic has been running longer than the configured window.
// The window is measured from the topic's start, not the last turn, so a
// topic rolls over after five minutes even under continuous activity.
func (m *Memory) trackTopic(res model.IntentResult, now time.Time) {
	primary := ""
	if len(res.Entities) > 0 {
		primary = res.Entities[0]
	} else if m.topic != nil {
		primary = m.topic.PrimaryTicker
	}

	changed := m.topic == nil ||
		m.topic.Intent != res.Intent ||
		(primary != "" && m.topic.PrimaryTicker != primary) ||
		now.Sub(m.topic.StartedAt) > m.cfg.TopicIdle

	if !changed {
		return
	}
	if m.topic != nil {
		m.topicHistory = append(m.topicHistory, *m.topic)
		if len(m.topicHistory) > m.cfg.TopicHistory {
			m.topicHistory = m.topicHistory[len(m.topicHistory)-m.cfg.TopicHistory:]
		}
	}
	m.topic = &Topic{Intent: res.Intent, PrimaryTicker: primary, StartedAt: now}
	logx.Debug().
		Str("intent", string(res.Intent)).
		Str("primary_ticker", primary).
		Msg("topic changed")
}

// Snapshot returns a copy of the current state.
func (m *Memory) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := State{
		Tickers:      m.tickers.Values(),
		Concepts:     m.concepts.Values(),
		Timeframes:   m.timeframes.Values(),
		Metrics:      m.metrics.Values(),
		LastActivity: m.lastActivity,
	}
	s.PrimaryTicker = m.primaryTickerLocked()
	if m.topic != nil {
		t := *m.topic
		s.Topic = &t
	}
	return s
}

// primaryTickerLocked prefers the topic's subject, then the ticker with the
// highest mention count, then the most recent one.
func (m *Memory) primaryTickerLocked() string {
	if m.topic != nil && m.topic.PrimaryTicker != "" {
		return m.topic.PrimaryTicker
	}
	best, bestCount := "", 0
	for _, t := range m.tickers.Values() {
		if c := m.mentions[t]; c > bestCount {
			best, bestCount = t, c
		}
	}
	if best != "" {
		return best
	}
	return m.tickers.Front()
}

// Reset clears everything, e.g. when the user explicitly changes subject.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers.Clear()
	m.concepts.Clear()
	m.timeframes.Clear()
	m.metrics.Clear()
	m.mentions = map[string]int{}
	m.topic = nil
	m.topicHistory = nil
	m.lastActivity = time.Time{}
}

// Summary renders a compact context block for model prompts, in the same
// shape prompts expect regardless of backend. Empty memory yields "".
func (m *Memory) Summary() string {
	s := m.Snapshot()
	var parts []string
	if len(s.Tickers) > 0 {
		parts = append(parts, "recent tickers: "+strings.Join(s.Tickers, ", "))
	}
	if len(s.Concepts) > 0 {
		parts = append(parts, "recent themes: "+strings.Join(s.Concepts, ", "))
	}
	if len(s.Timeframes) > 0 {
		parts = append(parts, "timeframes: "+strings.Join(s.Timeframes, ", "))
	}
	if s.Topic != nil {
		parts = append(parts, fmt.Sprintf("current topic: %s (%s)", s.Topic.Intent, s.Topic.PrimaryTicker))
	}
	if len(parts) == 0 {
		return ""
	}
	return "<conversation_context>\n" + strings.Join(parts, "\n") + "\n</conversation_context>"
}
