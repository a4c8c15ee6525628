package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobapps/emma-core/internal/agent/backends"
	"github.com/gobapps/emma-core/internal/agent/contextmem"
	"github.com/gobapps/emma-core/internal/agent/intent"
	"github.com/gobapps/emma-core/internal/agent/model"
	"github.com/gobapps/emma-core/internal/agent/tools"
	"github.com/gobapps/emma-core/internal/agent/validate"
	errx "github.com/gobapps/emma-core/internal/core/error"
)

// memoryRepo is an in-memory stand-in for the Redis history.
type memoryRepo struct {
	mu       sync.Mutex
	messages map[string][]*schema.Message
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{messages: map[string][]*schema.Message{}}
}

func (r *memoryRepo) AddMessage(_ context.Context, id string, m *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[id] = append(r.messages[id], m)
	return nil
}

func (r *memoryRepo) LoadHistory(_ context.Context, id string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := append([]*schema.Message(nil), r.messages[id]...)
	return &model.ConversationHistory{ConversationID: id, Messages: msgs}, nil
}

func (r *memoryRepo) ClearHistory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *memoryRepo) GetMessageCount(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[id]), nil
}

// termAnswer pairs a prompt marker with its canned answer. Checked in
// order so tests stay deterministic when a prompt mentions several tickers.
type termAnswer struct {
	term   string
	answer string
}

// scriptedGenerator returns canned answers, optionally keyed on the prompt.
type scriptedGenerator struct {
	name    model.Backend
	answers []string
	errs    []error
	byTerm  []termAnswer
	calls   int
}

func (g *scriptedGenerator) Name() model.Backend { return g.name }

func (g *scriptedGenerator) Generate(_ context.Context, req backends.GenerateRequest) (string, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	for _, ta := range g.byTerm {
		if strings.Contains(req.Prompt, ta.term) {
			return ta.answer, nil
		}
	}
	if i < len(g.answers) {
		return g.answers[i], nil
	}
	if len(g.answers) > 0 {
		return g.answers[len(g.answers)-1], nil
	}
	return "fine.", nil
}

const aaplAnswer = "Analyse of AAPL: the stock trades at $231.50 today [1]. Fundamentals show " +
	"steady revenue growth and healthy margins, while recent headlines stay constructive."

const msftAnswer = "Analyse of MSFT: the stock trades at $510.20 today [1]. Fundamentals show " +
	"strong cloud revenue and stable margins, with headlines focused on capacity build-out."

func newTestOrchestrator(t *testing.T, sourced, free backends.Generator) (*Orchestrator, *memoryRepo) {
	t.Helper()

	classifier := intent.NewClassifier(model.ClassifierConfig{
		ClarityThreshold: 9, ClarityBase: 5, EntityBonus: 2, KeywordBonus: 2,
		ContextBonus: 1, VaguePenalty: 3, ShortPenalty: 2, LongPenalty: 1,
		ShortWordLimit: 5, LongWordLimit: 20, MinConfidence: 0.5,
	}, nil)

	reg, err := tools.NewDefaultRegistry(model.ToolsConfig{MaxConcurrent: 5, DefaultTimeout: "2s"})
	require.NoError(t, err)
	stats := tools.NewStatsTracker(nil)

	repo := newMemoryRepo()
	orc, err := New(Params{
		Classifier:   classifier,
		Memories:     contextmem.NewStore(contextmem.DefaultConfig()),
		History:      repo,
		Scorer:       tools.NewScorer(reg, stats),
		Executor:     tools.NewExecutor(reg, stats),
		Cascade:      backends.NewCascade(sourced, free),
		Validator:    validate.New(model.ValidatorConfig{MinScore: 0.7}),
		Conversation: model.ConversationConfig{TTL: "15m", MaxMessages: 20, ContextTurns: 3},
		Backends:     model.BackendConfig{ChatTimeout: "5s", BriefingTimeout: "10s"},
		Cache:        model.CacheConfig{Size: 16, TTL: "5m"},
	})
	require.NoError(t, err)
	return orc, repo
}

func defaultGenerators() (*scriptedGenerator, *scriptedGenerator) {
	sourced := &scriptedGenerator{
		name: model.BackendSourced,
		byTerm: []termAnswer{
			{term: "MSFT", answer: msftAnswer},
			{term: "AAPL", answer: aaplAnswer},
		},
	}
	free := &scriptedGenerator{name: model.BackendFree, answers: []string{"Glad you liked it!"}}
	return sourced, free
}

func TestProcessComprehensiveRequest(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, repo := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})

	assert.True(t, resp.Success)
	assert.Equal(t, model.IntentComprehensiveAnalysis, resp.Intent)
	assert.Equal(t, model.BackendSourced, resp.ModelUsed)
	assert.True(t, resp.IsReliable)
	assert.NotEmpty(t, resp.RequestID)
	assert.Contains(t, resp.Response, "AAPL")

	// essential tools lead the selection
	require.GreaterOrEqual(t, len(resp.ToolsUsed), 3)
	assert.Equal(t, "stock_quote", resp.ToolsUsed[0])
	assert.Equal(t, "company_fundamentals", resp.ToolsUsed[1])
	assert.Equal(t, "ticker_news", resp.ToolsUsed[2])

	// both turns persisted
	n, err := repo.GetMessageCount(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProcessFollowUpCarriesTopic(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})
	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "et MSFT ?"})

	assert.True(t, resp.Success)
	assert.Equal(t, model.IntentComprehensiveAnalysis, resp.Intent)
	assert.Contains(t, resp.Response, "MSFT")
	assert.Contains(t, resp.ToolsUsed, "stock_quote")
}

func TestProcessResetCommandClearsContext(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, repo := newTestOrchestrator(t, sourced, free)

	orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})
	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "reset"})

	assert.True(t, resp.Success)
	assert.Equal(t, model.IntentReset, resp.Intent)
	assert.True(t, resp.IsReliable)
	assert.Empty(t, resp.ToolsUsed)
	assert.Contains(t, resp.Response, "cleared")
	// only the first turn generated anything
	assert.Equal(t, 1, sourced.calls)

	snap := orc.memories.Get("c1").Snapshot()
	assert.Empty(t, snap.Tickers)
	assert.Nil(t, snap.Topic)

	// history restarts with the reset exchange
	n, err := repo.GetMessageCount(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProcessConversationalSkipsTools(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Wow"})

	assert.True(t, resp.Success)
	assert.Equal(t, model.IntentGeneralConversation, resp.Intent)
	assert.Empty(t, resp.ToolsUsed)
	assert.Empty(t, resp.FailedTools)
	assert.Equal(t, model.BackendFree, resp.ModelUsed)
	assert.True(t, resp.IsReliable)
	assert.Zero(t, sourced.calls)
}

func TestProcessCachesRepeatedMessage(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	first := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})
	second := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Response, second.Response)
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.Equal(t, 1, sourced.calls)
}

func TestProcessRetryRecoversInvalidAnswer(t *testing.T) {
	sourced := &scriptedGenerator{
		name: model.BackendSourced,
		answers: []string{
			"As an AI, I cannot access real-time data about anything whatsoever today.",
			aaplAnswer,
		},
	}
	_, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})

	assert.True(t, resp.Success)
	assert.True(t, resp.IsReliable)
	assert.Equal(t, 2, sourced.calls)
	assert.Equal(t, aaplAnswer, resp.Response)
}

func TestProcessRetryExhaustedAcceptsUnreliable(t *testing.T) {
	bad := "As an AI, I cannot access real-time data about anything whatsoever today."
	sourced := &scriptedGenerator{name: model.BackendSourced, answers: []string{bad, bad}}
	_, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})

	assert.True(t, resp.Success)
	assert.False(t, resp.IsReliable)
	assert.Equal(t, 2, sourced.calls)
}

func TestProcessConfigErrorFailsFast(t *testing.T) {
	sourced := &scriptedGenerator{
		name: model.BackendSourced,
		errs: []error{errx.New(errx.ErrBackendConfig, http.StatusInternalServerError, errx.BackendErrorMessage)},
	}
	_, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})

	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Response)
	assert.Zero(t, free.calls)
}

func TestProcessCascadeSynthesizesWhenBackendsDown(t *testing.T) {
	down := errors.New("backend down")
	sourced := &scriptedGenerator{name: model.BackendSourced, errs: []error{down, down}}
	free := &scriptedGenerator{name: model.BackendFree, errs: []error{down, down}}
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})

	assert.True(t, resp.Success)
	assert.False(t, resp.IsReliable)
	assert.Contains(t, resp.Response, "stock_quote")
}

func TestProcessForcedIntent(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{
		ConversationID: "jobs",
		Message:        "briefing for AAPL",
		ForcedIntent:   model.IntentComprehensiveAnalysis,
		OutputMode:     model.ModeBriefing,
	})

	assert.True(t, resp.Success)
	assert.Equal(t, model.IntentComprehensiveAnalysis, resp.Intent)
	assert.Equal(t, 1.0, resp.Confidence)
	assert.Equal(t, model.ModeBriefing, resp.OutputMode)
}

func TestProcessPortfolioDirectAnswer(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "portfolio"})

	assert.True(t, resp.Success)
	assert.Equal(t, model.IntentPortfolio, resp.Intent)
	assert.Contains(t, resp.Response, "watchlist")
	assert.Zero(t, sourced.calls)
	assert.Zero(t, free.calls)
}

func TestProcessUnknownTickerMarksUnreliable(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse ZZZZ"})

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.FailedTools)
	assert.False(t, resp.IsReliable)
}

func TestProcessMeasuresExecutionTime(t *testing.T) {
	sourced, free := defaultGenerators()
	orc, _ := newTestOrchestrator(t, sourced, free)

	start := time.Now()
	resp := orc.Process(context.Background(), model.Request{ConversationID: "c1", Message: "Analyse AAPL"})

	assert.GreaterOrEqual(t, resp.ExecutionTimeMS, int64(0))
	assert.LessOrEqual(t, resp.ExecutionTimeMS, time.Since(start).Milliseconds()+1)
}
