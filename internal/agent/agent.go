// Package agent assembles the full pipeline: classifier, context memory,
// tool layer, backends, validator and orchestrator.
package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/gobapps/emma-core/internal/agent/backends"
	"github.com/gobapps/emma-core/internal/agent/contextmem"
	"github.com/gobapps/emma-core/internal/agent/intent"
	"github.com/gobapps/emma-core/internal/agent/model"
	"github.com/gobapps/emma-core/internal/agent/orchestrator"
	"github.com/gobapps/emma-core/internal/agent/tools"
	"github.com/gobapps/emma-core/internal/agent/validate"
	logx "github.com/gobapps/emma-core/pkg/logger"
)

// Config carries credentials, model settings and the persistence adapters
// the pipeline depends on.
type Config struct {
	GeminiAPIKey     string
	GeminiBaseURL    string
	PerplexityAPIKey string
	AnthropicAPIKey  string

	Classifier   model.ClassifierConfig
	Delegate     model.DelegateModelConfig
	Context      model.ContextConfig
	Tools        model.ToolsConfig
	Backends     model.BackendConfig
	Validator    model.ValidatorConfig
	Cache        model.CacheConfig
	Conversation model.ConversationConfig

	ConversationRepo model.ConversationRepository
	StatsStore       tools.StatsStore
}

// New builds the orchestrator. The Gemini key is mandatory: it powers both
// the classification delegate and the free backend. Missing Perplexity or
// Anthropic keys leave those backends configured to fail fast when routed
// to, which keeps credential problems visible instead of silently absorbed.
func New(ctx context.Context, cfg Config) (*orchestrator.Orchestrator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.GeminiBaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// thinking disabled on both models, answers here are latency-bound
	delegateModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Delegate.Model,
		Temperature: &cfg.Delegate.Temperature,
		MaxTokens:   &cfg.Delegate.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating delegate model")
		return nil, fmt.Errorf("error creating delegate model: %w", err)
	}

	freeModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Backends.Free.Model,
		Temperature: &cfg.Backends.Free.Temperature,
		MaxTokens:   &cfg.Backends.Free.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating free backend model")
		return nil, fmt.Errorf("error creating free backend model: %w", err)
	}

	delegateTimeout, err := time.ParseDuration(cfg.Delegate.Timeout)
	if err != nil {
		return nil, fmt.Errorf("parse delegate timeout: %w", err)
	}
	classifier := intent.NewClassifier(cfg.Classifier, intent.NewModelDelegate(delegateModel, delegateTimeout))

	memCfg, err := contextmem.ParseConfig(cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("parse context config: %w", err)
	}
	memories := contextmem.NewStore(memCfg)

	registry, err := tools.NewDefaultRegistry(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	stats := tools.NewStatsTracker(cfg.StatsStore)
	stats.LoadPersisted(ctx)

	cascade := backends.NewCascade(
		backends.NewFreeBackend(freeModel, cfg.Backends.Free.Model),
		backends.NewSourcedBackend(
			http.DefaultClient,
			cfg.Backends.Sourced.BaseURL,
			cfg.PerplexityAPIKey,
			cfg.Backends.Sourced.Model,
			cfg.Backends.Sourced.MaxTokens,
		),
		backends.NewPremiumBackend(
			cfg.AnthropicAPIKey,
			cfg.Backends.Premium.Model,
			cfg.Backends.Premium.MaxTokens,
		),
	)

	return orchestrator.New(orchestrator.Params{
		Classifier:   classifier,
		Memories:     memories,
		History:      cfg.ConversationRepo,
		Scorer:       tools.NewScorer(registry, stats),
		Executor:     tools.NewExecutor(registry, stats),
		Cascade:      cascade,
		Validator:    validate.New(cfg.Validator),
		Conversation: cfg.Conversation,
		Backends:     cfg.Backends,
		Cache:        cfg.Cache,
	})
}
