package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/gobapps/emma-core/internal/agent"
	"github.com/gobapps/emma-core/internal/agent/model"
	"github.com/gobapps/emma-core/internal/agent/repo"
	pkgredis "github.com/gobapps/emma-core/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM providers
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiBaseURL    string `envconfig:"GEMINI_BASE_URL"`
	PerplexityAPIKey string `envconfig:"PERPLEXITY_API_KEY"`
	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY"`

	// Pipeline configs
	Classifier   model.ClassifierConfig
	Delegate     model.DelegateModelConfig
	Context      model.ContextConfig
	Tools        model.ToolsConfig
	Backends     model.BackendConfig
	Validator    model.ValidatorConfig
	Cache        model.CacheConfig
	Conversation model.ConversationConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	fmt.Println("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	orc, err := agent.New(ctx, agent.Config{
		GeminiAPIKey:     envCfg.GeminiAPIKey,
		GeminiBaseURL:    envCfg.GeminiBaseURL,
		PerplexityAPIKey: envCfg.PerplexityAPIKey,
		AnthropicAPIKey:  envCfg.AnthropicAPIKey,
		Classifier:       envCfg.Classifier,
		Delegate:         envCfg.Delegate,
		Context:          envCfg.Context,
		Tools:            envCfg.Tools,
		Backends:         envCfg.Backends,
		Validator:        envCfg.Validator,
		Cache:            envCfg.Cache,
		Conversation:     envCfg.Conversation,
		ConversationRepo: repo.NewRedisConversationRepository(rdb, ttl, envCfg.Conversation.MaxMessages),
		StatsStore:       repo.NewRedisStatsStore(rdb),
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	testQueries := []struct {
		description string
		message     string
	}{
		{
			description: "Full analysis request with an explicit ticker",
			message:     "Analyse AAPL",
		},
		{
			description: "Short follow-up carrying the topic over",
			message:     "et MSFT ?",
		},
		{
			description: "Conversational filler, no tools expected",
			message:     "Wow",
		},
	}

	conversationID := "demo-conversation-1"

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Message: %q\n", test.message)

		resp := orc.Process(ctx, model.Request{
			ConversationID: conversationID,
			Message:        test.message,
		})

		fmt.Printf("Intent: %s (confidence %.2f)\n", resp.Intent, resp.Confidence)
		fmt.Printf("Tools: %v  Failed: %v\n", resp.ToolsUsed, resp.FailedTools)
		fmt.Printf("Backend: %s  Reliable: %v  Took: %dms\n", resp.ModelUsed, resp.IsReliable, resp.ExecutionTimeMS)
		fmt.Printf("Response: %s\n", resp.Response)

		// slight delay between turns for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("\nAll demo turns completed.")
}
