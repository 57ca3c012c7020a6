package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/hr-copilot-poc/server/internal/agent/graph"
	"github.com/hr-copilot-poc/server/internal/agent/graph/nodes"
	"github.com/hr-copilot-poc/server/internal/agent/model"
	"github.com/hr-copilot-poc/server/internal/agent/repo"
	"github.com/hr-copilot-poc/server/internal/core"
	"github.com/hr-copilot-poc/server/internal/hr/store"
	"github.com/hr-copilot-poc/server/internal/httpapi"
	"github.com/hr-copilot-poc/server/internal/retrieval"
	logx "github.com/hr-copilot-poc/server/pkg/logger"
	pkgredis "github.com/hr-copilot-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Infrastructure
	Redis      pkgredis.Config
	SQLitePath string `envconfig:"SQLITE_PATH" default:"hr.db"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Planner      model.PlannerModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
	Retrieval    model.RetrievalConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	// HR store
	hrStore, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open HR store")
	}
	defer hrStore.Close()
	if err := hrStore.SeedDemoData(ctx); err != nil {
		logx.Fatal().Err(err).Msg("Failed to seed demo data")
	}

	// Gemini client, shared by the planner model and the embedder
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	// Labor-law retrieval index, built once at startup
	docs := retrieval.LoadCollections(cfg.Retrieval.DocsPathEN, cfg.Retrieval.DocsPathAR)
	embedder := retrieval.NewGenAIEmbedder(client, cfg.Retrieval.EmbeddingModel)
	index, err := retrieval.BuildIndex(ctx, embedder, docs)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build labor-law index")
	}
	logx.Info().Int("documents", len(docs)).Msg("Labor-law index ready")

	// Session store
	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
	}
	defer rdb.Close()

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", cfg.Conversation.TTL).Msg("Invalid CONVERSATION_TTL")
	}

	// Planner model and graph runner
	planner, err := nodes.NewPlannerModel(ctx, client, &cfg.Planner)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to create planner model")
	}

	runner, err := graph.NewRunner(graph.Config{
		PlannerModel:     planner,
		Prompt:           cfg.Prompt,
		Conversation:     cfg.Conversation,
		ConversationRepo: repo.NewRedisConversationRepository(rdb, ttl),
		Store:            hrStore,
		Index:            index,
		RetrievalTopK:    cfg.Retrieval.TopK,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph runner")
	}

	server := httpapi.NewServer(runner, hrStore)
	logx.Info().Str("addr", cfg.ListenAddr).Msg("HR agent listening")
	if err := http.ListenAndServe(cfg.ListenAddr, server.Handler()); err != nil {
		logx.Fatal().Err(err).Msg("HTTP server stopped")
	}
}
