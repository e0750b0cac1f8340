package main

import (
	"github.com/joho/godotenv"
	"github.com/xaenox/support-bot/internal/assistant"
	"github.com/xaenox/support-bot/internal/bot"
	"github.com/xaenox/support-bot/internal/history"
	"github.com/xaenox/support-bot/internal/session"
	"github.com/xaenox/support-bot/internal/store"
	"github.com/xaenox/support-bot/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Optional .env for local runs; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize the tabular store backend
	var st store.Store
	switch cfg.Storage.Backend {
	case "memory":
		logger.Info("Using in-memory storage")
		st = store.NewMemoryStore()
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		st, err = store.NewPostgresStore(store.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	default:
		logger.Info("Using Airtable storage", zap.String("table", config.AppealsTable))
		st = store.NewAirtableStore(cfg.Airtable.Token, cfg.Airtable.BaseID, config.AppealsTable, logger)
	}
	defer st.Close()

	// Initialize the generation client with its static prompts
	asst := assistant.New(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		cfg.Prompts.SystemPromptFile,
		cfg.Prompts.InstructionsFile,
		logger,
	)

	hist := history.New(st, logger)
	sessions := session.NewMemoryStore()

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, st, hist, asst, sessions, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
