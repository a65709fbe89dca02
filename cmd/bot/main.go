package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/dialog-bot/internal/ai"
	"github.com/suPer8Hu/dialog-bot/internal/chat"
	"github.com/suPer8Hu/dialog-bot/internal/config"
	"github.com/suPer8Hu/dialog-bot/internal/db"
	"github.com/suPer8Hu/dialog-bot/internal/logger"
	"github.com/suPer8Hu/dialog-bot/internal/telegram"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateTelegram(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateLLM(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFilePath, "bot.log")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	gdb, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, lg)
	if err != nil {
		lg.Fatal("database_init_failed", zap.Error(err))
	}

	reg := ai.NewDefaultRegistry(ai.RegistryOptions{
		OpenAI: ai.OpenAIOptions{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			MaxRetries: cfg.LLMMaxRetries,
		},
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
		Timeout:       cfg.LLMTimeout,
	}, lg)
	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		lg.Fatal("llm_init_failed", zap.Error(err))
	}

	repo := chat.NewRepo(gdb)
	svc := chat.NewService(repo, chat.NewHistoryBuilder(repo, cfg.SystemPrompt, cfg.MaxContextPairs), provider, lg)

	tg := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramBotToken, time.Duration(cfg.TelegramPollTimeout+10)*time.Second)
	bot := telegram.NewBot(svc, tg, cfg.BotRoleName, cfg.BotRoleDescription, lg)
	poller := telegram.NewPoller(tg, bot, cfg.BotWorkers, cfg.TelegramPollTimeout, cfg.BotRetryDelay, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("bot_starting",
		zap.String("provider", cfg.AIProvider),
		zap.Int("max_context_pairs", cfg.MaxContextPairs),
		zap.Int("workers", cfg.BotWorkers),
	)
	if err := poller.Run(ctx); err != nil {
		lg.Error("bot_stopped_with_error", zap.Error(err))
	}
	lg.Info("bot_stopped")
}
