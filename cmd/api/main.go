package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dialog-bot/internal/ai"
	"github.com/suPer8Hu/dialog-bot/internal/chat"
	"github.com/suPer8Hu/dialog-bot/internal/config"
	"github.com/suPer8Hu/dialog-bot/internal/db"
	"github.com/suPer8Hu/dialog-bot/internal/httpapi"
	"github.com/suPer8Hu/dialog-bot/internal/httpapi/handlers"
	"github.com/suPer8Hu/dialog-bot/internal/logger"
	"github.com/suPer8Hu/dialog-bot/internal/stats"
	"github.com/suPer8Hu/dialog-bot/internal/store/rabbitmq"
	"github.com/suPer8Hu/dialog-bot/internal/store/redisstore"
	"github.com/suPer8Hu/dialog-bot/internal/texttosql"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateLLM(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.LogFilePath, "api.log")
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
	chatSvc := chat.NewService(repo, chat.NewHistoryBuilder(repo, cfg.SystemPrompt, cfg.MaxContextPairs), provider, lg)

	pipeline := texttosql.NewPipeline(provider, texttosql.NewSQLExecutor(gdb, cfg.SQLBusyTimeout), lg)
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			lg.Fatal("rabbit_init_failed", zap.Error(err))
		}
		defer pub.Close()
		pipeline.WithAudit(pub)
		lg.Info("admin_query_audit_enabled", zap.String("queue", cfg.RabbitQueue))
	}

	var statsSrc stats.Source = stats.NewCollector(gdb)
	if cfg.RedisAddr != "" {
		rds, err := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "dialogbot:")
		if err != nil {
			lg.Fatal("redis_init_failed", zap.Error(err))
		}
		defer rds.Close()
		statsSrc = stats.NewCachedSource(statsSrc, rds, cfg.StatsCacheTTL, lg)
		lg.Info("stats_cache_enabled", zap.Duration("ttl", cfg.StatsCacheTTL))
	}

	if cfg.AdminJWTSecret == "" {
		lg.Warn("admin_mode_unprotected", zap.String("hint", "set ADMIN_JWT_SECRET to require an admin token"))
	}

	gin.SetMode(gin.ReleaseMode)
	h := handlers.NewHandler(chatSvc, pipeline, statsSrc, cfg.AdminJWTSecret, lg)
	r := httpapi.NewRouter(h, cfg.CORSAllowOrigins, lg)

	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		lg.Info("api_listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("api_listen_failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("api_shutdown_failed", zap.Error(err))
	}
	lg.Info("api_stopped")
}
