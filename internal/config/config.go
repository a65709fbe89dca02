package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram
	TelegramBotToken    string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIBase     string        `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
	TelegramPollTimeout int           `env:"TG_POLL_TIMEOUT" envDefault:"30"`
	BotWorkers          int           `env:"BOT_WORKERS" envDefault:"4"`
	BotRoleName         string        `env:"BOT_ROLE_NAME" envDefault:"LLM assistant"`
	BotRoleDescription  string        `env:"BOT_ROLE_DESCRIPTION" envDefault:"I answer your questions and remember the conversation until you send /clear."`
	BotRetryDelay       time.Duration `env:"TG_RETRY_DELAY" envDefault:"3s"`

	// AI provider
	AIProvider       string        `env:"AI_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"openai/gpt-4"`
	OllamaBaseURL    string        `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel      string        `env:"OLLAMA_MODEL" envDefault:"llama3:latest"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"90s"`
	LLMMaxRetries    int           `env:"LLM_MAX_RETRIES" envDefault:"2"`
	SystemPrompt     string        `env:"SYSTEM_PROMPT"`
	SystemPromptFile string        `env:"SYSTEM_PROMPT_FILE"`

	// Dialog context, in user+assistant pairs. 0 keeps the whole history.
	MaxContextPairs int `env:"MAX_CONTEXT_MESSAGES" envDefault:"0"`

	// Logging
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/"`

	// Database
	DBDriver       string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string        `env:"DATABASE_URL" envDefault:"./telegram_bot.db"`
	SQLBusyTimeout time.Duration `env:"SQL_BUSY_TIMEOUT" envDefault:"5s"`

	// HTTP API
	APIPort          string        `env:"API_PORT" envDefault:"8000"`
	CORSAllowOrigins []string      `env:"CORS_ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
	AdminJWTSecret   string        `env:"ADMIN_JWT_SECRET"`
	AdminTokenTTL    time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"24h"`

	// redis stats cache, disabled when RedisAddr is empty
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	// rabbitMQ admin query audit, disabled when RabbitURL is empty
	RabbitURL         string `env:"RABBIT_URL"`
	RabbitQueue       string `env:"RABBIT_QUEUE" envDefault:"admin_query_audit"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY" envDefault:"2"`
}

// Error is returned for any configuration problem. The process must not start on it.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, &Error{Err: err}
	}
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.DatabaseURL = NormalizeDatabaseURL(cfg.DatabaseURL)

	switch cfg.DBDriver {
	case "sqlite", "mysql":
	default:
		return Config{}, &Error{Key: "DB_DRIVER", Err: fmt.Errorf("unsupported driver %q", cfg.DBDriver)}
	}
	return cfg, nil
}

// ValidateLLM checks the settings needed by every process that talks to the model,
// and resolves the system prompt from SYSTEM_PROMPT_FILE when it is set.
func (c *Config) ValidateLLM() error {
	switch c.AIProvider {
	case "openai":
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return &Error{Key: "OPENAI_API_KEY", Err: fmt.Errorf("required when AI_PROVIDER=openai")}
		}
	case "ollama":
	default:
		return &Error{Key: "AI_PROVIDER", Err: fmt.Errorf("unsupported provider %q", c.AIProvider)}
	}

	if c.SystemPromptFile != "" {
		b, err := os.ReadFile(c.SystemPromptFile)
		if err != nil {
			return &Error{Key: "SYSTEM_PROMPT_FILE", Err: err}
		}
		c.SystemPrompt = strings.TrimSpace(string(b))
	}
	if c.SystemPrompt == "" {
		return &Error{Key: "SYSTEM_PROMPT", Err: fmt.Errorf("required (literal or via SYSTEM_PROMPT_FILE)")}
	}
	return nil
}

func (c *Config) ValidateTelegram() error {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return &Error{Key: "TELEGRAM_BOT_TOKEN", Err: fmt.Errorf("required")}
	}
	if c.BotWorkers <= 0 {
		c.BotWorkers = 1
	}
	if c.BotWorkers > 50 {
		c.BotWorkers = 50
	}
	return nil
}

func (c *Config) ValidateAdminToken() error {
	if c.AdminJWTSecret == "" {
		return &Error{Key: "ADMIN_JWT_SECRET", Err: fmt.Errorf("required")}
	}
	return nil
}

// NormalizeDatabaseURL accepts the legacy SQLAlchemy style "sqlite+aiosqlite:///path" form.
func NormalizeDatabaseURL(u string) string {
	for _, prefix := range []string{"sqlite+aiosqlite:///", "sqlite:///"} {
		if strings.HasPrefix(u, prefix) {
			return strings.TrimPrefix(u, prefix)
		}
	}
	return u
}
