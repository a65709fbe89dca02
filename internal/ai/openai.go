package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// OpenAIProvider talks to any OpenAI compatible chat completions endpoint (OpenAI, OpenRouter, vLLM...).
type OpenAIProvider struct {
	client openai.Client
	model  string
	log    *zap.Logger
}

type OpenAIOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

func NewOpenAIProvider(o OpenAIOptions, log *zap.Logger) (*OpenAIProvider, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	model := strings.TrimSpace(o.Model)
	if model == "" {
		return nil, errors.New("openai: model is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := o.HTTPClient
	if httpClient == nil {
		timeout := o.Timeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(o.MaxRetries),
	}
	if o.BaseURL != "" {
		// the client resolves paths relative to the base, so it needs the trailing slash
		opts = append(opts, option.WithBaseURL(strings.TrimRight(o.BaseURL, "/")+"/"))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		log:    log,
	}, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: toOpenAIMessages(messages),
	}

	p.log.Debug("llm_request", zap.String("model", p.model), zap.Int("messages", len(messages)))
	start := time.Now()

	res, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		p.log.Error("llm_request_failed", zap.String("model", p.model), zap.Error(err))
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}

	content := res.Choices[0].Message.Content
	p.log.Debug("llm_response",
		zap.String("model", p.model),
		zap.Int("chars", len(content)),
		zap.Duration("took", time.Since(start)),
	)
	return content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
