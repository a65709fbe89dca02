package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type OllamaProvider struct {
	Model  string
	client *resty.Client
}

type ollamaChatReq struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResp struct {
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OllamaProvider{
		Model: model,
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	var decoded ollamaChatResp
	res, err := p.client.R().
		SetContext(ctx).
		SetBody(ollamaChatReq{Model: p.Model, Messages: messages, Stream: false}).
		SetResult(&decoded).
		SetError(&decoded).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if decoded.Error != "" {
		return "", errors.New("ollama: " + decoded.Error)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("ollama: status %d", res.StatusCode())
	}
	return decoded.Message.Content, nil
}
