package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider sends a full conversation and returns the assistant reply text.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
