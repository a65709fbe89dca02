package chat

import (
	"context"

	"github.com/suPer8Hu/dialog-bot/internal/ai"
)

// HistoryBuilder assembles the conversation sent to the model.
type HistoryBuilder struct {
	repo         *Repo
	systemPrompt string
	maxPairs     int
}

// NewHistoryBuilder: maxPairs <= 0 keeps the whole history.
func NewHistoryBuilder(repo *Repo, systemPrompt string, maxPairs int) *HistoryBuilder {
	return &HistoryBuilder{repo: repo, systemPrompt: systemPrompt, maxPairs: maxPairs}
}

// Build returns the system entry followed by the user's active messages, trimmed.
func (b *HistoryBuilder) Build(ctx context.Context, userID int64) ([]ai.Message, error) {
	stored, err := b.repo.ListActiveMessages(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ai.Message, 0, len(stored)+1)
	out = append(out, ai.Message{Role: ai.RoleSystem, Content: b.systemPrompt})
	for _, m := range stored {
		out = append(out, ai.Message{Role: m.Role, Content: m.Content})
	}
	return TrimHistory(out, b.maxPairs), nil
}

// TrimHistory keeps history[0] (the system entry) and the last maxPairs*2 entries after it.
// It never modifies its input.
func TrimHistory(history []ai.Message, maxPairs int) []ai.Message {
	if maxPairs <= 0 || len(history) <= 1 {
		return history
	}
	conv := history[1:]
	if maxPairs >= len(conv) {
		return history
	}
	keep := maxPairs * 2
	if len(conv) <= 1 || len(conv) <= keep {
		return history
	}

	out := make([]ai.Message, 0, keep+1)
	out = append(out, history[0])
	return append(out, conv[len(conv)-keep:]...)
}
