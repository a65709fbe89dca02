package chat

import (
	"context"
	"fmt"

	"github.com/suPer8Hu/dialog-bot/internal/ai"
	"go.uber.org/zap"
)

type Service struct {
	repo     *Repo
	history  *HistoryBuilder
	provider ai.Provider
	log      *zap.Logger
}

func NewService(repo *Repo, history *HistoryBuilder, provider ai.Provider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, history: history, provider: provider, log: log.With(zap.String("component", "chat"))}
}

// Reply runs one dialog turn: store the user text, build the context window,
// ask the model and store its answer.
func (s *Service) Reply(ctx context.Context, userID int64, text string) (string, error) {
	log := s.log.With(zap.Int64("user_id", userID))
	log.Info("message_received", zap.Int("length", len([]rune(text))))

	// 1) store user message
	if _, err := s.repo.AppendMessage(ctx, userID, RoleUser, text); err != nil {
		log.Error("store_user_message_failed", zap.String("op", "append_message"), zap.Error(err))
		return "", err
	}

	// 2) context window from the store
	msgs, err := s.history.Build(ctx, userID)
	if err != nil {
		log.Error("build_history_failed", zap.String("op", "build_history"), zap.Error(err))
		return "", err
	}

	// 3) call provider
	log.Debug("llm_request", zap.Int("messages", len(msgs)))
	reply, err := s.provider.Chat(ctx, msgs)
	if err != nil {
		log.Error("llm_request_failed", zap.String("op", "llm_chat"), zap.Error(err))
		return "", fmt.Errorf("llm chat: %w", err)
	}
	log.Debug("llm_response", zap.Int("length", len([]rune(reply))))

	// 4) store assistant message
	if _, err := s.repo.AppendMessage(ctx, userID, RoleAssistant, reply); err != nil {
		log.Error("store_assistant_message_failed", zap.String("op", "append_message"), zap.Error(err))
		return "", err
	}
	return reply, nil
}

// Clear soft-deletes the whole history of the user.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	n, err := s.repo.SoftDeleteAll(ctx, userID)
	if err != nil {
		s.log.Error("chat_clear_failed", zap.Int64("user_id", userID), zap.String("op", "soft_delete_all"), zap.Error(err))
		return err
	}
	s.log.Info("chat_cleared", zap.Int64("user_id", userID), zap.Int64("messages", n))
	return nil
}
