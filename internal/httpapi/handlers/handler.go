package handlers

import (
	"context"

	"github.com/suPer8Hu/dialog-bot/internal/stats"
	"github.com/suPer8Hu/dialog-bot/internal/texttosql"
	"go.uber.org/zap"
)

// ChatService is the normal-mode dialog. Implemented by chat.Service.
type ChatService interface {
	Reply(ctx context.Context, userID int64, text string) (string, error)
	Clear(ctx context.Context, userID int64) error
}

// AdminQuerier answers admin-mode questions. Implemented by texttosql.Pipeline.
type AdminQuerier interface {
	Process(ctx context.Context, userID int64, question string) texttosql.Result
}

type Handler struct {
	Chat        ChatService
	Admin       AdminQuerier
	Stats       stats.Source
	AdminSecret string
	Log         *zap.Logger
}

func NewHandler(chatSvc ChatService, admin AdminQuerier, src stats.Source, adminSecret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Chat: chatSvc, Admin: admin, Stats: src, AdminSecret: adminSecret, Log: log}
}
