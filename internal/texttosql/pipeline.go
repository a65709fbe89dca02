package texttosql

import (
	"context"
	"errors"
	"time"

	"github.com/suPer8Hu/dialog-bot/internal/ai"
	"go.uber.org/zap"
)

const (
	MessageRejected = "Could not execute the query: the generated SQL did not pass the safety check."
	MessageFailed   = "An error occurred while processing the query. Please try again later."
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Result is the answer for the caller. SQL is set only when the whole pipeline succeeded.
type Result struct {
	Message string
	SQL     *string
}

// AuditRecord describes one admin query. It is what gets published to the audit queue.
type AuditRecord struct {
	Question string    `json:"question"`
	SQL      string    `json:"sql,omitempty"`
	Outcome  string    `json:"outcome"`
	RowCount int       `json:"row_count"`
	UserID   int64     `json:"user_id"`
	At       time.Time `json:"at"`
}

type AuditPublisher interface {
	Publish(ctx context.Context, v any) error
}

type Pipeline struct {
	llm   ai.Provider
	exec  Executor
	audit AuditPublisher
	log   *zap.Logger
}

func NewPipeline(llm ai.Provider, exec Executor, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{llm: llm, exec: exec, log: log.With(zap.String("component", "texttosql"))}
}

// WithAudit publishes every outcome. Publish failures are logged and never change the Result.
func (p *Pipeline) WithAudit(a AuditPublisher) *Pipeline {
	p.audit = a
	return p
}

// Process answers a natural language question about the stored dialogs.
// It never returns an error: failures become a generic message without SQL.
func (p *Pipeline) Process(ctx context.Context, userID int64, question string) Result {
	log := p.log.With(zap.Int64("user_id", userID))
	log.Info("text_to_sql_request", zap.String("question", question))
	rec := AuditRecord{Question: question, UserID: userID, At: time.Now().UTC()}

	// 1) generate
	sql, err := p.generate(ctx, question)
	if err != nil {
		log.Error("text_to_sql_error", zap.String("op", "generate"), zap.Error(err))
		return p.finish(ctx, rec, OutcomeError, Result{Message: MessageFailed})
	}
	rec.SQL = sql
	log.Info("sql_generated", zap.String("sql", sql))

	// 2) validate
	if err := Check(sql); err != nil {
		fields := []zap.Field{zap.String("sql", sql), zap.Error(err)}
		var kw *ForbiddenKeywordError
		if errors.As(err, &kw) {
			fields = append(fields, zap.String("forbidden_keyword", kw.Keyword))
		}
		log.Warn("unsafe_sql_detected", fields...)
		return p.finish(ctx, rec, OutcomeRejected, Result{Message: MessageRejected})
	}

	// 3) execute
	rows, err := p.exec.Query(ctx, sql)
	if err != nil {
		log.Error("text_to_sql_error", zap.String("op", "execute"), zap.String("sql", sql), zap.Error(err))
		return p.finish(ctx, rec, OutcomeError, Result{Message: MessageFailed})
	}
	rec.RowCount = len(rows)
	log.Info("sql_executed", zap.String("sql", sql), zap.Int("row_count", len(rows)))

	// 4) summarize
	answer, err := p.llm.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: buildSummarizePrompt(question, sql, rows)}})
	if err != nil {
		log.Error("text_to_sql_error", zap.String("op", "summarize"), zap.String("sql", sql), zap.Error(err))
		return p.finish(ctx, rec, OutcomeError, Result{Message: MessageFailed})
	}

	log.Info("text_to_sql_response", zap.String("sql", sql), zap.Int("row_count", len(rows)))
	return p.finish(ctx, rec, OutcomeOK, Result{Message: answer, SQL: &sql})
}

func (p *Pipeline) generate(ctx context.Context, question string) (string, error) {
	reply, err := p.llm.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: buildGeneratePrompt(question)}})
	if err != nil {
		return "", err
	}
	return StripCodeFence(reply), nil
}

func (p *Pipeline) finish(ctx context.Context, rec AuditRecord, outcome string, res Result) Result {
	if p.audit == nil {
		return res
	}
	rec.Outcome = outcome
	if err := p.audit.Publish(ctx, rec); err != nil {
		p.log.Warn("audit_publish_failed", zap.Int64("user_id", rec.UserID), zap.Error(err))
	}
	return res
}
