package texttosql

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrBadAuditRecord = errors.New("bad audit record")

// DecodeAudit parses one queued audit message.
func DecodeAudit(body []byte) (AuditRecord, error) {
	var rec AuditRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return AuditRecord{}, fmt.Errorf("%w: %v", ErrBadAuditRecord, err)
	}
	switch rec.Outcome {
	case OutcomeOK, OutcomeRejected, OutcomeError:
	default:
		return AuditRecord{}, fmt.Errorf("%w: unknown outcome %q", ErrBadAuditRecord, rec.Outcome)
	}
	return rec, nil
}

// LogAudit writes the record as one structured line.
func LogAudit(log *zap.Logger, rec AuditRecord) {
	log.Info("admin_query_audit",
		zap.Int64("user_id", rec.UserID),
		zap.String("outcome", rec.Outcome),
		zap.String("question", rec.Question),
		zap.String("sql", rec.SQL),
		zap.Int("row_count", rec.RowCount),
		zap.Time("at", rec.At),
	)
}
