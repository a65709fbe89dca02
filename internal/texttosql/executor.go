package texttosql

import (
	"context"
	"fmt"
	"time"

	"github.com/suPer8Hu/dialog-bot/internal/db"
	"gorm.io/gorm"
)

// Executor runs an already validated SELECT and returns the rows.
type Executor interface {
	Query(ctx context.Context, sql string) ([]map[string]any, error)
}

type SQLExecutor struct {
	db           *gorm.DB
	busyTimeout  time.Duration
	queryTimeout time.Duration
}

func NewSQLExecutor(gdb *gorm.DB, busyTimeout time.Duration) *SQLExecutor {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	return &SQLExecutor{db: gdb, busyTimeout: busyTimeout, queryTimeout: 30 * time.Second}
}

func (e *SQLExecutor) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	rows := make([]map[string]any, 0)
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if db.IsSQLite(tx) {
			if err := tx.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", e.busyTimeout.Milliseconds())).Error; err != nil {
				return err
			}
		}
		return tx.Raw(sql).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows, nil
}
