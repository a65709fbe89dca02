package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidRole = errors.New("chat: invalid message role")

// Repo is the message store. Every method runs in its own transaction.
type Repo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureUser inserts the user row if it does not exist yet.
func (r *Repo) EnsureUser(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ensureUser(tx, userID, r.now())
	})
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}

func ensureUser(tx *gorm.DB, userID int64, now time.Time) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&User{ID: userID, CreatedAt: now}).Error
}

// AppendMessage stores one turn, creating the user on first contact.
func (r *Repo) AppendMessage(ctx context.Context, userID int64, role, content string) (*Message, error) {
	if !validRole(role) {
		return nil, ErrInvalidRole
	}

	now := r.now()
	m := &Message{
		UserID:    userID,
		Role:      role,
		Content:   content,
		Length:    utf8.RuneCountInString(content),
		CreatedAt: now,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID, now); err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append message for user %d: %w", userID, err)
	}
	return m, nil
}

// ListActiveMessages returns non-deleted messages oldest first.
func (r *Repo) ListActiveMessages(ctx context.Context, userID int64) ([]Message, error) {
	msgs := make([]Message, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("user_id = ? AND is_deleted = ?", userID, false).
			Order("created_at ASC").
			Order("id ASC").
			Find(&msgs).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list messages for user %d: %w", userID, err)
	}
	return msgs, nil
}

// SoftDeleteAll flags every active message of the user. Calling it again changes nothing.
func (r *Repo) SoftDeleteAll(ctx context.Context, userID int64) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Message{}).
			Where("user_id = ? AND is_deleted = ?", userID, false).
			Update("is_deleted", true)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("soft delete messages for user %d: %w", userID, err)
	}
	return affected, nil
}
