package chat

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func validRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// User ids come from outside: the Telegram sender id or a hashed web session token.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
}

func (User) TableName() string { return "users" }

// Message rows are never updated except for the soft-delete flag.
type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null" json:"user_id"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Length    int       `gorm:"not null" json:"length"`
	CreatedAt time.Time `json:"created_at"`
	IsDeleted bool      `gorm:"not null;default:false" json:"is_deleted"`
}

func (Message) TableName() string { return "messages" }
