package db

import (
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Schema snapshots. Migrations keep their own structs so later model changes do not
// rewrite history.

type userV1 struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"not null"`
	IsDeleted bool      `gorm:"not null;default:false"`
}

func (userV1) TableName() string { return "users" }

type messageV1 struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index:idx_messages_user_deleted_created,priority:1"`
	User      userV1    `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Content   string    `gorm:"type:text;not null"`
	Length    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_user_deleted_created,priority:3"`
	IsDeleted bool      `gorm:"not null;default:false;index:idx_messages_user_deleted_created,priority:2"`
}

func (messageV1) TableName() string { return "messages" }

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202410010001_users_messages",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&userV1{}, &messageV1{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("messages", "users")
			},
		},
	}
}

func GetMigrator(gdb *gorm.DB) *gormigrate.Gormigrate {
	return gormigrate.New(gdb, gormigrate.DefaultOptions, migrations())
}

// Migrate brings the schema up to date. Safe to call on every start.
func Migrate(gdb *gorm.DB) error {
	if err := GetMigrator(gdb).Migrate(); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
