package stats

import (
	"errors"
	"time"
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

var ErrInvalidPeriod = errors.New("invalid period: must be one of day, week, month")

// TimeLayout is the ISO-8601 UTC form used by every timestamp in the response.
const TimeLayout = "2006-01-02T15:04:05Z"

type Overall struct {
	TotalDialogs    int     `json:"total_dialogs"`
	ActiveUsers     int     `json:"active_users"`
	AvgDialogLength float64 `json:"avg_dialog_length"`
}

type ActivityPoint struct {
	Timestamp    string `json:"timestamp"`
	MessageCount int    `json:"message_count"`
}

type DialogPreview struct {
	UserID       int64  `json:"user_id"`
	LastMessage  string `json:"last_message"`
	CreatedAt    string `json:"created_at"`
	MessageCount int    `json:"message_count"`
}

type UserActivity struct {
	UserID       int64  `json:"user_id"`
	MessageCount int    `json:"message_count"`
	LastActive   string `json:"last_active"`
}

type Response struct {
	Overall       Overall         `json:"overall"`
	ActivityData  []ActivityPoint `json:"activity_data"`
	RecentDialogs []DialogPreview `json:"recent_dialogs"`
	TopUsers      []UserActivity  `json:"top_users"`
	Period        string          `json:"period"`
}

func ValidPeriod(p string) bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

func periodStart(now time.Time, period string) time.Time {
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, 0, -30)
	default:
		return now.Add(-24 * time.Hour)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
