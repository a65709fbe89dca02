package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/suPer8Hu/dialog-bot/internal/chat"
	"gorm.io/gorm"
)

const (
	recentDialogsLimit = 10
	topUsersLimit      = 5
	previewMaxRunes    = 100
)

// Source is anything that can produce a stats response for a period.
type Source interface {
	Get(ctx context.Context, period string) (*Response, error)
}

// Collector computes dashboard statistics from the message store.
type Collector struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCollector(db *gorm.DB) *Collector {
	return &Collector{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type userAggregate struct {
	UserID       int64
	MessageCount int
	FirstID      int64
	LastID       int64
}

func (c *Collector) Get(ctx context.Context, period string) (*Response, error) {
	if !ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}
	now := c.now().UTC()
	start := periodStart(now, period)

	resp := &Response{Period: period}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inPeriod, err := aggregateUsers(tx.Where("created_at >= ?", start))
		if err != nil {
			return err
		}
		resp.Overall = overall(inPeriod)

		if resp.ActivityData, err = activity(tx, now, start, period); err != nil {
			return err
		}
		if resp.TopUsers, err = topUsers(tx, inPeriod); err != nil {
			return err
		}
		resp.RecentDialogs, err = recentDialogs(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("collect stats for %s: %w", period, err)
	}
	return resp, nil
}

// aggregateUsers groups active messages per user. Ids grow with created_at, so
// MIN(id)/MAX(id) point at the first and last message of each user.
func aggregateUsers(q *gorm.DB) ([]userAggregate, error) {
	var rows []userAggregate
	err := q.Model(&chat.Message{}).
		Select("user_id, COUNT(*) AS message_count, MIN(id) AS first_id, MAX(id) AS last_id").
		Where("is_deleted = ?", false).
		Group("user_id").
		Scan(&rows).Error
	return rows, err
}

func overall(users []userAggregate) Overall {
	if len(users) == 0 {
		return Overall{}
	}
	total := 0
	for _, u := range users {
		total += u.MessageCount
	}
	avg := float64(total) / float64(len(users))
	return Overall{
		TotalDialogs:    len(users),
		ActiveUsers:     len(users),
		AvgDialogLength: math.Round(avg*10) / 10,
	}
}

func activity(tx *gorm.DB, now, start time.Time, period string) ([]ActivityPoint, error) {
	var stamps []time.Time
	if err := tx.Model(&chat.Message{}).
		Where("created_at >= ? AND is_deleted = ?", start, false).
		Pluck("created_at", &stamps).Error; err != nil {
		return nil, err
	}

	switch period {
	case PeriodDay:
		return hourlyPoints(now, stamps), nil
	case PeriodWeek:
		return dailyPoints(now, stamps, 7), nil
	default:
		return dailyPoints(now, stamps, 30), nil
	}
}

// hourlyPoints returns 24 buckets ending with the current hour.
func hourlyPoints(now time.Time, stamps []time.Time) []ActivityPoint {
	counts := make(map[int64]int, len(stamps))
	for _, ts := range stamps {
		counts[ts.Truncate(time.Hour).Unix()]++
	}

	points := make([]ActivityPoint, 0, 24)
	for h := 0; h < 24; h++ {
		bucket := now.Add(-time.Duration(23-h) * time.Hour).Truncate(time.Hour)
		points = append(points, ActivityPoint{Timestamp: formatTime(bucket), MessageCount: counts[bucket.Unix()]})
	}
	return points
}

// dailyPoints returns one bucket per calendar day, stamped at 12:00 UTC.
func dailyPoints(now time.Time, stamps []time.Time, days int) []ActivityPoint {
	counts := make(map[string]int, days)
	for _, ts := range stamps {
		counts[ts.UTC().Format(time.DateOnly)]++
	}

	points := make([]ActivityPoint, 0, days)
	for d := 0; d < days; d++ {
		day := now.AddDate(0, 0, -(days - 1 - d))
		noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
		points = append(points, ActivityPoint{Timestamp: formatTime(noon), MessageCount: counts[day.Format(time.DateOnly)]})
	}
	return points
}

func topUsers(tx *gorm.DB, users []userAggregate) ([]UserActivity, error) {
	sorted := append([]userAggregate(nil), users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MessageCount != sorted[j].MessageCount {
			return sorted[i].MessageCount > sorted[j].MessageCount
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	if len(sorted) > topUsersLimit {
		sorted = sorted[:topUsersLimit]
	}

	ids := make([]int64, 0, len(sorted))
	for _, u := range sorted {
		ids = append(ids, u.LastID)
	}
	byID, err := messagesByID(tx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]UserActivity, 0, len(sorted))
	for _, u := range sorted {
		out = append(out, UserActivity{
			UserID:       u.UserID,
			MessageCount: u.MessageCount,
			LastActive:   formatTime(byID[u.LastID].CreatedAt),
		})
	}
	return out, nil
}

func recentDialogs(tx *gorm.DB) ([]DialogPreview, error) {
	var users []userAggregate
	if err := tx.Model(&chat.Message{}).
		Select("user_id, COUNT(*) AS message_count, MIN(id) AS first_id, MAX(id) AS last_id").
		Where("is_deleted = ?", false).
		Group("user_id").
		Order("MAX(created_at) DESC").
		Order("last_id DESC").
		Limit(recentDialogsLimit).
		Scan(&users).Error; err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(users)*2)
	for _, u := range users {
		ids = append(ids, u.FirstID, u.LastID)
	}
	byID, err := messagesByID(tx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]DialogPreview, 0, len(users))
	for _, u := range users {
		out = append(out, DialogPreview{
			UserID:       u.UserID,
			LastMessage:  Preview(byID[u.LastID].Content),
			CreatedAt:    formatTime(byID[u.FirstID].CreatedAt),
			MessageCount: u.MessageCount,
		})
	}
	return out, nil
}

func messagesByID(tx *gorm.DB, ids []int64) (map[int64]chat.Message, error) {
	out := make(map[int64]chat.Message, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var msgs []chat.Message
	if err := tx.Where("id IN ?", ids).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.ID] = m
	}
	return out, nil
}

// Preview cuts text longer than 100 characters to 97 plus "...".
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= previewMaxRunes {
		return s
	}
	return string(r[:previewMaxRunes-3]) + "..."
}
