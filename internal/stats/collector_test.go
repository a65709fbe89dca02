package stats

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/dialog-bot/internal/chat"
	"github.com/suPer8Hu/dialog-bot/internal/db"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := db.Connect(db.DriverSQLite, dsn, nil)
	require.NoError(t, err)
	return gdb
}

// seed inserts a message directly so tests control created_at.
func seed(t *testing.T, gdb *gorm.DB, userID int64, content string, at time.Time, deleted bool) {
	t.Helper()
	require.NoError(t, gdb.Exec("INSERT INTO users (id, created_at, is_deleted) VALUES (?, ?, ?) ON CONFLICT DO NOTHING", userID, at, false).Error)
	require.NoError(t, gdb.Create(&chat.Message{
		UserID:    userID,
		Role:      chat.RoleUser,
		Content:   content,
		Length:    len([]rune(content)),
		CreatedAt: at,
		IsDeleted: deleted,
	}).Error)
}

func newCollector(gdb *gorm.DB) *Collector {
	c := NewCollector(gdb)
	c.now = func() time.Time { return testNow }
	return c
}

func TestGet_InvalidPeriod(t *testing.T) {
	_, err := newCollector(openTestDB(t)).Get(context.Background(), "year")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGet_EmptyDayHas24ZeroPoints(t *testing.T) {
	resp, err := newCollector(openTestDB(t)).Get(context.Background(), PeriodDay)
	require.NoError(t, err)

	require.Len(t, resp.ActivityData, 24)
	for _, p := range resp.ActivityData {
		assert.Zero(t, p.MessageCount)
	}
	assert.Equal(t, "2024-06-14T15:00:00Z", resp.ActivityData[0].Timestamp)
	assert.Equal(t, "2024-06-15T14:00:00Z", resp.ActivityData[23].Timestamp)
	assert.Equal(t, Overall{}, resp.Overall)
	assert.Empty(t, resp.RecentDialogs)
	assert.Empty(t, resp.TopUsers)
	assert.Equal(t, PeriodDay, resp.Period)
}

func TestGet_DayBucketsAndOverall(t *testing.T) {
	gdb := openTestDB(t)
	seed(t, gdb, 3, "old", testNow.Add(-48*time.Hour), false)
	seed(t, gdb, 2, "c", testNow.Add(-3*time.Hour), false)
	seed(t, gdb, 2, "gone", testNow.Add(-3*time.Hour), true)
	seed(t, gdb, 1, "a", testNow.Add(-10*time.Minute), false)
	seed(t, gdb, 1, "b", testNow.Add(-5*time.Minute), false)

	resp, err := newCollector(gdb).Get(context.Background(), PeriodDay)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Overall.TotalDialogs)
	assert.Equal(t, 2, resp.Overall.ActiveUsers)
	assert.Equal(t, 1.5, resp.Overall.AvgDialogLength)

	require.Len(t, resp.ActivityData, 24)
	assert.Equal(t, 2, resp.ActivityData[23].MessageCount)
	assert.Equal(t, "2024-06-15T11:00:00Z", resp.ActivityData[20].Timestamp)
	assert.Equal(t, 1, resp.ActivityData[20].MessageCount)

	require.Len(t, resp.TopUsers, 2)
	assert.Equal(t, int64(1), resp.TopUsers[0].UserID)
	assert.Equal(t, 2, resp.TopUsers[0].MessageCount)
	assert.Equal(t, "2024-06-15T14:25:00Z", resp.TopUsers[0].LastActive)

	// recent dialogs ignore the period but not the deletion flag
	require.Len(t, resp.RecentDialogs, 3)
	assert.Equal(t, int64(1), resp.RecentDialogs[0].UserID)
	assert.Equal(t, "b", resp.RecentDialogs[0].LastMessage)
	assert.Equal(t, "2024-06-15T14:20:00Z", resp.RecentDialogs[0].CreatedAt)
	assert.Equal(t, int64(2), resp.RecentDialogs[1].UserID)
	assert.Equal(t, 1, resp.RecentDialogs[1].MessageCount)
	assert.Equal(t, int64(3), resp.RecentDialogs[2].UserID)
}

func TestGet_WeekAndMonthPoints(t *testing.T) {
	gdb := openTestDB(t)
	seed(t, gdb, 1, "x", testNow.AddDate(0, 0, -2), false)
	seed(t, gdb, 1, "y", testNow.AddDate(0, 0, -2).Add(time.Hour), false)

	week, err := newCollector(gdb).Get(context.Background(), PeriodWeek)
	require.NoError(t, err)
	require.Len(t, week.ActivityData, 7)
	assert.Equal(t, "2024-06-09T12:00:00Z", week.ActivityData[0].Timestamp)
	assert.Equal(t, "2024-06-15T12:00:00Z", week.ActivityData[6].Timestamp)
	assert.Equal(t, 2, week.ActivityData[4].MessageCount)

	month, err := newCollector(gdb).Get(context.Background(), PeriodMonth)
	require.NoError(t, err)
	require.Len(t, month.ActivityData, 30)
	assert.Equal(t, "2024-05-17T12:00:00Z", month.ActivityData[0].Timestamp)
	assert.Equal(t, 1, month.Overall.TotalDialogs)
	assert.Equal(t, 2.0, month.Overall.AvgDialogLength)
}

func TestGet_TopUsersLimitAndRounding(t *testing.T) {
	gdb := openTestDB(t)
	at := testNow.Add(-time.Hour)
	// users 1..7 with 1..7 messages
	for u := int64(1); u <= 7; u++ {
		for i := int64(0); i < u; i++ {
			seed(t, gdb, u, "m", at.Add(time.Duration(u*10+i)*time.Second), false)
		}
	}
	// 28 messages / 7 users = 4.0; add one to get 29/7 = 4.142... -> 4.1
	seed(t, gdb, 1, "extra", at.Add(5*time.Minute), false)

	resp, err := newCollector(gdb).Get(context.Background(), PeriodDay)
	require.NoError(t, err)

	assert.Equal(t, 4.1, resp.Overall.AvgDialogLength)
	require.Len(t, resp.TopUsers, 5)
	assert.Equal(t, int64(7), resp.TopUsers[0].UserID)
	assert.Equal(t, int64(3), resp.TopUsers[4].UserID)
	assert.Len(t, resp.RecentDialogs, 7)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	exact := strings.Repeat("я", 100)
	assert.Equal(t, exact, Preview(exact))

	long := strings.Repeat("я", 101)
	got := Preview(long)
	assert.Equal(t, 100, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}
