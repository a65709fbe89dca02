package texttosql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSafe(t *testing.T) {
	cases := []struct {
		sql  string
		safe bool
	}{
		{"SELECT * FROM messages", true},
		{"select * from messages; DROP TABLE users", false},
		{"UPDATE users SET is_deleted=1", false},
		{"  SeLeCt id FROM users  ", true},
		{"SELECT\n\tcount(*)\nFROM messages\nWHERE is_deleted = 0", true},
		{"SELECT user_id, created_at FROM messages ORDER BY created_at DESC", true},
		{"SELECT * FROM messages WHERE content = 'DELETED'", false},
		{"SELECT * FROM users WHERE updated = 1", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"", false},
		{"PRAGMA table_info(users)", false},
		{"SELECT 1; ATTACH DATABASE 'x.db' AS x", false},
		{"SELECT replace(content, 'a', 'b') FROM messages", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.safe, IsSafe(tc.sql), tc.sql)
	}
}

func TestCheck_Errors(t *testing.T) {
	err := Check("DELETE FROM messages")
	assert.True(t, errors.Is(err, ErrNotSelect))

	err = Check("SELECT 1; DROP TABLE users")
	var kw *ForbiddenKeywordError
	require.True(t, errors.As(err, &kw))
	assert.Equal(t, "DROP", kw.Keyword)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "SELECT ID FROM USERS", Normalize("  select\n id \t from   users "))
}
