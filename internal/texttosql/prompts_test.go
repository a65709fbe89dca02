package texttosql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "SELECT 1", StripCodeFence("```sql\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", StripCodeFence("```\nSELECT 1\n```\n"))
	assert.Equal(t, "SELECT 1", StripCodeFence("  SELECT 1  "))
}

func TestBuildGeneratePrompt(t *testing.T) {
	p := buildGeneratePrompt("how many users?")
	assert.Contains(t, p, "messages (id INTEGER PRIMARY KEY, user_id INTEGER")
	assert.Contains(t, p, "Only generate SELECT queries")
	assert.Contains(t, p, "YYYY-MM-DD HH:MM:SS.fff+00:00")
	assert.True(t, strings.HasSuffix(p, "User question: how many users?\n\nSQL query:"))
}

func TestFormatRows_LimitsAndNotes(t *testing.T) {
	rows := make([]map[string]any, 25)
	for i := range rows {
		rows[i] = map[string]any{"id": i}
	}

	out := formatRows(rows)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 21)
	assert.Equal(t, `{"id":0}`, lines[0])
	assert.Equal(t, `{"id":19}`, lines[19])
	assert.Equal(t, "... (shown 20 of 25 rows, 5 omitted)", lines[20])
}

func TestFormatRows_Small(t *testing.T) {
	assert.Equal(t, "[]", formatRows(nil))

	out := formatRows([]map[string]any{{"n": 3}})
	assert.Equal(t, `{"n":3}`, out)
	assert.NotContains(t, out, "omitted")
	assert.Contains(t, buildSummarizePrompt("q", "SELECT 1", nil), fmt.Sprintf("Query results: %s", "[]"))
}
