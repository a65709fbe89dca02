package texttosql

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const maxSummaryRows = 20

const generatePrompt = `You are a SQL expert. Generate a SQL query for SQLite database.

Database Schema:
- users (id INTEGER PRIMARY KEY, created_at TEXT, is_deleted INTEGER)
- messages (id INTEGER PRIMARY KEY, user_id INTEGER, role TEXT, content TEXT, length INTEGER, created_at TEXT, is_deleted INTEGER)

Important rules:
- Only generate SELECT queries
- Do NOT use DROP, DELETE, UPDATE, INSERT, ALTER commands
- Use WHERE is_deleted = 0 to filter active records
- created_at is UTC text in the form YYYY-MM-DD HH:MM:SS.fff+00:00 (space separator, no T); compare with date(created_at) or strftime() when filtering by day
- Return ONLY the SQL query, no explanations or markdown

User question: %s

SQL query:`

const summarizePrompt = `Format the SQL query results into a clear, human-readable response.

User question: %s
SQL query: %s
Query results: %s

Provide a concise answer, in the language of the user question, that directly answers it.`

func buildGeneratePrompt(question string) string {
	return fmt.Sprintf(generatePrompt, question)
}

func buildSummarizePrompt(question, sql string, rows []map[string]any) string {
	return fmt.Sprintf(summarizePrompt, question, sql, formatRows(rows))
}

// formatRows renders at most maxSummaryRows rows as JSON lines and notes how many were left out.
func formatRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "[]"
	}

	shown := rows
	if len(shown) > maxSummaryRows {
		shown = shown[:maxSummaryRows]
	}

	var b strings.Builder
	for i, row := range shown {
		if i > 0 {
			b.WriteByte('\n')
		}
		line, err := json.Marshal(row)
		if err != nil {
			line = []byte(fmt.Sprint(row))
		}
		b.Write(line)
	}
	if len(rows) > maxSummaryRows {
		fmt.Fprintf(&b, "\n... (shown %d of %d rows, %d omitted)", maxSummaryRows, len(rows), len(rows)-maxSummaryRows)
	}
	return b.String()
}

var (
	sqlFenceOpen  = regexp.MustCompile("```sql\\n?")
	sqlFenceClose = regexp.MustCompile("```\\n?")
)

// StripCodeFence removes markdown code fences around a model reply.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = sqlFenceOpen.ReplaceAllString(s, "")
	s = sqlFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
