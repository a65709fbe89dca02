package texttosql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrNotSelect = errors.New("texttosql: only SELECT statements are allowed")

// ForbiddenKeywordError names the denylisted keyword found in the statement.
type ForbiddenKeywordError struct {
	Keyword string
}

func (e *ForbiddenKeywordError) Error() string {
	return fmt.Sprintf("texttosql: forbidden keyword %s", e.Keyword)
}

var forbiddenKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "CREATE",
	"TRUNCATE", "REPLACE", "PRAGMA", "ATTACH", "DETACH",
}

var (
	whitespace = regexp.MustCompile(`\s+`)

	// Column names of our own schema that embed denylisted words.
	allowedIdentifiers = regexp.MustCompile(`\b(CREATED_AT|IS_DELETED)\b`)
)

// Normalize trims, collapses whitespace runs and uppercases.
func Normalize(sql string) string {
	return strings.ToUpper(whitespace.ReplaceAllString(strings.TrimSpace(sql), " "))
}

// Check accepts a single read-only SELECT. Keywords are matched as plain substrings,
// so a literal such as 'DELETED' is rejected as well.
func Check(sql string) error {
	norm := Normalize(sql)
	if !strings.HasPrefix(norm, "SELECT") {
		return ErrNotSelect
	}

	scan := allowedIdentifiers.ReplaceAllString(norm, "_")
	for _, kw := range forbiddenKeywords {
		if strings.Contains(scan, kw) {
			return &ForbiddenKeywordError{Keyword: kw}
		}
	}
	return nil
}

func IsSafe(sql string) bool {
	return Check(sql) == nil
}
