package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dialog-bot/internal/auth"
	"github.com/suPer8Hu/dialog-bot/internal/common"
)

const AdminSubjectKey = "admin_subject"

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// AuthorizeAdmin checks the admin token inline, for handlers where only some requests
// need it. It writes the 401 itself and reports whether the caller may continue.
func AuthorizeAdmin(c *gin.Context, secret string) bool {
	tok := BearerToken(c)
	if tok == "" {
		common.Fail(c, http.StatusUnauthorized, 40101, "missing bearer token")
		return false
	}
	claims, err := auth.ParseAdmin(secret, tok)
	if err != nil {
		common.Fail(c, http.StatusUnauthorized, 40102, "invalid admin token")
		return false
	}
	c.Set(AdminSubjectKey, claims.Subject)
	return true
}
