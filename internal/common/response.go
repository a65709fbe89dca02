package common

import (
	"github.com/gin-gonic/gin"
)

// Fail writes the error envelope and aborts the chain.
func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
