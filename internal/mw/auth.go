package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Auth requires the opaque bearer credential on every request. Both
// "Token <t>" and "Bearer <t>" prefixes are accepted.
func Auth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		got := ""
		switch {
		case strings.HasPrefix(h, "Token "):
			got = strings.TrimPrefix(h, "Token ")
		case strings.HasPrefix(h, "Bearer "):
			got = strings.TrimPrefix(h, "Bearer ")
		}
		if got == "" || got != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.Next()
	}
}
