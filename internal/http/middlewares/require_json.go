package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests whose body claims to be something
// other than JSON. Empty bodies pass through (e.g. DELETE).
func RequireJSON() gin.HandlerFunc {
	writeMethods := map[string]bool{
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodPatch:  true,
		http.MethodDelete: true,
	}

	return func(c *gin.Context) {
		if !writeMethods[c.Request.Method] || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		// "application/json; charset=utf-8" must be accepted too
		ct := strings.ToLower(c.GetHeader("Content-Type"))
		if !strings.HasPrefix(ct, "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}

		c.Next()
	}
}
