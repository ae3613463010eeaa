package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// The API serves JSON only, so everything is locked down except the Swagger
// page, which pulls its UI bundle from the unpkg CDN and bootstraps inline.
const (
	apiCSP     = "default-src 'none'"
	swaggerCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")

		csp := apiCSP
		if strings.HasPrefix(c.Request.URL.Path, "/swagger") {
			csp = swaggerCSP
		}
		c.Header("Content-Security-Policy", csp)

		c.Next()
	}
}
