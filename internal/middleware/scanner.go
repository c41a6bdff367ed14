package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/logger"
	"github.com/inviteforge/inviteforge/pkg/response"
)

// suspiciousFragments are lowercase substrings that have no business appearing
// in this API's paths or query strings. Matching requests are rejected before
// reaching the handlers.
var suspiciousFragments = []string{
	"<script",
	"javascript:",
	"union select",
	"drop table",
	"../",
	"..\\",
	"%2e%2e%2f",
	"/etc/passwd",
	"cmd.exe",
}

// RequestScanner rejects requests whose path or query string carries common
// injection or traversal payloads.
func RequestScanner() gin.HandlerFunc {
	log := logger.WithModule("scanner")

	return func(c *gin.Context) {
		rawQuery := c.Request.URL.RawQuery
		decoded, err := url.QueryUnescape(rawQuery)
		if err != nil {
			decoded = rawQuery
		}
		target := strings.ToLower(c.Request.URL.Path + "?" + rawQuery + " " + decoded)

		for _, fragment := range suspiciousFragments {
			if strings.Contains(target, fragment) {
				log.Warn("suspicious request blocked",
					zap.String("client_ip", c.ClientIP()),
					zap.String("path", c.Request.URL.Path),
					zap.String("fragment", fragment),
				)
				response.Error(c, errors.ErrBadRequest)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
