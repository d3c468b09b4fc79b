package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/infrastructure/signing"
)

// Scheduler trigger headers
const (
	SchedulerTokenHeader     = "X-Scheduler-Token"
	SchedulerSignatureHeader = "X-Signature"
)

// SchedulerAuth guards machine-triggered endpoints with the configured
// authorizer. Unlike the JWT middleware this authenticates an external
// scheduler, not a seller: a shared token, an IP allowlist and an optional
// body HMAC, each enforced only when configured. When nothing is
// configured the endpoint stays open for local development.
func SchedulerAuth(authorizer *signing.SchedulerAuthorizer, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !authorizer.Enabled() {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "ERR_BAD_REQUEST", "message": "Failed to read request body"},
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !authorizer.Authorize(
			c.ClientIP(),
			c.GetHeader(SchedulerTokenHeader),
			body,
			c.GetHeader(SchedulerSignatureHeader),
		) {
			log.Warn("scheduler trigger rejected",
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "ERR_UNAUTHORIZED", "message": "Scheduler authentication failed"},
			})
			return
		}

		c.Next()
	}
}
