package respond

import (
	"github.com/gin-gonic/gin"

	"tenant-ingest/internal/shared/telemetry"
)

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Step      string `json:"step,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Error sends a standardized error response. When step is set the message is
// prefixed with it so clients can tell which stage failed.
func Error(c *gin.Context, status int, code, step, message string) {
	requestID := c.GetString("requestId")
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": requestID,
	}
	if step != "" {
		fields["step"] = step
		message = step + ": " + message
	}
	if tenant := c.GetString("tenant"); tenant != "" {
		fields["tenant"] = tenant
	}
	telemetry.Error("http.error", fields)

	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Step:      step,
		RequestID: requestID,
	})
}
