package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatallahx/before-you-bet/internal/analysis"
	"github.com/gatallahx/before-you-bet/internal/api"
	"github.com/gatallahx/before-you-bet/internal/estimate"
)

// retryAfterSeconds is advertised when the venue failure is transient.
const retryAfterSeconds = "5"

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, analysis.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, estimate.ErrUnavailable), errors.Is(err, errScanUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, api.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	status := statusFor(err)

	body := gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDKey),
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		body["upstream_status"] = apiErr.StatusCode
		body["retryable"] = apiErr.IsRetryable()
		if apiErr.IsRetryable() {
			c.Header("Retry-After", retryAfterSeconds)
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"path", c.FullPath(),
			"status", status,
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
	}
	c.JSON(status, body)
}
