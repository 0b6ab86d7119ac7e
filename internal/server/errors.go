package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrInternal           = errors.New("internal_error")
)

// ErrorHandlingMiddleware maps the last recorded error to a status and a JSON
// payload after the handler chain runs.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, measurementdomain.ErrInvalidUser),
		errors.Is(err, thresholddomain.ErrInvalidUser),
		errors.Is(err, alertdomain.ErrInvalidUser):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "authentication required"}

	case errors.Is(err, ErrNotFound),
		errors.Is(err, thresholddomain.ErrProfileNotFound),
		errors.Is(err, alertdomain.ErrAlertNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "resource not found"}

	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{Type: "rate_limited", Message: "too many requests"}

	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{Type: "unavailable", Message: "service unavailable"}

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, measurementdomain.ErrInvalidSource),
		errors.Is(err, measurementdomain.ErrMissingEntity),
		errors.Is(err, measurementdomain.ErrInvalidValue),
		errors.Is(err, measurementdomain.ErrInvalidMeasuredAt),
		errors.Is(err, thresholddomain.ErrInvalidBounds),
		errors.Is(err, alertdomain.ErrInvalidAlert):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}

	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal", Message: "internal error"}
	}
}
