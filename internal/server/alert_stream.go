package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vantage-sense/vantage/internal/alerting/livehub"
	"github.com/vantage-sense/vantage/internal/userctx"
)

// StreamAlerts serves the authenticated user's live alert feed over SSE.
// Delivery is best-effort; the alert list endpoint is the source of truth.
func (s *Server) StreamAlerts(c *gin.Context) {
	if s.liveAlerts == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	userID, ok := userctx.UserIDFromContext(c.Request.Context())
	if !ok || userID == 0 {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	subscription, backlog, err := s.liveAlerts.Subscribe(userID.String())
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}

	for _, event := range backlog {
		if err := writeAlertEvent(writer, event); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-subscription.Events():
			if err := writeAlertEvent(writer, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeAlertEvent(w io.Writer, event livehub.AlertEvent) error {
	payload, err := json.Marshal(event.Alert)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, payload)
	return err
}
