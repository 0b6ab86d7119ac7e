package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	"github.com/vantage-sense/vantage/internal/userctx"
	"go.uber.org/zap"
)

func (s *Server) IngestMeasurement(c *gin.Context) {
	var req measurementdomain.CreateIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if s.ingestLimiter.Enabled() {
		userID, _ := userctx.UserIDFromContext(c.Request.Context())

		allowed, err := s.ingestLimiter.AllowUser(c.Request.Context(), userID.String())
		if err != nil {
			s.log.Warn("user rate limit check failed", zap.Error(err))
		}
		if !allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		if req.DeviceID != nil {
			deviceID := strings.TrimSpace(*req.DeviceID)
			allowed, err = s.ingestLimiter.AllowDevice(c.Request.Context(), deviceID)
			if err != nil {
				s.log.Warn("device rate limit check failed", zap.Error(err))
			}
			if !allowed {
				AbortWithError(c, ErrTooManyRequests)
				return
			}
		}
	}

	record, err := s.measurementSvc.Ingest(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) ListMeasurements(c *gin.Context) {
	var req measurementdomain.ListMeasurementsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.measurementSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
