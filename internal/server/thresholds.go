package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
)

func (s *Server) GetThresholdProfile(c *gin.Context) {
	profile, err := s.thresholdSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s *Server) UpsertThresholdProfile(c *gin.Context) {
	var req thresholddomain.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	profile, err := s.thresholdSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
