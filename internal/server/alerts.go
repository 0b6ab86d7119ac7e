package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
)

func (s *Server) ListAlerts(c *gin.Context) {
	var req alertdomain.ListAlertsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.alertSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) MarkAlertRead(c *gin.Context) {
	alert, err := s.alertSvc.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (s *Server) AcknowledgeAlert(c *gin.Context) {
	alert, err := s.alertSvc.Acknowledge(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (s *Server) ResolveAlert(c *gin.Context) {
	alert, err := s.alertSvc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, alert)
}
