package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/vantage-sense/vantage/internal/auth/domain"
	"github.com/vantage-sense/vantage/internal/userctx"
	"go.uber.org/zap"
)

const contextUserIDKey = "user_id"

// TokenRequired authenticates requests with an opaque bearer token. Identity
// is derived solely from the api_tokens table; session management lives
// outside this service.
func (s *Server) TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hash := authdomain.HashToken(parts[1])
		now := time.Now().UTC()

		var token authdomain.APIToken
		err := s.db.WithContext(c.Request.Context()).
			Where("token_hash = ? AND is_active = ?", hash, true).
			Where("expires_at IS NULL OR expires_at > ?", now).
			First(&token).Error
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		// Best effort; losing a last_used_at update is fine.
		go func() {
			if uerr := s.db.Model(&authdomain.APIToken{}).
				Where("id = ?", token.ID).
				Update("last_used_at", now).Error; uerr != nil {
				s.log.Debug("token last_used_at update failed", zap.Error(uerr))
			}
		}()

		c.Set(contextUserIDKey, token.UserID)
		c.Request = c.Request.WithContext(userctx.WithUserID(c.Request.Context(), token.UserID))
		c.Next()
	}
}
