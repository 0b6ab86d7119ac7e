package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	"github.com/vantage-sense/vantage/internal/clock"
	"github.com/vantage-sense/vantage/internal/userctx"
	"github.com/vantage-sense/vantage/pkg/db/option"
	"github.com/vantage-sense/vantage/pkg/db/pagination"
	"github.com/vantage-sense/vantage/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  repository.Repository[alertdomain.Alert]
}

func NewService(p ServiceParam) alertdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("alert.service"),
		clock: p.Clock,
		repo:  repository.ProvideStore[alertdomain.Alert](p.DB),
	}
}

func (s *Service) List(ctx context.Context, req alertdomain.ListAlertsRequest) (alertdomain.ListAlertsResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return alertdomain.ListAlertsResponse{}, alertdomain.ErrInvalidUser
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if req.Unread {
		query = query.Where("is_read = ?", false)
	}
	if req.Unresolved {
		query = query.Where("resolved_at IS NULL")
	}
	if alertType := strings.TrimSpace(req.Type); alertType != "" {
		query = query.Where("type = ?", alertType)
	}

	opt := option.ApplyPagination(pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})

	var items []*alertdomain.Alert
	if err := opt.Apply(query).Find(&items).Error; err != nil {
		return alertdomain.ListAlertsResponse{}, err
	}

	return buildListResponse(items, pageSize), nil
}

func (s *Service) MarkRead(ctx context.Context, alertID string) (*alertdomain.Alert, error) {
	return s.patch(ctx, alertID, func(alert *alertdomain.Alert, now time.Time) map[string]any {
		alert.IsRead = true
		alert.UpdatedAt = now
		return map[string]any{"is_read": true, "updated_at": now}
	})
}

func (s *Service) Acknowledge(ctx context.Context, alertID string) (*alertdomain.Alert, error) {
	userID, _ := userctx.UserIDFromContext(ctx)
	return s.patch(ctx, alertID, func(alert *alertdomain.Alert, now time.Time) map[string]any {
		alert.IsAcknowledged = true
		alert.AcknowledgedAt = &now
		alert.AcknowledgedBy = &userID
		alert.UpdatedAt = now
		return map[string]any{
			"is_acknowledged": true,
			"acknowledged_at": now,
			"acknowledged_by": userID,
			"updated_at":      now,
		}
	})
}

func (s *Service) Resolve(ctx context.Context, alertID string) (*alertdomain.Alert, error) {
	return s.patch(ctx, alertID, func(alert *alertdomain.Alert, now time.Time) map[string]any {
		alert.ResolvedAt = &now
		alert.UpdatedAt = now
		return map[string]any{"resolved_at": now, "updated_at": now}
	})
}

func (s *Service) patch(ctx context.Context, alertID string, mutate func(*alertdomain.Alert, time.Time) map[string]any) (*alertdomain.Alert, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, alertdomain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(strings.TrimSpace(alertID))
	if err != nil || id == 0 {
		return nil, alertdomain.ErrInvalidAlert
	}

	alert, err := s.repo.FindOne(ctx, &alertdomain.Alert{ID: id, UserID: userID})
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, alertdomain.ErrAlertNotFound
	}

	updates := mutate(alert, s.clock.Now())
	if err := s.repo.Update(ctx, id.String(), updates); err != nil {
		return nil, err
	}
	return alert, nil
}

func buildListResponse(items []*alertdomain.Alert, pageSize int) alertdomain.ListAlertsResponse {
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *alertdomain.Alert) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	records := make([]alertdomain.Alert, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	resp := alertdomain.ListAlertsResponse{Alerts: records}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}
