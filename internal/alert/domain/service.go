package domain

import (
	"context"
	"errors"

	"github.com/vantage-sense/vantage/pkg/db/pagination"
)

type ListAlertsRequest struct {
	Unread     bool   `form:"unread"`
	Unresolved bool   `form:"unresolved"`
	Type       string `form:"type"`
	PageToken  string `form:"page_token"`
	PageSize   int    `form:"page_size"`
}

type ListAlertsResponse struct {
	pagination.PageInfo
	Alerts []Alert `json:"alerts"`
}

// Service exposes the user-facing alert operations. These only ever flip the
// read/acknowledged/resolved state; the detection core alone creates and
// refreshes alert rows.
type Service interface {
	List(context.Context, ListAlertsRequest) (ListAlertsResponse, error)
	MarkRead(ctx context.Context, alertID string) (*Alert, error)
	Acknowledge(ctx context.Context, alertID string) (*Alert, error)
	// Resolve stamps resolved_at. Resolution is always an explicit user
	// action; nothing resolves alerts automatically.
	Resolve(ctx context.Context, alertID string) (*Alert, error)
}

var (
	ErrInvalidUser   = errors.New("invalid_user")
	ErrAlertNotFound = errors.New("alert_not_found")
	ErrInvalidAlert  = errors.New("invalid_alert")
)
