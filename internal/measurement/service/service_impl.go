package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vantage-sense/vantage/internal/alerting"
	"github.com/vantage-sense/vantage/internal/clock"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	"github.com/vantage-sense/vantage/internal/observability/metrics"
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

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Trigger *alerting.Trigger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	trigger *alerting.Trigger
	metrics *metrics.Metrics
	repo    repository.Repository[measurementdomain.Measurement]
}

func NewService(p ServiceParam) measurementdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("measurement.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		trigger: p.Trigger,
		metrics: p.Metrics,
		repo:    repository.ProvideStore[measurementdomain.Measurement](p.DB),
	}
}

func (s *Service) Ingest(ctx context.Context, req measurementdomain.CreateIngestRequest) (*measurementdomain.Measurement, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, measurementdomain.ErrInvalidUser
	}

	if err := validateIngest(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	measuredAt := req.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = now
	}

	record := &measurementdomain.Measurement{
		ID:       s.genID.Generate(),
		UserID:   userID,
		Source:   req.Source,
		DeviceID: trimPtr(req.DeviceID),
		Location: trimPtr(req.Location),

		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		CO2:         req.CO2,
		Pressure:    req.Pressure,

		MeasuredAt: measuredAt.UTC(),
		CreatedAt:  now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.MeasurementsIngested.WithLabelValues(string(record.Source)).Inc()
	}

	// Alerting runs detached: the ingestion response never waits on it and
	// never observes its failures.
	s.trigger.Dispatch(record)

	return record, nil
}

func (s *Service) List(ctx context.Context, req measurementdomain.ListMeasurementsRequest) (measurementdomain.ListMeasurementsResponse, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return measurementdomain.ListMeasurementsResponse{}, measurementdomain.ErrInvalidUser
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	filter := &measurementdomain.Measurement{UserID: userID}
	if deviceID := strings.TrimSpace(req.DeviceID); deviceID != "" {
		filter.DeviceID = &deviceID
	}
	if location := strings.TrimSpace(req.Location); location != "" {
		filter.Location = &location
	}
	if source := strings.TrimSpace(req.Source); source != "" {
		filter.Source = measurementdomain.Source(source)
	}

	items, err := s.repo.Find(ctx, filter,
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  pageSize,
		}),
	)
	if err != nil {
		return measurementdomain.ListMeasurementsResponse{}, err
	}

	return buildListResponse(items, pageSize), nil
}

func validateIngest(req measurementdomain.CreateIngestRequest) error {
	switch req.Source {
	case measurementdomain.SourceSensor:
		if trimPtr(req.DeviceID) == nil {
			return measurementdomain.ErrMissingEntity
		}
	case measurementdomain.SourceSCADA:
		if trimPtr(req.Location) == nil {
			return measurementdomain.ErrMissingEntity
		}
	default:
		return measurementdomain.ErrInvalidSource
	}

	for _, value := range []*float64{req.Temperature, req.Humidity, req.CO2, req.Pressure} {
		if value == nil {
			continue
		}
		if math.IsNaN(*value) || math.IsInf(*value, 0) {
			return measurementdomain.ErrInvalidValue
		}
	}

	if !req.MeasuredAt.IsZero() && req.MeasuredAt.After(time.Now().UTC().Add(5*time.Minute)) {
		return measurementdomain.ErrInvalidMeasuredAt
	}
	return nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func buildListResponse(items []*measurementdomain.Measurement, pageSize int) measurementdomain.ListMeasurementsResponse {
	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *measurementdomain.Measurement) string {
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

	records := make([]measurementdomain.Measurement, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	resp := measurementdomain.ListMeasurementsResponse{Measurements: records}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}
