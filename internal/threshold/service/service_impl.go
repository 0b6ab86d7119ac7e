package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/vantage-sense/vantage/internal/clock"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
	"github.com/vantage-sense/vantage/internal/userctx"
	"github.com/vantage-sense/vantage/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository[thresholddomain.ThresholdProfile]
}

func NewService(p ServiceParam) thresholddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("threshold.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  repository.ProvideStore[thresholddomain.ThresholdProfile](p.DB),
	}
}

func (s *Service) Get(ctx context.Context) (*thresholddomain.ThresholdProfile, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, thresholddomain.ErrInvalidUser
	}
	return s.GetByUserID(ctx, userID)
}

func (s *Service) GetByUserID(ctx context.Context, userID snowflake.ID) (*thresholddomain.ThresholdProfile, error) {
	if userID == 0 {
		return nil, thresholddomain.ErrInvalidUser
	}
	profile, err := s.repo.FindOne(ctx, &thresholddomain.ThresholdProfile{UserID: userID})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, thresholddomain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) Upsert(ctx context.Context, req thresholddomain.UpsertProfileRequest) (*thresholddomain.ThresholdProfile, error) {
	userID, ok := userctx.UserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, thresholddomain.ErrInvalidUser
	}

	if err := validateBounds(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	existing, err := s.repo.FindOne(ctx, &thresholddomain.ThresholdProfile{UserID: userID})
	if err != nil {
		return nil, err
	}

	profile := &thresholddomain.ThresholdProfile{
		UserID: userID,
		Name:   req.Name,

		TemperatureMin: req.TemperatureMin,
		TemperatureMax: req.TemperatureMax,
		HumidityMin:    req.HumidityMin,
		HumidityMax:    req.HumidityMax,
		CO2Min:         req.CO2Min,
		CO2Max:         req.CO2Max,
		PressureMin:    req.PressureMin,
		PressureMax:    req.PressureMax,

		UpdatedAt: now,
	}

	if existing == nil {
		profile.ID = s.genID.Generate()
		profile.CreatedAt = now
		if err := s.repo.Create(ctx, profile); err != nil {
			return nil, err
		}
		s.log.Info("threshold profile created", zap.String("user_id", userID.String()))
		return profile, nil
	}

	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func validateBounds(req thresholddomain.UpsertProfileRequest) error {
	pairs := []struct {
		metric thresholddomain.Metric
		min    *float64
		max    *float64
	}{
		{thresholddomain.MetricTemperature, req.TemperatureMin, req.TemperatureMax},
		{thresholddomain.MetricHumidity, req.HumidityMin, req.HumidityMax},
		{thresholddomain.MetricCO2, req.CO2Min, req.CO2Max},
		{thresholddomain.MetricPressure, req.PressureMin, req.PressureMax},
	}
	for _, pair := range pairs {
		if pair.min == nil || pair.max == nil {
			continue
		}
		if *pair.min >= *pair.max {
			return fmt.Errorf("%w: %s min must be below max", thresholddomain.ErrInvalidBounds, pair.metric)
		}
	}
	return nil
}
