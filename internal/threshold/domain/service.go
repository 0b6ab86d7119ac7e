package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type UpsertProfileRequest struct {
	Name string `json:"name"`

	TemperatureMin *float64 `json:"temperature_min"`
	TemperatureMax *float64 `json:"temperature_max"`
	HumidityMin    *float64 `json:"humidity_min"`
	HumidityMax    *float64 `json:"humidity_max"`
	CO2Min         *float64 `json:"co2_min"`
	CO2Max         *float64 `json:"co2_max"`
	PressureMin    *float64 `json:"pressure_min"`
	PressureMax    *float64 `json:"pressure_max"`
}

type Service interface {
	// Get returns the caller's profile, or ErrProfileNotFound.
	Get(ctx context.Context) (*ThresholdProfile, error)
	// GetByUserID is the read used by the alerting core.
	GetByUserID(ctx context.Context, userID snowflake.ID) (*ThresholdProfile, error)
	// Upsert creates or replaces the caller's profile. Bounds are validated
	// here, at the settings boundary; the alerting core never re-validates.
	Upsert(ctx context.Context, req UpsertProfileRequest) (*ThresholdProfile, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrProfileNotFound = errors.New("threshold_profile_not_found")
	ErrInvalidBounds   = errors.New("invalid_bounds")
)
