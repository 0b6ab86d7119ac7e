package domain

import (
	"context"
	"errors"
	"time"

	"github.com/vantage-sense/vantage/pkg/db/pagination"
)

type CreateIngestRequest struct {
	Source   Source  `json:"source"`
	DeviceID *string `json:"device_id"`
	Location *string `json:"location"`

	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	CO2         *float64 `json:"co2"`
	Pressure    *float64 `json:"pressure"`

	MeasuredAt time.Time `json:"measured_at"`
}

type ListMeasurementsRequest struct {
	DeviceID  string `form:"device_id"`
	Location  string `form:"location"`
	Source    string `form:"source"`
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

type ListMeasurementsResponse struct {
	pagination.PageInfo
	Measurements []Measurement `json:"measurements"`
}

type Service interface {
	// Ingest persists a measurement and kicks off alert evaluation without
	// tying the caller's outcome to it.
	Ingest(context.Context, CreateIngestRequest) (*Measurement, error)
	List(context.Context, ListMeasurementsRequest) (ListMeasurementsResponse, error)
}

var (
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidSource     = errors.New("invalid_source")
	ErrMissingEntity     = errors.New("missing_device_or_location")
	ErrInvalidValue      = errors.New("invalid_value")
	ErrInvalidMeasuredAt = errors.New("invalid_measured_at")
)
