// Package domain contains the threshold profile model and service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Metric identifies a monitored measurement field.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricCO2         Metric = "co2"
	MetricPressure    Metric = "pressure"
)

// Unit returns the display unit for a metric.
func (m Metric) Unit() string {
	switch m {
	case MetricTemperature:
		return "°C"
	case MetricHumidity:
		return "%"
	case MetricCO2:
		return "ppm"
	case MetricPressure:
		return "hPa"
	default:
		return ""
	}
}

// Bounds is a configured acceptable range for one metric. Either bound may be
// absent; a metric is only evaluated when both are present and well ordered.
type Bounds struct {
	Min *float64
	Max *float64
}

// Valid reports whether the pair can be evaluated against.
func (b Bounds) Valid() bool {
	return b.Min != nil && b.Max != nil && *b.Min < *b.Max
}

// ThresholdProfile stores one user's acceptable ranges per metric. Humidity
// and pressure carry their own pairs; they are never shared.
type ThresholdProfile struct {
	ID     snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID snowflake.ID `gorm:"not null;uniqueIndex" json:"user_id"`
	Name   string       `gorm:"type:text;not null" json:"name"`

	TemperatureMin *float64 `json:"temperature_min"`
	TemperatureMax *float64 `json:"temperature_max"`
	HumidityMin    *float64 `json:"humidity_min"`
	HumidityMax    *float64 `json:"humidity_max"`
	CO2Min         *float64 `json:"co2_min"`
	CO2Max         *float64 `json:"co2_max"`
	PressureMin    *float64 `json:"pressure_min"`
	PressureMax    *float64 `json:"pressure_max"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ThresholdProfile) TableName() string { return "threshold_profiles" }

// Bounds returns the configured pair for a metric.
func (p *ThresholdProfile) Bounds(metric Metric) Bounds {
	if p == nil {
		return Bounds{}
	}
	switch metric {
	case MetricTemperature:
		return Bounds{Min: p.TemperatureMin, Max: p.TemperatureMax}
	case MetricHumidity:
		return Bounds{Min: p.HumidityMin, Max: p.HumidityMax}
	case MetricCO2:
		return Bounds{Min: p.CO2Min, Max: p.CO2Max}
	case MetricPressure:
		return Bounds{Min: p.PressureMin, Max: p.PressureMax}
	default:
		return Bounds{}
	}
}
