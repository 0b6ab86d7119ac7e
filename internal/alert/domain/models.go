// Package domain contains the alert model: one row per distinct ongoing
// threshold violation condition.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
)

// Severity tiers an alert by how far the measured value strayed from the
// violated threshold.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AlertType names the violated condition, one per metric and direction.
type AlertType string

const (
	AlertTemperatureHigh AlertType = "TEMPERATURE_HIGH"
	AlertTemperatureLow  AlertType = "TEMPERATURE_LOW"
	AlertHumidityHigh    AlertType = "HUMIDITY_HIGH"
	AlertHumidityLow     AlertType = "HUMIDITY_LOW"
	AlertCO2High         AlertType = "CO2_HIGH"
	AlertCO2Low          AlertType = "CO2_LOW"
	AlertPressureHigh    AlertType = "PRESSURE_HIGH"
	AlertPressureLow     AlertType = "PRESSURE_LOW"
)

// Direction of a bounds violation.
type Direction string

const (
	DirectionHigh Direction = "HIGH"
	DirectionLow  Direction = "LOW"
)

// TypeFor derives the alert type for a metric and direction.
func TypeFor(metric thresholddomain.Metric, direction Direction) AlertType {
	return AlertType(strings.ToUpper(string(metric)) + "_" + string(direction))
}

// Alert identity is {user, alert_type, source, device_or_location}. While a
// violating condition persists, the open alert for that identity is refreshed
// in place instead of spawning duplicates.
type Alert struct {
	ID       snowflake.ID             `gorm:"primaryKey" json:"id"`
	UserID   snowflake.ID             `gorm:"not null;index:idx_alerts_dedup" json:"user_id"`
	Type     AlertType                `gorm:"type:text;not null;index:idx_alerts_dedup" json:"type"`
	Source   measurementdomain.Source `gorm:"type:text;not null;index:idx_alerts_dedup" json:"source"`
	DeviceID *string                  `gorm:"type:text;index:idx_alerts_dedup" json:"device_id,omitempty"`
	Location *string                  `gorm:"type:text;index:idx_alerts_dedup" json:"location,omitempty"`

	Severity       Severity  `gorm:"type:text;not null" json:"severity"`
	MeasuredValue  float64   `gorm:"not null" json:"measured_value"`
	ThresholdValue float64   `gorm:"not null" json:"threshold_value"`
	Unit           string    `gorm:"type:text" json:"unit"`
	MeasuredAt     time.Time `gorm:"not null" json:"measured_at"`

	IsRead         bool          `gorm:"not null;default:false" json:"is_read"`
	IsAcknowledged bool          `gorm:"not null;default:false" json:"is_acknowledged"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty"`
	AcknowledgedBy *snowflake.ID `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Alert) TableName() string { return "alerts" }

// Entity returns the device or location the alert is anchored to.
func (a *Alert) Entity() string {
	if a.DeviceID != nil {
		return *a.DeviceID
	}
	if a.Location != nil {
		return *a.Location
	}
	return ""
}
