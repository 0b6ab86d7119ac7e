// Package domain contains persistence models for raw measurement ingestion.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Source categorizes the measurement producer. Point sensors report against a
// device; SCADA feeds report aggregated values against a location.
type Source string

const (
	SourceSensor Source = "sensor"
	SourceSCADA  Source = "scada"
)

// Measurement stores a single timestamped sensor reading. Rows are immutable
// once recorded; the alerting core only ever reads them.
type Measurement struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID   snowflake.ID `gorm:"not null;index" json:"user_id"`
	Source   Source       `gorm:"type:text;not null" json:"source"`
	DeviceID *string      `gorm:"type:text;index" json:"device_id,omitempty"`
	Location *string      `gorm:"type:text;index" json:"location,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	CO2         *float64 `json:"co2,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`

	MeasuredAt time.Time `gorm:"not null;index" json:"measured_at"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Measurement) TableName() string { return "measurements" }

// Entity returns the device or location the measurement belongs to.
func (m *Measurement) Entity() string {
	if m.DeviceID != nil {
		return *m.DeviceID
	}
	if m.Location != nil {
		return *m.Location
	}
	return ""
}
