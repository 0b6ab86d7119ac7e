// Package migration keeps the schema in sync with the registered models.
package migration

import (
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	authdomain "github.com/vantage-sense/vantage/internal/auth/domain"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Run migrates every table the service owns.
func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&authdomain.User{},
		&authdomain.APIToken{},
		&thresholddomain.ThresholdProfile{},
		&measurementdomain.Measurement{},
		&alertdomain.Alert{},
	)
}

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		return Run(conn)
	}),
)
