package measurement

import (
	"github.com/vantage-sense/vantage/internal/measurement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("measurement.service",
	fx.Provide(service.NewService),
)
