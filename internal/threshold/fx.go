package threshold

import (
	"github.com/vantage-sense/vantage/internal/threshold/service"
	"go.uber.org/fx"
)

var Module = fx.Module("threshold.service",
	fx.Provide(service.NewService),
)
