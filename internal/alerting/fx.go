package alerting

import (
	"github.com/vantage-sense/vantage/internal/alerting/livehub"
	"go.uber.org/fx"
)

var Module = fx.Module("alerting",
	fx.Provide(
		livehub.NewHub,
		NewWriter,
		NewNotifier,
		NewRelay,
		NewTrigger,
	),
	fx.Invoke(registerRelayHooks),
)
