package alerting

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	"github.com/vantage-sense/vantage/internal/alerting/livehub"
	"github.com/vantage-sense/vantage/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const alertChannelPrefix = "alerts:"

// ChannelFor returns the pub/sub channel carrying one user's alerts.
func ChannelFor(userID string) string {
	return alertChannelPrefix + userID
}

// Notifier delivers created or refreshed alerts to connected clients.
// Delivery is at-most-once and best-effort: the alert row is the source of
// truth and a failed broadcast is logged, counted and forgotten.
//
// With Redis configured, alerts go through the per-user channel so every
// instance sees them; the relay feeds them back into this instance's hub.
// Without Redis, the hub is the only transport.
type Notifier struct {
	client  *redis.Client
	hub     *livehub.Hub
	log     *zap.Logger
	metrics *metrics.Metrics
}

type NotifierParam struct {
	fx.In

	Hub     *livehub.Hub
	Log     *zap.Logger
	Redis   *redis.Client    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

func NewNotifier(p NotifierParam) *Notifier {
	return &Notifier{
		client:  p.Redis,
		hub:     p.Hub,
		log:     p.Log.Named("alerting.notifier"),
		metrics: p.Metrics,
	}
}

// Broadcast publishes the full alert payload as a new_alert event on the
// owner's channel.
func (n *Notifier) Broadcast(ctx context.Context, alert *alertdomain.Alert) {
	if n == nil || alert == nil {
		return
	}

	event := livehub.AlertEvent{
		Event: livehub.EventNewAlert,
		Alert: *alert,
	}

	if n.client == nil {
		n.hub.Publish(alert.UserID.String(), event)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.fail(alert, err)
		return
	}
	if err := n.client.Publish(ctx, ChannelFor(alert.UserID.String()), payload).Err(); err != nil {
		n.fail(alert, err)
	}
}

func (n *Notifier) fail(alert *alertdomain.Alert, err error) {
	if n.metrics != nil {
		n.metrics.BroadcastFailures.Inc()
	}
	n.log.Warn("alert broadcast dropped",
		zap.String("alert_id", alert.ID.String()),
		zap.String("user_id", alert.UserID.String()),
		zap.Error(err),
	)
}
