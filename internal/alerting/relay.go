package alerting

import (
	"context"
	"encoding/json"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/vantage-sense/vantage/internal/alerting/livehub"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Relay subscribes to every alerts:* channel and feeds the events into the
// local hub, so SSE clients connected to this instance receive broadcasts
// published by any instance.
type Relay struct {
	client *redis.Client
	hub    *livehub.Hub
	log    *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

type RelayParam struct {
	fx.In

	Hub   *livehub.Hub
	Log   *zap.Logger
	Redis *redis.Client `optional:"true"`
}

func NewRelay(p RelayParam) *Relay {
	return &Relay{
		client: p.Redis,
		hub:    p.Hub,
		log:    p.Log.Named("alerting.relay"),
	}
}

func (r *Relay) Start() {
	if r.client == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	pubsub := r.client.PSubscribe(ctx, alertChannelPrefix+"*")
	go r.loop(ctx, pubsub)
}

func (r *Relay) loop(ctx context.Context, pubsub *redis.PubSub) {
	defer close(r.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			userID := strings.TrimPrefix(msg.Channel, alertChannelPrefix)
			var event livehub.AlertEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Warn("discarding malformed alert event",
					zap.String("channel", msg.Channel),
					zap.Error(err),
				)
				continue
			}
			r.hub.Publish(userID, event)
		}
	}
}

func (r *Relay) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

func registerRelayHooks(lc fx.Lifecycle, relay *Relay) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			relay.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			relay.Stop()
			return nil
		},
	})
}
