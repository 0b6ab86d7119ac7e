package alerting

import (
	"context"
	"errors"
	"time"

	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	"github.com/vantage-sense/vantage/internal/observability/metrics"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const triggerTimeout = 30 * time.Second

// Trigger runs the detection pipeline for one ingested measurement: load the
// owner's threshold profile, evaluate, then upsert and broadcast each
// violation. It is invoked detached from the ingestion request and nothing in
// it can fail that request.
type Trigger struct {
	thresholds thresholddomain.Service
	writer     *Writer
	notifier   *Notifier
	log        *zap.Logger
	metrics    *metrics.Metrics
}

type TriggerParam struct {
	fx.In

	Thresholds thresholddomain.Service
	Writer     *Writer
	Notifier   *Notifier
	Log        *zap.Logger
	Metrics    *metrics.Metrics `optional:"true"`
}

func NewTrigger(p TriggerParam) *Trigger {
	return &Trigger{
		thresholds: p.Thresholds,
		writer:     p.Writer,
		notifier:   p.Notifier,
		log:        p.Log.Named("alerting.trigger"),
		metrics:    p.Metrics,
	}
}

// Dispatch runs the pipeline in a detached goroutine with its own deadline.
// The caller's context is deliberately not reused: the ingestion response
// returns before evaluation finishes.
func (t *Trigger) Dispatch(m *measurementdomain.Measurement) {
	if t == nil || m == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.log.Error("alerting pipeline panicked",
					zap.String("measurement_id", m.ID.String()),
					zap.Any("panic", r),
				)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
		defer cancel()
		t.Run(ctx, m)
	}()
}

// Run evaluates one measurement to completion. Each violation is an
// independent unit of work: a dropped write for one never stops the next.
func (t *Trigger) Run(ctx context.Context, m *measurementdomain.Measurement) {
	profile, err := t.thresholds.GetByUserID(ctx, m.UserID)
	if err != nil {
		if errors.Is(err, thresholddomain.ErrProfileNotFound) {
			t.log.Debug("no threshold profile, skipping evaluation",
				zap.String("user_id", m.UserID.String()),
			)
		} else {
			t.log.Error("threshold profile load failed",
				zap.String("user_id", m.UserID.String()),
				zap.Error(err),
			)
		}
		return
	}

	violations := Evaluate(m, profile)
	for _, v := range violations {
		if t.metrics != nil {
			t.metrics.ViolationsDetected.WithLabelValues(string(v.Type)).Inc()
		}

		alert := t.writer.Upsert(ctx, v, m, m.UserID)
		if alert == nil {
			continue
		}
		t.notifier.Broadcast(ctx, alert)
	}
}
