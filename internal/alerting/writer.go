package alerting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	"github.com/vantage-sense/vantage/internal/clock"
	"github.com/vantage-sense/vantage/internal/config"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	"github.com/vantage-sense/vantage/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dedupLockKey = "alerts:dedup:%s:%s:%s:%s"

// Writer persists violations as alert rows, merging a repeated violation into
// the open alert for the same {user, type, source, entity} key while it stays
// inside the dedup window. It never surfaces an error to its caller: a failed
// write is logged, counted and dropped so alerting can never stall ingestion.
type Writer struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	cfg     *config.AlertingConfigHolder
	locker  *Locker
	metrics *metrics.Metrics
}

type WriterParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  *config.AlertingConfigHolder
	Redis   *redis.Client                `optional:"true"`
	Metrics *metrics.Metrics             `optional:"true"`
}

func NewWriter(p WriterParam) *Writer {
	return &Writer{
		db:      p.DB,
		log:     p.Log.Named("alerting.writer"),
		genID:   p.GenID,
		clock:   p.Clock,
		cfg:     p.Config,
		locker:  NewLocker(p.Redis),
		metrics: p.Metrics,
	}
}

// Upsert applies one violation. Returns the created or refreshed alert, or
// nil when the write was dropped.
func (w *Writer) Upsert(ctx context.Context, v Violation, m *measurementdomain.Measurement, userID snowflake.ID) *alertdomain.Alert {
	if m == nil || userID == 0 {
		return nil
	}

	cfg := w.cfg.Get()

	// Serialize concurrent measurements for the same condition. Best effort:
	// when the lock is unavailable we still write, accepting the small race
	// the lock exists to close.
	if w.locker != nil {
		key := fmt.Sprintf(dedupLockKey, userID.String(), v.Type, m.Source, m.Entity())
		token, ok, err := w.locker.TryLock(ctx, key, cfg.LockTTL)
		if err != nil {
			w.log.Warn("dedup lock unavailable", zap.String("key", key), zap.Error(err))
		} else if ok {
			defer func() {
				if rerr := w.locker.Release(ctx, key, token); rerr != nil {
					w.log.Warn("dedup lock release failed", zap.String("key", key), zap.Error(rerr))
				}
			}()
		}
	}

	alert, err := w.upsert(ctx, v, m, userID, cfg)
	if err != nil {
		if w.metrics != nil {
			w.metrics.AlertWriteFailures.Inc()
		}
		w.log.Error("alert write dropped",
			zap.String("user_id", userID.String()),
			zap.String("type", string(v.Type)),
			zap.String("entity", m.Entity()),
			zap.Error(err),
		)
		return nil
	}
	return alert
}

func (w *Writer) upsert(ctx context.Context, v Violation, m *measurementdomain.Measurement, userID snowflake.ID, cfg config.AlertingConfig) (*alertdomain.Alert, error) {
	now := w.clock.Now()
	windowStart := now.Add(-cfg.DedupWindow)
	severity := classifyWithBands(v.MeasuredValue, v.ThresholdValue, cfg.HighDeviationPct, cfg.MediumDeviationPct)

	existing, err := w.findOpenAlert(ctx, v.Type, m, userID, windowStart)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		updates := map[string]any{
			"measured_value":  v.MeasuredValue,
			"threshold_value": v.ThresholdValue,
			"measured_at":     v.MeasuredAt,
			"severity":        severity,
			"updated_at":      now,
		}
		if err := w.db.WithContext(ctx).
			Model(&alertdomain.Alert{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}

		existing.MeasuredValue = v.MeasuredValue
		existing.ThresholdValue = v.ThresholdValue
		existing.MeasuredAt = v.MeasuredAt
		existing.Severity = severity
		existing.UpdatedAt = now

		if w.metrics != nil {
			w.metrics.AlertsMerged.WithLabelValues(string(v.Type), string(severity)).Inc()
		}
		w.log.Debug("alert refreshed",
			zap.String("alert_id", existing.ID.String()),
			zap.String("type", string(v.Type)),
			zap.Float64("measured_value", v.MeasuredValue),
		)
		return existing, nil
	}

	alert := &alertdomain.Alert{
		ID:       w.genID.Generate(),
		UserID:   userID,
		Type:     v.Type,
		Source:   m.Source,
		DeviceID: m.DeviceID,
		Location: m.Location,

		Severity:       severity,
		MeasuredValue:  v.MeasuredValue,
		ThresholdValue: v.ThresholdValue,
		Unit:           v.Unit,
		MeasuredAt:     v.MeasuredAt,

		IsRead:         false,
		IsAcknowledged: false,

		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, err
	}

	if w.metrics != nil {
		w.metrics.AlertsCreated.WithLabelValues(string(v.Type), string(severity)).Inc()
	}
	w.log.Info("alert created",
		zap.String("alert_id", alert.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("type", string(v.Type)),
		zap.String("severity", string(severity)),
	)
	return alert, nil
}

// findOpenAlert returns the newest unresolved alert for the dedup key created
// inside the window. Newest first: if duplicates ever exist, only the latest
// keeps being refreshed.
func (w *Writer) findOpenAlert(ctx context.Context, alertType alertdomain.AlertType, m *measurementdomain.Measurement, userID snowflake.ID, windowStart time.Time) (*alertdomain.Alert, error) {
	query := w.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND source = ?", userID, alertType, m.Source).
		Where("resolved_at IS NULL").
		Where("created_at >= ?", windowStart)

	if m.DeviceID != nil {
		query = query.Where("device_id = ?", strings.TrimSpace(*m.DeviceID))
	} else {
		query = query.Where("device_id IS NULL")
	}
	if m.Location != nil {
		query = query.Where("location = ?", strings.TrimSpace(*m.Location))
	} else {
		query = query.Where("location IS NULL")
	}

	var alert alertdomain.Alert
	err := query.Order("created_at DESC").First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}
