package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/vantage-sense/vantage/internal/config"
	"github.com/vantage-sense/vantage/internal/observability/metrics"
	"go.uber.org/fx"
)

const (
	keyIngestDevice = "ingest:device:%s"
	keyIngestUser   = "ingest:user:%s"
)

// MeasurementIngestLimiter throttles the device-facing ingestion endpoints:
// per device so one stuck sensor cannot starve the rest, and per user as a
// coarse backstop. Disabled (nil) limiters allow everything.
type MeasurementIngestLimiter struct {
	enabled bool

	bucket  *TokenBucket
	metrics *metrics.Metrics

	deviceRate  float64
	deviceBurst int
	userRate    float64
	userBurst   int
}

type LimiterParam struct {
	fx.In

	Config  config.Config
	Redis   *redis.Client    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

func NewMeasurementIngestLimiter(p LimiterParam) *MeasurementIngestLimiter {
	limitCfg := p.Config.RateLimit
	if !limitCfg.Enabled || p.Redis == nil {
		return nil
	}

	return &MeasurementIngestLimiter{
		enabled:     true,
		bucket:      NewTokenBucket(p.Redis),
		metrics:     p.Metrics,
		deviceRate:  limitCfg.DeviceRate,
		deviceBurst: limitCfg.DeviceBurst,
		userRate:    limitCfg.UserRate,
		userBurst:   limitCfg.UserBurst,
	}
}

func (l *MeasurementIngestLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *MeasurementIngestLimiter) AllowDevice(ctx context.Context, deviceID string) (bool, error) {
	if !l.Enabled() || strings.TrimSpace(deviceID) == "" {
		return true, nil
	}
	allowed, err := l.bucket.Allow(ctx, fmt.Sprintf(keyIngestDevice, strings.TrimSpace(deviceID)), l.deviceRate, l.deviceBurst)
	if err != nil {
		// Rate limiting is protective, not load bearing. Fail open.
		return true, err
	}
	if !allowed && l.metrics != nil {
		l.metrics.RateLimitDenied.WithLabelValues("device").Inc()
	}
	return allowed, nil
}

func (l *MeasurementIngestLimiter) AllowUser(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() || strings.TrimSpace(userID) == "" {
		return true, nil
	}
	allowed, err := l.bucket.Allow(ctx, fmt.Sprintf(keyIngestUser, strings.TrimSpace(userID)), l.userRate, l.userBurst)
	if err != nil {
		return true, err
	}
	if !allowed && l.metrics != nil {
		l.metrics.RateLimitDenied.WithLabelValues("user").Inc()
	}
	return allowed, nil
}
