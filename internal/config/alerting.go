package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AlertingConfig tunes the detection core. The dedup window bounds how long a
// persistent violation keeps refreshing the same alert; the severity bands are
// percentage deviations from the violated threshold.
type AlertingConfig struct {
	DedupWindow        time.Duration `mapstructure:"dedupWindow"`
	HighDeviationPct   float64       `mapstructure:"highDeviationPct"`
	MediumDeviationPct float64       `mapstructure:"mediumDeviationPct"`
	LockTTL            time.Duration `mapstructure:"lockTTL"`
}

func DefaultAlertingConfig() AlertingConfig {
	return AlertingConfig{
		DedupWindow:        30 * time.Minute,
		HighDeviationPct:   20,
		MediumDeviationPct: 10,
		LockTTL:            5 * time.Second,
	}
}

// AlertingConfigHolder exposes the current alerting config and hot-reloads it
// when the backing file changes.
type AlertingConfigHolder struct {
	current atomic.Value // holds AlertingConfig
}

func NewAlertingConfigHolder() (*AlertingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("alerting")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/vantage")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VANTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAlertingConfig()
	v.SetDefault("alerting.dedupWindow", defaults.DedupWindow)
	v.SetDefault("alerting.highDeviationPct", defaults.HighDeviationPct)
	v.SetDefault("alerting.mediumDeviationPct", defaults.MediumDeviationPct)
	v.SetDefault("alerting.lockTTL", defaults.LockTTL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg AlertingConfig
	if err := v.UnmarshalKey("alerting", &cfg); err != nil {
		return nil, err
	}
	if err := validateAlertingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &AlertingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AlertingConfig
		if err := v.UnmarshalKey("alerting", &updated); err != nil {
			log.Printf("[alerting-config] reload failed: %v", err)
			return
		}
		if err := validateAlertingConfig(updated); err != nil {
			log.Printf("[alerting-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[alerting-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *AlertingConfigHolder) Get() AlertingConfig {
	return h.current.Load().(AlertingConfig)
}

// NewStaticAlertingConfigHolder wraps a fixed config, for tests.
func NewStaticAlertingConfigHolder(cfg AlertingConfig) *AlertingConfigHolder {
	holder := &AlertingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateAlertingConfig(cfg AlertingConfig) error {
	if cfg.DedupWindow <= 0 {
		return errors.New("alerting.dedupWindow must be positive")
	}
	if cfg.HighDeviationPct <= cfg.MediumDeviationPct {
		return errors.New("alerting.highDeviationPct must exceed mediumDeviationPct")
	}
	if cfg.MediumDeviationPct <= 0 {
		return errors.New("alerting.mediumDeviationPct must be positive")
	}
	return nil
}
