package alerting

import (
	"time"

	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
)

// Violation is an ephemeral detection event: a measured value outside the
// configured range. It is never persisted; the writer turns it into an alert
// row immediately.
type Violation struct {
	Type           alertdomain.AlertType
	Metric         thresholddomain.Metric
	MeasuredValue  float64
	ThresholdValue float64
	Unit           string
	MeasuredAt     time.Time
}

// Metric sets per source. Point sensors report temperature, humidity and CO2;
// SCADA location feeds report temperature, humidity and barometric pressure.
var (
	sensorMetrics = []thresholddomain.Metric{
		thresholddomain.MetricTemperature,
		thresholddomain.MetricHumidity,
		thresholddomain.MetricCO2,
	}
	scadaMetrics = []thresholddomain.Metric{
		thresholddomain.MetricTemperature,
		thresholddomain.MetricHumidity,
		thresholddomain.MetricPressure,
	}
)

func metricsForSource(source measurementdomain.Source) []thresholddomain.Metric {
	switch source {
	case measurementdomain.SourceSensor:
		return sensorMetrics
	case measurementdomain.SourceSCADA:
		return scadaMetrics
	default:
		return nil
	}
}

func metricValue(m *measurementdomain.Measurement, metric thresholddomain.Metric) *float64 {
	switch metric {
	case thresholddomain.MetricTemperature:
		return m.Temperature
	case thresholddomain.MetricHumidity:
		return m.Humidity
	case thresholddomain.MetricCO2:
		return m.CO2
	case thresholddomain.MetricPressure:
		return m.Pressure
	default:
		return nil
	}
}

// Evaluate compares a measurement against the user's profile and returns one
// violation per out-of-range metric. Absent readings and unusable bound pairs
// are skipped. High and low are mutually exclusive per metric; independent
// across metrics, so one measurement can fan out to several violations.
func Evaluate(m *measurementdomain.Measurement, profile *thresholddomain.ThresholdProfile) []Violation {
	if m == nil || profile == nil {
		return nil
	}

	var violations []Violation
	for _, metric := range metricsForSource(m.Source) {
		value := metricValue(m, metric)
		if value == nil {
			continue
		}
		if v := evaluateBounds(*value, metric, profile.Bounds(metric), m.MeasuredAt); v != nil {
			violations = append(violations, *v)
		}
	}
	return violations
}

// evaluateBounds checks one reading against one bound pair. Values exactly at
// a bound are in range.
func evaluateBounds(value float64, metric thresholddomain.Metric, bounds thresholddomain.Bounds, measuredAt time.Time) *Violation {
	if !bounds.Valid() {
		return nil
	}

	switch {
	case value > *bounds.Max:
		return &Violation{
			Type:           alertdomain.TypeFor(metric, alertdomain.DirectionHigh),
			Metric:         metric,
			MeasuredValue:  value,
			ThresholdValue: *bounds.Max,
			Unit:           metric.Unit(),
			MeasuredAt:     measuredAt,
		}
	case value < *bounds.Min:
		return &Violation{
			Type:           alertdomain.TypeFor(metric, alertdomain.DirectionLow),
			Metric:         metric,
			MeasuredValue:  value,
			ThresholdValue: *bounds.Min,
			Unit:           metric.Unit(),
			MeasuredAt:     measuredAt,
		}
	default:
		return nil
	}
}
