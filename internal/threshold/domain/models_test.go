package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestBoundsValid(t *testing.T) {
	assert.True(t, Bounds{Min: ptr(18), Max: ptr(26)}.Valid())

	assert.False(t, Bounds{}.Valid())
	assert.False(t, Bounds{Min: ptr(18)}.Valid())
	assert.False(t, Bounds{Max: ptr(26)}.Valid())
	assert.False(t, Bounds{Min: ptr(26), Max: ptr(18)}.Valid())
	assert.False(t, Bounds{Min: ptr(20), Max: ptr(20)}.Valid())
}

func TestProfileBounds(t *testing.T) {
	p := &ThresholdProfile{
		TemperatureMin: ptr(18),
		TemperatureMax: ptr(26),
		PressureMin:    ptr(980),
	}

	b := p.Bounds(MetricTemperature)
	assert.Equal(t, 18.0, *b.Min)
	assert.Equal(t, 26.0, *b.Max)

	b = p.Bounds(MetricPressure)
	assert.False(t, b.Valid())

	assert.False(t, p.Bounds(MetricHumidity).Valid())
	assert.False(t, (*ThresholdProfile)(nil).Bounds(MetricCO2).Valid())
}

func TestMetricUnit(t *testing.T) {
	assert.Equal(t, "°C", MetricTemperature.Unit())
	assert.Equal(t, "%", MetricHumidity.Unit())
	assert.Equal(t, "ppm", MetricCO2.Unit())
	assert.Equal(t, "hPa", MetricPressure.Unit())
	assert.Equal(t, "", Metric("voltage").Unit())
}
