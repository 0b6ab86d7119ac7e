package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
)

func ptr(v float64) *float64 { return &v }

func testProfile() *thresholddomain.ThresholdProfile {
	return &thresholddomain.ThresholdProfile{
		TemperatureMin: ptr(18),
		TemperatureMax: ptr(26),
		HumidityMin:    ptr(30),
		HumidityMax:    ptr(60),
		CO2Min:         ptr(350),
		CO2Max:         ptr(1000),
		PressureMin:    ptr(980),
		PressureMax:    ptr(1040),
	}
}

func deviceID(s string) *string { return &s }

func TestEvaluateHighAndLowAreExclusive(t *testing.T) {
	measuredAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	m := &measurementdomain.Measurement{
		Source:      measurementdomain.SourceSensor,
		DeviceID:    deviceID("dev-1"),
		Temperature: ptr(30),
		MeasuredAt:  measuredAt,
	}

	violations := Evaluate(m, testProfile())
	require.Len(t, violations, 1)
	assert.Equal(t, alertdomain.AlertTemperatureHigh, violations[0].Type)
	assert.Equal(t, 30.0, violations[0].MeasuredValue)
	assert.Equal(t, 26.0, violations[0].ThresholdValue)
	assert.Equal(t, "°C", violations[0].Unit)
	assert.Equal(t, measuredAt, violations[0].MeasuredAt)

	m.Temperature = ptr(10)
	violations = Evaluate(m, testProfile())
	require.Len(t, violations, 1)
	assert.Equal(t, alertdomain.AlertTemperatureLow, violations[0].Type)
	assert.Equal(t, 18.0, violations[0].ThresholdValue)
}

func TestEvaluateFansOutAcrossMetrics(t *testing.T) {
	m := &measurementdomain.Measurement{
		Source:      measurementdomain.SourceSensor,
		DeviceID:    deviceID("dev-1"),
		Temperature: ptr(30),
		Humidity:    ptr(45),
		CO2:         ptr(1500),
		MeasuredAt:  time.Now().UTC(),
	}

	violations := Evaluate(m, testProfile())
	require.Len(t, violations, 2)

	types := []alertdomain.AlertType{violations[0].Type, violations[1].Type}
	assert.Contains(t, types, alertdomain.AlertTemperatureHigh)
	assert.Contains(t, types, alertdomain.AlertCO2High)
}

func TestEvaluateValueAtBoundIsInRange(t *testing.T) {
	m := &measurementdomain.Measurement{
		Source:      measurementdomain.SourceSensor,
		DeviceID:    deviceID("dev-1"),
		Temperature: ptr(26),
		Humidity:    ptr(30),
		MeasuredAt:  time.Now().UTC(),
	}

	assert.Empty(t, Evaluate(m, testProfile()))
}

func TestEvaluateSkipsAbsentReadings(t *testing.T) {
	m := &measurementdomain.Measurement{
		Source:     measurementdomain.SourceSensor,
		DeviceID:   deviceID("dev-1"),
		Humidity:   ptr(80),
		MeasuredAt: time.Now().UTC(),
	}

	violations := Evaluate(m, testProfile())
	require.Len(t, violations, 1)
	assert.Equal(t, alertdomain.AlertHumidityHigh, violations[0].Type)
}

func TestEvaluateSkipsUnusableBounds(t *testing.T) {
	profile := testProfile()
	profile.TemperatureMax = nil

	m := &measurementdomain.Measurement{
		Source:      measurementdomain.SourceSensor,
		DeviceID:    deviceID("dev-1"),
		Temperature: ptr(90),
		MeasuredAt:  time.Now().UTC(),
	}
	assert.Empty(t, Evaluate(m, profile))

	// Inverted pair is equally unusable.
	profile = testProfile()
	profile.TemperatureMin = ptr(40)
	profile.TemperatureMax = ptr(20)
	assert.Empty(t, Evaluate(m, profile))
}

func TestEvaluateMetricSetsPerSource(t *testing.T) {
	loc := "hall-b"
	m := &measurementdomain.Measurement{
		Source:     measurementdomain.SourceSCADA,
		Location:   &loc,
		CO2:        ptr(5000),
		Pressure:   ptr(950),
		MeasuredAt: time.Now().UTC(),
	}

	// SCADA feeds do not carry CO2, so only the pressure reading fires.
	violations := Evaluate(m, testProfile())
	require.Len(t, violations, 1)
	assert.Equal(t, alertdomain.AlertPressureLow, violations[0].Type)

	m.Source = measurementdomain.SourceSensor
	m.DeviceID = deviceID("dev-1")
	m.Location = nil
	m.Pressure = nil
	violations = Evaluate(m, testProfile())
	require.Len(t, violations, 1)
	assert.Equal(t, alertdomain.AlertCO2High, violations[0].Type)
}

func TestEvaluateNilInputs(t *testing.T) {
	assert.Nil(t, Evaluate(nil, testProfile()))
	assert.Nil(t, Evaluate(&measurementdomain.Measurement{Source: measurementdomain.SourceSensor}, nil))
}
