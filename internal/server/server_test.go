package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	alertsvc "github.com/vantage-sense/vantage/internal/alert/service"
	"github.com/vantage-sense/vantage/internal/alerting"
	"github.com/vantage-sense/vantage/internal/alerting/livehub"
	authdomain "github.com/vantage-sense/vantage/internal/auth/domain"
	"github.com/vantage-sense/vantage/internal/clock"
	"github.com/vantage-sense/vantage/internal/config"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	measurementsvc "github.com/vantage-sense/vantage/internal/measurement/service"
	"github.com/vantage-sense/vantage/internal/ratelimit"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
	thresholdsvc "github.com/vantage-sense/vantage/internal/threshold/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testUserID   = snowflake.ID(42)
	testRawToken = "vs_test_token"
)

type fixture struct {
	ts  *httptest.Server
	db  *gorm.DB
	clk *clock.FakeClock
	hub *livehub.Hub
}

func newFixture(t *testing.T, limiter *ratelimit.MeasurementIngestLimiter) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&authdomain.User{},
		&authdomain.APIToken{},
		&thresholddomain.ThresholdProfile{},
		&measurementdomain.Measurement{},
		&alertdomain.Alert{},
	))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	hub := livehub.NewHub()

	thresholds := thresholdsvc.NewService(thresholdsvc.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	writer := alerting.NewWriter(alerting.WriterParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Config: config.NewStaticAlertingConfigHolder(config.DefaultAlertingConfig()),
	})
	notifier := alerting.NewNotifier(alerting.NotifierParam{Hub: hub, Log: log})
	trigger := alerting.NewTrigger(alerting.TriggerParam{
		Thresholds: thresholds, Writer: writer, Notifier: notifier, Log: log,
	})
	measurements := measurementsvc.NewService(measurementsvc.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk, Trigger: trigger,
	})
	alerts := alertsvc.NewService(alertsvc.ServiceParam{DB: db, Log: log, Clock: clk})

	engine := NewEngine()
	srv := NewServer(ServerParams{
		Gin: engine, Cfg: config.Config{}, DB: db, Log: log, GenID: node,
		MeasurementSvc: measurements,
		ThresholdSvc:   thresholds,
		AlertSvc:       alerts,
		LiveAlerts:     hub,
		IngestLimiter:  limiter,
	})
	srv.RegisterAPIRoutes()

	require.NoError(t, db.Create(&authdomain.User{ID: testUserID, Email: "ops@example.com"}).Error)
	require.NoError(t, db.Create(&authdomain.APIToken{
		ID:        node.Generate(),
		UserID:    testUserID,
		TokenHash: authdomain.HashToken(testRawToken),
		Name:      "test",
		IsActive:  true,
	}).Error)

	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, db: db, clk: clk, hub: hub}
}

func (f *fixture) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.request(t, http.MethodGet, "/v1/alerts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/v1/alerts", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/v1/alerts", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic abc")
	raw, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, raw.StatusCode)
}

func TestAuthRejectsInactiveAndExpiredTokens(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.db.Model(&authdomain.APIToken{}).
		Where("token_hash = ?", authdomain.HashToken(testRawToken)).
		Update("is_active", false).Error)
	resp := f.request(t, http.MethodGet, "/v1/alerts", testRawToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, f.db.Model(&authdomain.APIToken{}).
		Where("token_hash = ?", authdomain.HashToken(testRawToken)).
		Updates(map[string]any{"is_active": true, "expires_at": expired}).Error)
	resp = f.request(t, http.MethodGet, "/v1/alerts", testRawToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIngestAndListMeasurements(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.request(t, http.MethodPost, "/v1/measurements", testRawToken, gin.H{
		"source":      "sensor",
		"device_id":   "dev-1",
		"temperature": 21.5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[measurementdomain.Measurement](t, resp)
	assert.Equal(t, testUserID, created.UserID)

	resp = f.request(t, http.MethodPost, "/v1/measurements", testRawToken, gin.H{
		"source": "sensor",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/v1/measurements?device_id=dev-1", testRawToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[measurementdomain.ListMeasurementsResponse](t, resp)
	require.Len(t, list.Measurements, 1)
	assert.Equal(t, created.ID, list.Measurements[0].ID)
}

func TestThresholdEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.request(t, http.MethodGet, "/v1/thresholds", testRawToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.request(t, http.MethodPut, "/v1/thresholds", testRawToken, gin.H{
		"name":            "office",
		"temperature_min": 18,
		"temperature_max": 26,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodPut, "/v1/thresholds", testRawToken, gin.H{
		"name":         "office",
		"humidity_min": 70,
		"humidity_max": 30,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/v1/thresholds", testRawToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[thresholddomain.ThresholdProfile](t, resp)
	assert.Equal(t, 18.0, *profile.TemperatureMin)
}

func TestIngestEvaluatesAlerts(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.request(t, http.MethodPut, "/v1/thresholds", testRawToken, gin.H{
		"name":            "office",
		"temperature_min": 18,
		"temperature_max": 26,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/v1/measurements", testRawToken, gin.H{
		"source":      "sensor",
		"device_id":   "dev-1",
		"temperature": 35,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Eventually(t, func() bool {
		var n int64
		if err := f.db.Model(&alertdomain.Alert{}).Count(&n).Error; err != nil {
			return false
		}
		return n == 1
	}, 2*time.Second, 20*time.Millisecond)

	resp = f.request(t, http.MethodGet, "/v1/alerts?unresolved=true", testRawToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[alertdomain.ListAlertsResponse](t, resp)
	require.Len(t, list.Alerts, 1)
	assert.Equal(t, alertdomain.AlertTemperatureHigh, list.Alerts[0].Type)
	assert.Equal(t, alertdomain.SeverityHigh, list.Alerts[0].Severity)
}

func TestAlertStateEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	dev := "dev-1"
	alert := &alertdomain.Alert{
		ID:             snowflake.ID(1001),
		UserID:         testUserID,
		Type:           alertdomain.AlertTemperatureHigh,
		Source:         measurementdomain.SourceSensor,
		DeviceID:       &dev,
		Severity:       alertdomain.SeverityLow,
		MeasuredValue:  27,
		ThresholdValue: 26,
		CreatedAt:      f.clk.Now(),
		UpdatedAt:      f.clk.Now(),
	}
	require.NoError(t, f.db.Create(alert).Error)

	resp := f.request(t, http.MethodPost, "/v1/alerts/1001/read", testRawToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[alertdomain.Alert](t, resp)
	assert.True(t, updated.IsRead)

	resp = f.request(t, http.MethodPost, "/v1/alerts/1001/acknowledge", testRawToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/v1/alerts/1001/resolve", testRawToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resolved := decode[alertdomain.Alert](t, resp)
	require.NotNil(t, resolved.ResolvedAt)

	resp = f.request(t, http.MethodPost, "/v1/alerts/9999/resolve", testRawToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/v1/alerts/abc/resolve", testRawToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIngestRateLimited(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := ratelimit.NewMeasurementIngestLimiter(ratelimit.LimiterParam{
		Config: config.Config{RateLimit: config.RateLimitConfig{
			Enabled:     true,
			DeviceRate:  1,
			DeviceBurst: 1,
			UserRate:    100,
			UserBurst:   100,
		}},
		Redis: client,
	})
	f := newFixture(t, limiter)

	body := gin.H{"source": "sensor", "device_id": "dev-1", "temperature": 21.0}
	resp := f.request(t, http.MethodPost, "/v1/measurements", testRawToken, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.request(t, http.MethodPost, "/v1/measurements", testRawToken, body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestStreamAlertsDeliversEvents(t *testing.T) {
	f := newFixture(t, nil)

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/v1/alerts/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testRawToken)

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "retry: 2000\n", line)

	f.hub.Publish(testUserID.String(), livehub.AlertEvent{
		Event: livehub.EventNewAlert,
		Alert: alertdomain.Alert{ID: snowflake.ID(1001), UserID: testUserID, Type: alertdomain.AlertTemperatureHigh},
	})

	deadline := time.After(2 * time.Second)
	lines := make(chan string, 8)
	go func() {
		for {
			l, rerr := reader.ReadString('\n')
			if rerr != nil {
				close(lines)
				return
			}
			lines <- l
		}
	}()

	var event, data string
	for event == "" || data == "" {
		select {
		case l, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before event arrived")
			}
			if strings.HasPrefix(l, "event: ") {
				event = strings.TrimSpace(strings.TrimPrefix(l, "event: "))
			}
			if strings.HasPrefix(l, "data: ") {
				data = strings.TrimSpace(strings.TrimPrefix(l, "data: "))
			}
		case <-deadline:
			t.Fatal("timed out waiting for SSE event")
		}
	}

	assert.Equal(t, livehub.EventNewAlert, event)
	var alert alertdomain.Alert
	require.NoError(t, json.Unmarshal([]byte(data), &alert))
	assert.Equal(t, snowflake.ID(1001), alert.ID)
}
