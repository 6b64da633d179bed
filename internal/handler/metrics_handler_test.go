package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"mongo": PingFunc(func(context.Context) error { return nil }),
	})

	c, w := newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)

	require.Equal(t, http.StatusOK, w.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
}

func TestMetricsHandlerReadyDegraded(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"mongo": PingFunc(func(context.Context) error { return nil }),
		"redis": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	c, w := newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "degraded", payload.Status)
	assert.Equal(t, "ok", payload.Checks["mongo"])
	assert.Equal(t, "connection refused", payload.Checks["redis"])
}

func TestMetricsHandlerSystemAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordListingCreated("teacher")
	h := NewMetricsHandler(metrics, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/system/metrics", nil)
	h.System(c)
	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), payload["data"].(map[string]interface{})["listingsCreated"])

	c, w = newTestContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "listings_created_total")
}
