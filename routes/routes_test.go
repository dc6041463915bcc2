package routes

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-classifier/app/controllers"
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/responses"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/internal/classifier"
	"github.com/address-classifier/internal/metrics"
)

const nagoya = "6-29, Nishiki 3-chome Naka-ku, Nagoya-shi, Aichi 4608625"

// stubParser trả về cùng một bộ candidates cho mọi địa chỉ
type stubParser struct{}

func (stubParser) Parse(context.Context, string) (models.CandidateMap, error) {
	return models.CandidateMap{
		models.LabelCity:        {"Nagoya-shi"},
		models.LabelRoad:        {"Nishiki"},
		models.LabelHouseNumber: {"6-29"},
	}, nil
}

func setupRouter(t *testing.T, checks map[string]controllers.HealthCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	pipeline := classifier.NewPipeline(stubParser{}, classifier.WithMetrics(m), classifier.WithWorkers(4))
	addressService := services.NewAddressService(pipeline, nil, services.WithMaxAddresses(5))
	t.Cleanup(addressService.Close)
	adminService := services.NewAdminService(services.NewMemoryCacheService(10, 0), addressService, nil)

	router := gin.New()
	SetupAllRoutes(router, Handlers{
		Address: controllers.NewAddressController(addressService, nil),
		Admin:   controllers.NewAdminController(adminService, nil),
		Health:  controllers.NewHealthController(checks),
	}, m, nil)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClassifyEndpoint(t *testing.T) {
	router := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/v1/addresses/classify", map[string]interface{}{
		"address":           nagoya,
		"country_code":      "JP",
		"return_candidates": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var resp responses.ClassifyAddressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ResultTuple{
		Complete:    1,
		Street:      "Nishiki",
		HouseNumber: "6-29",
		PostalCode:  "460-8625",
		City:        "Nagoya-shi",
	}, resp.Result)
	assert.Equal(t, models.OutcomeResolved, resp.Outcome)
	assert.Equal(t, "Nishiki", resp.Candidates.First(models.LabelRoad))
	assert.Nil(t, resp.CityVerification)
}

func TestClassifyEndpoint_TooShort(t *testing.T) {
	router := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/v1/addresses/classify", map[string]string{"address": "Berlin 10115", "country_code": "DE"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.ClassifyAddressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.OutcomeTooShort, resp.Outcome)
	assert.Equal(t, models.ResultTuple{}, resp.Result)
}

func TestClassifyEndpoint_InvalidRequest(t *testing.T) {
	router := setupRouter(t, nil)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing address", map[string]string{"country_code": "DE"}},
		{"bad country code", map[string]string{"address": nagoya, "country_code": "JPN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/v1/addresses/classify", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp responses.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "INVALID_REQUEST", resp.Error)
		})
	}
}

func TestJobEndpoints(t *testing.T) {
	router := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/v1/addresses/jobs", map[string]interface{}{
		"records": []map[string]string{
			{"address": nagoya, "country_code": "JP"},
			{"address": "Berlin", "country_code": "DE"},
			{"address": nagoya, "country_code": "JP"},
		},
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var job responses.BatchJobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, 3, job.TotalAddresses)

	base := "/v1/addresses/jobs/" + job.JobID
	require.Eventually(t, func() bool {
		w := doJSON(router, http.MethodGet, base+"/status", nil)
		var status responses.JobStatusResponse
		_ = json.Unmarshal(w.Body.Bytes(), &status)
		return status.Status == responses.JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	w = doJSON(router, http.MethodGet, base+"/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results responses.JobResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results.Results, 3)
	assert.Equal(t, 1, results.Results[0].Complete)
	assert.Equal(t, 0, results.Results[1].Complete)

	w = doJSON(router, http.MethodGet, base+"/results?format=ndjson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	assert.Len(t, strings.Split(strings.TrimSpace(w.Body.String()), "\n"), 3)

	w = doJSON(router, http.MethodGet, base+"/results?format=ndjson&gzip=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(plain)), "\n"), 3)

	w = doJSON(router, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), job.JobID+".xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestJobEndpoints_Errors(t *testing.T) {
	router := setupRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/v1/addresses/jobs/job_missing/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/v1/addresses/jobs/job_missing/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	records := make([]map[string]string, 6)
	for i := range records {
		records[i] = map[string]string{"address": nagoya}
	}
	w = doJSON(router, http.MethodPost, "/v1/addresses/jobs", map[string]interface{}{"records": records})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/v1/addresses/jobs", map[string]interface{}{"records": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	router := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/v1/admin/cache/invalidate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cleared":true`)

	w = doJSON(router, http.MethodPost, "/v1/admin/cache/invalidate", map[string]interface{}{
		"records": []map[string]string{{"address": nagoya, "country_code": "JP"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":1`)

	w = doJSON(router, http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.SystemStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.NotNil(t, stats.Cache)
	assert.Equal(t, "memory", stats.Cache.Driver)
}

func TestHealthEndpoints(t *testing.T) {
	router := setupRouter(t, map[string]controllers.HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	for _, path := range []string{"/health", "/ready", "/live"} {
		w := doJSON(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	failing := setupRouter(t, map[string]controllers.HealthCheck{
		"mongo": func(context.Context) error { return errors.New("connection refused") },
	})
	w := doJSON(failing, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = doJSON(failing, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsAndNoRoute(t *testing.T) {
	router := setupRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Route not found")
}
