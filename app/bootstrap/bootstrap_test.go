package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-classifier/app/config"
	"github.com/address-classifier/app/models"
	"github.com/address-classifier/app/services"
	"github.com/address-classifier/internal/metrics"
)

func testConfig(t *testing.T, parserURL string) *config.Config {
	t.Helper()
	t.Setenv("PARSER_URL", parserURL)
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func TestBuild_MemoryCacheEndToEnd(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode([]models.Component{
			{Label: "road", Value: "hauptstrasse"},
			{Label: "house_number", Value: "12"},
			{Label: "postcode", Value: "10115"},
			{Label: "city", Value: "berlin"},
		})
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	comps, err := Build(context.Background(), cfg, metrics.NewWithRegistry(prometheus.NewRegistry()), nil)
	require.NoError(t, err)
	defer comps.Close(context.Background())

	assert.IsType(t, &services.MemoryCacheService{}, comps.Cache)
	assert.Nil(t, comps.Gazetteer)
	assert.Empty(t, comps.Checks)

	record := models.AddressRecord{RawAddress: "Hauptstrasse 12, 10115 Berlin", CountryCode: "DE"}
	for i := 0; i < 2; i++ {
		result := comps.Pipeline.Classify(context.Background(), record)
		assert.True(t, result.Resolved.Complete)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuild_NoCache(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "none")
	cfg := testConfig(t, "http://127.0.0.1:1/parse")

	comps, err := Build(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, comps.Cache)
	assert.NotNil(t, comps.Pipeline)
	assert.NoError(t, comps.Close(context.Background()))
}

func TestBuild_RedisUnreachable(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")
	cfg := testConfig(t, "http://127.0.0.1:1/parse")

	_, err := Build(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}
