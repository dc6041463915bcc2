package parser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-classifier/app/models"
)

type fakeClient struct {
	calls      atomic.Int32
	components []models.Component
	err        error
	delay      time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (f *fakeClient) Parse(ctx context.Context, _ string) ([]models.Component, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.components, f.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]models.CandidateMap
	err  error
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]models.CandidateMap{}}
}

func (c *mapCache) Get(_ context.Context, key string) (models.CandidateMap, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, candidates models.CandidateMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = candidates
	return c.err
}

func TestAdapter_GroupsByLabel(t *testing.T) {
	client := &fakeClient{components: []models.Component{
		{Label: "house_number", Value: "6-29"},
		{Label: "road", Value: "nishiki"},
		{Label: "state_district", Value: "naka-ku"},
		{Label: "city", Value: "nagoya-shi"},
		{Label: "house_number", Value: "3"},
		{Label: "country", Value: "japan"},
	}}

	got, err := NewAdapter(client, AdapterConfig{}).Parse(context.Background(), "6-29, Nishiki 3-chome Naka-ku, Nagoya-shi")
	require.NoError(t, err)

	assert.Equal(t, models.CandidateMap{
		models.LabelHouseNumber: {"6-29", "3"},
		models.LabelRoad:        {"nishiki"},
		models.LabelCity:        {"nagoya-shi"},
	}, got)
}

func TestAdapter_WrapsClientError(t *testing.T) {
	transport := errors.New("connection refused")
	client := &fakeClient{err: transport}

	_, err := NewAdapter(client, AdapterConfig{}).Parse(context.Background(), "Hauptstrasse 12 Berlin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.ErrorIs(t, err, transport)
}

func TestAdapter_Timeout(t *testing.T) {
	client := &fakeClient{delay: time.Second}

	_, err := NewAdapter(client, AdapterConfig{Timeout: 10 * time.Millisecond}).Parse(context.Background(), "Hauptstrasse 12 Berlin")
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAdapter_CacheHitSkipsClient(t *testing.T) {
	client := &fakeClient{components: []models.Component{{Label: "city", Value: "berlin"}}}
	cache := newMapCache()
	a := NewAdapter(client, AdapterConfig{}, WithCache(cache))

	first, err := a.Parse(context.Background(), "Hauptstrasse 12, 10115 Berlin")
	require.NoError(t, err)
	second, err := a.Parse(context.Background(), "Hauptstrasse 12, 10115 Berlin")
	require.NoError(t, err)

	assert.Equal(t, int32(1), client.calls.Load())
	assert.Equal(t, first, second)

	second[models.LabelCity][0] = "mutated"
	third, err := a.Parse(context.Background(), "Hauptstrasse 12, 10115 Berlin")
	require.NoError(t, err)
	assert.Equal(t, "berlin", third.First(models.LabelCity))
}

func TestAdapter_CacheErrorFallsThrough(t *testing.T) {
	client := &fakeClient{components: []models.Component{{Label: "city", Value: "berlin"}}}
	cache := newMapCache()
	cache.err = errors.New("redis down")

	got, err := NewAdapter(client, AdapterConfig{}, WithCache(cache)).Parse(context.Background(), "Hauptstrasse 12 Berlin")
	require.NoError(t, err)
	assert.Equal(t, "berlin", got.First(models.LabelCity))
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestAdapter_BoundsConcurrency(t *testing.T) {
	client := &fakeClient{delay: 20 * time.Millisecond}
	a := NewAdapter(client, AdapterConfig{MaxConcurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Parse(context.Background(), "Hauptstrasse 12 Berlin")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(8), client.calls.Load())
	assert.LessOrEqual(t, client.peak, 2)
}

func TestAdapter_CancelledContext(t *testing.T) {
	client := &fakeClient{}
	a := NewAdapter(client, AdapterConfig{MaxConcurrency: 1})
	require.NoError(t, a.sem.Acquire(context.Background(), 1))
	defer a.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Parse(ctx, "Hauptstrasse 12 Berlin")
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Equal(t, int32(0), client.calls.Load())
}
