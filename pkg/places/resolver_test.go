package places

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsqpull/pkg/config"
	"fsqpull/pkg/foursquare"
	"fsqpull/pkg/store"
)

func newTestResolver(t *testing.T, serverURL string) (*Resolver, *store.Store) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Foursquare.PlacesBaseURL = serverURL
	cfg.RateLimit.RequestDelay = 0
	cfg.RateLimit.RetryBaseDelay = time.Millisecond

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate())

	client := foursquare.NewClient(cfg, nil)
	return New(st, client, "service-key", nil), st
}

func TestResolveFetchesAndCachesOnce(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{
			"fsq_place_id": "v1",
			"name": "Cafe",
			"latitude": 60.17,
			"longitude": 24.94,
			"categories": [{"fsq_category_id": "cat1", "name": "Coffee Shop"}],
			"location": {"locality": "Helsinki"}
		}`)
	}))
	defer server.Close()

	resolver, st := newTestResolver(t, server.URL)

	place, fetched, err := resolver.Resolve("v1")
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, "Cafe", place.Name)
	assert.Equal(t, "Coffee Shop", place.PrimaryCategoryName)
	assert.Equal(t, int64(1), hits.Load())

	// Second resolution comes from the database, not the network.
	place, fetched, err = resolver.Resolve("v1")
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, "Cafe", place.Name)
	assert.Equal(t, int64(1), hits.Load())

	stored, err := st.GetPlace("v1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.Latitude)
	assert.InDelta(t, 60.17, *stored.Latitude, 0.001)
	assert.Equal(t, "Helsinki", stored.Locality)
}

func TestResolveFetchFailureLeavesNoRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver, st := newTestResolver(t, server.URL)

	_, _, err := resolver.Resolve("gone")
	require.Error(t, err)

	exists, err := st.PlaceExists("gone")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResolveRequiresID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	resolver, _ := newTestResolver(t, server.URL)
	_, _, err := resolver.Resolve("")
	assert.Error(t, err)
}

func TestResolvePreExistingRowSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected network call for cached place")
	}))
	defer server.Close()

	resolver, st := newTestResolver(t, server.URL)
	require.NoError(t, st.UpsertPlace(&store.Place{FsqPlaceID: "v1", Name: "Seeded"}))

	place, fetched, err := resolver.Resolve("v1")
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, "Seeded", place.Name)
}
