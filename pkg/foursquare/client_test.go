package foursquare

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsqpull/pkg/config"
	errs "fsqpull/pkg/errors"
)

func testConfig(serverURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Foursquare.V2BaseURL = serverURL
	cfg.Foursquare.PlacesBaseURL = serverURL
	cfg.Foursquare.ServiceKey = "test-service-key"
	cfg.RateLimit.RequestDelay = 0
	cfg.RateLimit.RetryBaseDelay = time.Millisecond
	cfg.Sync.RequestTimeout = 5 * time.Second
	return cfg
}

func TestFetchCheckinsParsesEnvelope(t *testing.T) {
	var gotAuth, gotVersion, gotLimit, gotOffset string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/self/checkins", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.URL.Query().Get("v")
		gotLimit = r.URL.Query().Get("limit")
		gotOffset = r.URL.Query().Get("offset")

		fmt.Fprint(w, `{"response": {"checkins": {"count": 2, "items": [
			{"id": "c1", "createdAt": 300, "venue": {"id": "v1", "name": "Cafe"}},
			{"id": "c2", "createdAt": 200, "shout": "hello", "private": true}
		]}}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	envelope, err := client.FetchCheckins("user-token", 200, 0)
	require.NoError(t, err)

	assert.Equal(t, "OAuth user-token", gotAuth)
	assert.Equal(t, "20250617", gotVersion)
	assert.Equal(t, "200", gotLimit)
	assert.Equal(t, "0", gotOffset)

	items := envelope.Response.Checkins.Items
	require.Len(t, items, 2)
	assert.Equal(t, "c1", items[0].ID)
	assert.Equal(t, int64(300), items[0].CreatedAt)
	assert.Equal(t, "v1", items[0].Venue.ID)
	assert.Equal(t, "hello", items[1].Shout)
	assert.True(t, items[1].Private)
	assert.Equal(t, int64(1), client.Requests())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"response": {"checkins": {"count": 0, "items": []}}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.FetchCheckins("token", 10, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(3), hits.Load())
	// Every attempt counts against the request total, retries included.
	assert.Equal(t, int64(3), client.Requests())
}

func TestClientDoesNotRetryAuthFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.FetchCheckins("expired-token", 10, 0)

	require.Error(t, err)
	assert.Equal(t, int64(1), hits.Load())

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeAuth, apiErr.Type)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RateLimit.MaxRetries = 3

	client := NewClient(cfg, nil)
	_, err := client.FetchCheckins("token", 10, 0)

	require.Error(t, err)
	assert.Equal(t, int64(3), hits.Load())
}

func TestFetchPlaceUsesServiceAuth(t *testing.T) {
	var gotAuth, gotAPIVersion, gotFields string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places/v1", r.URL.Path) // /places/{fsq_place_id}
		gotAuth = r.Header.Get("Authorization")
		gotAPIVersion = r.Header.Get("X-Places-Api-Version")
		gotFields = r.URL.Query().Get("fields")

		fmt.Fprint(w, `{
			"fsq_place_id": "v1",
			"name": "Cafe",
			"latitude": 60.17,
			"longitude": 24.94,
			"categories": [{"fsq_category_id": "cat1", "name": "Coffee Shop"}],
			"location": {"address": "Main St 1", "locality": "Helsinki", "country": "FI"},
			"website": "https://cafe.example",
			"rating": 8.7
		}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	place, err := client.FetchPlace("test-service-key", "v1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-service-key", gotAuth)
	assert.Equal(t, "2025-06-17", gotAPIVersion)
	assert.Equal(t, PlaceFields, gotFields)

	assert.Equal(t, "v1", place.FsqPlaceID)
	assert.Equal(t, "Cafe", place.Name)
	require.NotNil(t, place.Latitude)
	assert.InDelta(t, 60.17, *place.Latitude, 0.001)
	assert.Equal(t, "Helsinki", place.Location.Locality)
	require.NotNil(t, place.Rating)
	assert.InDelta(t, 8.7, *place.Rating, 0.001)

	category, ok := place.PrimaryCategory()
	require.True(t, ok)
	assert.Equal(t, "Coffee Shop", category.Name)
}

func TestSelfResolvesUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/self", r.URL.Path)
		fmt.Fprint(w, `{"response": {"user": {"id": "12345"}}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	userID, err := client.Self("token")
	require.NoError(t, err)
	assert.Equal(t, "12345", userID)
}

func TestSelfRejectsEmptyUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": {}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.Self("token")

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestMalformedJSONIsParsingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": `)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	_, err := client.FetchCheckins("token", 10, 0)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}
