package foursquare

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"fsqpull/pkg/config"
	"fsqpull/pkg/errors"
	"fsqpull/pkg/logger"
	"fsqpull/pkg/ratelimit"
	"fsqpull/pkg/retry"
)

// Client is the rate-limited request executor for the Foursquare APIs. It is
// the only component that talks to the network: every call is retried with
// exponential backoff on transient failures, throttled by a minimum delay
// after each successful response, and counted for run statistics.
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	fsq        config.FoursquareConfig
	maxRetries int
	backoff    retry.BackoffStrategy
	requests   atomic.Int64
	logger     logger.Logger
}

// NewClient creates a client from the puller configuration
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	} else {
		limiter = ratelimit.NewFixedInterval(cfg.RateLimit.RequestDelay)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Sync.RequestTimeout,
		},
		limiter:    limiter,
		fsq:        cfg.Foursquare,
		maxRetries: cfg.RateLimit.MaxRetries,
		backoff: &retry.ExponentialBackoff{
			BaseDelay:  cfg.RateLimit.RetryBaseDelay,
			MaxDelay:   60 * time.Second,
			Multiplier: cfg.RateLimit.BackoffMultiplier,
		},
		logger: log,
	}
}

// Requests returns the number of API requests issued so far, retries included
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

// GetJSON issues a GET request with retry and throttling, decoding the JSON
// response into target. It does not interpret the decoded content.
func (c *Client) GetJSON(rawURL string, headers map[string]string, query url.Values, target interface{}) error {
	fullURL := rawURL
	if len(query) > 0 {
		fullURL = rawURL + "?" + query.Encode()
	}

	err := retry.Do(func() error {
		return c.doGet(fullURL, headers, target)
	}, &retry.Config{
		MaxAttempts: c.maxRetries,
		Backoff:     c.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Logger:      c.logger,
	})
	if err != nil {
		c.logger.ErrorWithFields("all API request attempts failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return err
	}

	// Minimum inter-request spacing, applied after a successful response
	c.limiter.Wait()
	return nil
}

// doGet performs a single attempt
func (c *Client) doGet(fullURL string, headers map[string]string, target interface{}) error {
	c.requests.Add(1)

	req, err := http.NewRequest(http.MethodGet, fullURL, nil)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      fullURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      fullURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus maps HTTP status codes to typed errors
func checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "authentication failed",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	default:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// v2Headers builds headers for the v2 API using the per-user OAuth token
func (c *Client) v2Headers(accessToken string) map[string]string {
	return map[string]string{
		"Authorization": "OAuth " + accessToken,
		"Content-Type":  "application/json",
	}
}

// placesHeaders builds headers for the Places API using the service key
func (c *Client) placesHeaders(serviceKey string) map[string]string {
	return map[string]string{
		"Authorization":        "Bearer " + serviceKey,
		"Accept":               "application/json",
		"X-Places-Api-Version": c.fsq.PlacesAPIVersion,
	}
}

// FetchCheckins fetches one page of the authenticated user's check-ins,
// offset-based, ordered newest-first by the remote API.
func (c *Client) FetchCheckins(accessToken string, limit, offset int) (*CheckinsEnvelope, error) {
	query := url.Values{}
	query.Set("v", c.fsq.APIVersion)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var envelope CheckinsEnvelope
	if err := c.GetJSON(CheckinsURL(c.fsq.V2BaseURL), c.v2Headers(accessToken), query, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// Self resolves the authenticated user's Foursquare ID
func (c *Client) Self(accessToken string) (string, error) {
	query := url.Values{}
	query.Set("v", c.fsq.APIVersion)

	var envelope SelfEnvelope
	if err := c.GetJSON(SelfURL(c.fsq.V2BaseURL), c.v2Headers(accessToken), query, &envelope); err != nil {
		return "", err
	}
	if envelope.Response.User.ID == "" {
		return "", &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: "users/self response missing user id",
		}
	}
	return envelope.Response.User.ID, nil
}

// FetchPlace fetches place details with the fixed field-selection list,
// authenticated with the service-wide key.
func (c *Client) FetchPlace(serviceKey, placeID string) (*Place, error) {
	query := url.Values{}
	query.Set("fields", PlaceFields)

	c.logger.InfoWithFields("fetching place details", map[string]interface{}{
		"place_id": placeID,
	})

	var place Place
	if err := c.GetJSON(PlaceURL(c.fsq.PlacesBaseURL, placeID), c.placesHeaders(serviceKey), query, &place); err != nil {
		return nil, err
	}
	return &place, nil
}
