package puller

import "time"

// Stats aggregates the outcome of one sync run for one user
type Stats struct {
	CheckinsPulled int           `json:"checkins_pulled"`
	PlacesPulled   int           `json:"places_pulled"`
	APIRequests    int64         `json:"api_requests"`
	Duration       time.Duration `json:"duration"`
}
