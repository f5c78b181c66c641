package foursquare

import "fmt"

const (
	// CheckinsEndpoint is the v2 endpoint listing the authenticated user's check-ins
	CheckinsEndpoint = "/users/self/checkins"

	// SelfEndpoint is the v2 endpoint resolving the authenticated user
	SelfEndpoint = "/users/self"

	// PlaceFields is the fixed field-selection list requested from the Places API
	PlaceFields = "fsq_place_id,name,latitude,longitude,categories,location,website,tel,email"
)

// CheckinsURL constructs the URL for the check-in listing endpoint
func CheckinsURL(v2BaseURL string) string {
	return v2BaseURL + CheckinsEndpoint
}

// SelfURL constructs the URL for the users/self endpoint
func SelfURL(v2BaseURL string) string {
	return v2BaseURL + SelfEndpoint
}

// PlaceURL constructs the URL for a place detail lookup
func PlaceURL(placesBaseURL, placeID string) string {
	return fmt.Sprintf("%s/places/%s", placesBaseURL, placeID)
}
