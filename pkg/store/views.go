package store

import "fmt"

const checkinsWithPlacesView = `
CREATE VIEW IF NOT EXISTS checkins_with_places AS
SELECT
    c.checkin_id, c.foursquare_user_id, c.created_at, c.type, c.shout, c.private,
    c.visibility, c.is_mayor, c.liked, c.comments_count, c.likes_count, c.photos_count,
    c.source_name, c.source_url, c.time_zone_offset, c.imported_at,
    p.fsq_place_id, p.name AS place_name, p.latitude, p.longitude, p.address,
    p.locality, p.region, p.postcode, p.country, p.primary_category_name, p.rating
FROM checkins c
LEFT JOIN places p ON c.place_fsq_id = p.fsq_place_id`

const userStatsView = `
CREATE VIEW IF NOT EXISTS user_stats AS
SELECT
    u.foursquare_user_id,
    u.last_pulled_timestamp,
    COUNT(c.checkin_id) AS total_checkins,
    COUNT(DISTINCT c.place_fsq_id) AS unique_places,
    MIN(c.created_at) AS first_checkin_date,
    MAX(c.created_at) AS last_checkin_date
FROM users u
LEFT JOIN checkins c ON u.foursquare_user_id = c.foursquare_user_id
GROUP BY u.foursquare_user_id`

func (s *Store) createViews() error {
	for _, stmt := range []string{checkinsWithPlacesView, userStatsView} {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create view: %w", err)
		}
	}
	return nil
}

// CheckinsWithPlaces returns a user's check-ins joined with their place
// details, newest first. Consumed by reporting tooling.
func (s *Store) CheckinsWithPlaces(userID string) ([]CheckinWithPlace, error) {
	var rows []CheckinWithPlace
	err := s.db.
		Raw("SELECT * FROM checkins_with_places WHERE foursquare_user_id = ? ORDER BY created_at DESC", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query checkins_with_places: %w", err)
	}
	return rows, nil
}

// UserStatsFor returns the per-user aggregate of total/unique counts and
// first/last check-in timestamps, or nil when the user is unknown.
func (s *Store) UserStatsFor(userID string) (*UserStats, error) {
	var rows []UserStats
	err := s.db.
		Raw("SELECT * FROM user_stats WHERE foursquare_user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query user_stats: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
