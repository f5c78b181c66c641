package store

// User holds the per-user sync watermark. Rows are created and updated only
// by watermark advancement, never deleted by the engine.
type User struct {
	FoursquareUserID    string `gorm:"column:foursquare_user_id;primaryKey"`
	LastPulledTimestamp int64  `gorm:"column:last_pulled_timestamp;not null;default:0;index:idx_users_last_pulled;check:users_timestamps_check,last_pulled_timestamp >= 0"`
	LastUpdatedAt       int64  `gorm:"column:last_updated_at;not null"`
	CreatedAt           int64  `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }

// Place is a Places API record. Writes with an existing identifier are full
// replacements (last-write-wins). Coordinates are either both present and
// within valid geographic ranges, or both absent.
type Place struct {
	FsqPlaceID           string   `gorm:"column:fsq_place_id;primaryKey"`
	Name                 string   `gorm:"column:name;index:idx_places_name"`
	Latitude             *float64 `gorm:"column:latitude;index:idx_places_location,priority:1;check:places_coords_check,(latitude IS NULL AND longitude IS NULL) OR (latitude IS NOT NULL AND longitude IS NOT NULL AND latitude BETWEEN -90 AND 90 AND longitude BETWEEN -180 AND 180)"`
	Longitude            *float64 `gorm:"column:longitude;index:idx_places_location,priority:2"`
	Address              string   `gorm:"column:address"`
	Locality             string   `gorm:"column:locality;index:idx_places_locality"`
	Region               string   `gorm:"column:region"`
	Postcode             string   `gorm:"column:postcode"`
	Country              string   `gorm:"column:country"`
	FormattedAddress     string   `gorm:"column:formatted_address"`
	PrimaryCategoryFsqID string   `gorm:"column:primary_category_fsq_id;index:idx_places_category"`
	PrimaryCategoryName  string   `gorm:"column:primary_category_name"`
	Website              string   `gorm:"column:website"`
	Tel                  string   `gorm:"column:tel"`
	Email                string   `gorm:"column:email"`
	Price                *int     `gorm:"column:price"`
	Rating               *float64 `gorm:"column:rating"`
	LastUpdatedAt        int64    `gorm:"column:last_updated_at;not null"`
	CreatedAt            int64    `gorm:"column:created_at;autoCreateTime"`
}

func (Place) TableName() string { return "places" }

// Checkin is immutable once inserted: an identifier is never updated, only
// inserted-or-skipped.
type Checkin struct {
	CheckinID        string `gorm:"column:checkin_id;primaryKey"`
	FoursquareUserID string `gorm:"column:foursquare_user_id;not null;index:idx_checkins_user;index:idx_checkins_user_created,priority:1"`
	PlaceFsqID       string `gorm:"column:place_fsq_id;not null;index:idx_checkins_place"`
	CreatedAt        int64  `gorm:"column:created_at;not null;index:idx_checkins_created;index:idx_checkins_user_created,priority:2;check:checkins_timestamps_check,created_at > 0"`
	Type             string `gorm:"column:type"`
	Shout            string `gorm:"column:shout"`
	Private          bool   `gorm:"column:private;default:false"`
	Visibility       string `gorm:"column:visibility"`
	IsMayor          bool   `gorm:"column:is_mayor;default:false"`
	Liked            bool   `gorm:"column:liked;default:false"`
	CommentsCount    int    `gorm:"column:comments_count;default:0;check:checkins_counts_check,comments_count >= 0 AND likes_count >= 0 AND photos_count >= 0"`
	LikesCount       int    `gorm:"column:likes_count;default:0"`
	PhotosCount      int    `gorm:"column:photos_count;default:0"`
	SourceName       string `gorm:"column:source_name"`
	SourceURL        string `gorm:"column:source_url"`
	TimeZoneOffset   int    `gorm:"column:time_zone_offset"`
	ImportedAt       int64  `gorm:"column:imported_at;not null;autoCreateTime"`

	User  User  `gorm:"foreignKey:FoursquareUserID;references:FoursquareUserID;constraint:OnDelete:CASCADE"`
	Place Place `gorm:"foreignKey:PlaceFsqID;references:FsqPlaceID;constraint:OnDelete:RESTRICT"`
}

func (Checkin) TableName() string { return "checkins" }

// CheckinWithPlace is a row of the checkins_with_places reporting view
type CheckinWithPlace struct {
	CheckinID           string   `gorm:"column:checkin_id"`
	FoursquareUserID    string   `gorm:"column:foursquare_user_id"`
	CreatedAt           int64    `gorm:"column:created_at"`
	Type                string   `gorm:"column:type"`
	Shout               string   `gorm:"column:shout"`
	Private             bool     `gorm:"column:private"`
	Visibility          string   `gorm:"column:visibility"`
	IsMayor             bool     `gorm:"column:is_mayor"`
	Liked               bool     `gorm:"column:liked"`
	CommentsCount       int      `gorm:"column:comments_count"`
	LikesCount          int      `gorm:"column:likes_count"`
	PhotosCount         int      `gorm:"column:photos_count"`
	SourceName          string   `gorm:"column:source_name"`
	SourceURL           string   `gorm:"column:source_url"`
	TimeZoneOffset      int      `gorm:"column:time_zone_offset"`
	ImportedAt          int64    `gorm:"column:imported_at"`
	FsqPlaceID          *string  `gorm:"column:fsq_place_id"`
	PlaceName           *string  `gorm:"column:place_name"`
	Latitude            *float64 `gorm:"column:latitude"`
	Longitude           *float64 `gorm:"column:longitude"`
	Address             *string  `gorm:"column:address"`
	Locality            *string  `gorm:"column:locality"`
	Region              *string  `gorm:"column:region"`
	Postcode            *string  `gorm:"column:postcode"`
	Country             *string  `gorm:"column:country"`
	PrimaryCategoryName *string  `gorm:"column:primary_category_name"`
	Rating              *float64 `gorm:"column:rating"`
}

// UserStats is a row of the user_stats reporting view
type UserStats struct {
	FoursquareUserID    string `gorm:"column:foursquare_user_id"`
	LastPulledTimestamp int64  `gorm:"column:last_pulled_timestamp"`
	TotalCheckins       int64  `gorm:"column:total_checkins"`
	UniquePlaces        int64  `gorm:"column:unique_places"`
	FirstCheckinDate    *int64 `gorm:"column:first_checkin_date"`
	LastCheckinDate     *int64 `gorm:"column:last_checkin_date"`
}
