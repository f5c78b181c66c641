package store

import (
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/clause"

	"fsqpull/pkg/logger"
)

// ErrMissingID indicates a record without its primary identifier was passed in
var ErrMissingID = errors.New("store: record missing identifier")

// Store provides idempotent persistence of check-in and place records plus
// the per-user watermark. All operations are atomic at single-record
// granularity; no multi-record transaction spans a page.
type Store struct {
	db     *gorm.DB
	now    func() time.Time
	logger logger.Logger
}

// Option customizes a Store
type Option func(*Store)

// WithClock overrides the time source, used by tests for deterministic rows
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.now = clock }
}

// Open establishes a SQLite connection and returns a Store. It does not
// create the schema; call Migrate for that.
func Open(path string, log logger.Logger, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		now:    time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the three relations with their constraints and indexes,
// plus the two read-only reporting views.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&User{}, &Place{}, &Checkin{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := s.createViews(); err != nil {
		return err
	}
	s.logger.Info("database schema ready")
	return nil
}

// Drop removes the engine's tables and views. Used by initdb --force.
func (s *Store) Drop() error {
	statements := []string{
		"DROP VIEW IF EXISTS user_stats",
		"DROP VIEW IF EXISTS checkins_with_places",
		"DROP TABLE IF EXISTS checkins",
		"DROP TABLE IF EXISTS places",
		"DROP TABLE IF EXISTS users",
	}
	for _, stmt := range statements {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}
	return nil
}

// VerifySchema confirms the required tables and views exist
func (s *Store) VerifySchema() error {
	required := map[string][]string{
		"table": {"users", "places", "checkins"},
		"view":  {"checkins_with_places", "user_stats"},
	}
	for kind, names := range required {
		for _, name := range names {
			var count int64
			err := s.db.Raw(
				"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name,
			).Scan(&count).Error
			if err != nil {
				return fmt.Errorf("failed to inspect schema: %w", err)
			}
			if count == 0 {
				return fmt.Errorf("missing %s %q", kind, name)
			}
		}
	}
	return nil
}

// UpsertPlace inserts or fully replaces a place keyed by its identifier
// (last-write-wins, not a merge).
func (s *Store) UpsertPlace(place *Place) error {
	if place == nil || place.FsqPlaceID == "" {
		return ErrMissingID
	}
	place.LastUpdatedAt = s.now().Unix()

	err := s.db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fsq_place_id"}},
			UpdateAll: true,
		}).
		Create(place).Error
	if err != nil {
		return fmt.Errorf("failed to upsert place %s: %w", place.FsqPlaceID, err)
	}

	s.logger.DebugWithFields("place upserted", map[string]interface{}{
		"place_id": place.FsqPlaceID,
		"name":     place.Name,
	})
	return nil
}

// InsertCheckinIfAbsent inserts a check-in unless its identifier already
// exists. Returns false without effect for duplicates, so re-running a pull
// over overlapping pages neither duplicates nor errors.
func (s *Store) InsertCheckinIfAbsent(checkin *Checkin) (bool, error) {
	if checkin == nil || checkin.CheckinID == "" {
		return false, ErrMissingID
	}

	result := s.db.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "checkin_id"}},
			DoNothing: true,
		}).
		Create(checkin)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert checkin %s: %w", checkin.CheckinID, result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	s.logger.DebugWithFields("checkin inserted", map[string]interface{}{
		"checkin_id": checkin.CheckinID,
		"created_at": checkin.CreatedAt,
	})
	return true, nil
}

// PlaceExists probes for a place identifier without loading the row
func (s *Store) PlaceExists(placeID string) (bool, error) {
	if placeID == "" {
		return false, ErrMissingID
	}
	var count int64
	err := s.db.Model(&Place{}).Where("fsq_place_id = ?", placeID).Limit(1).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check place existence: %w", err)
	}
	return count > 0, nil
}

// GetPlace loads a place by identifier, returning nil when absent
func (s *Store) GetPlace(placeID string) (*Place, error) {
	var place Place
	err := s.db.Where("fsq_place_id = ?", placeID).First(&place).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load place %s: %w", placeID, err)
	}
	return &place, nil
}

// GetWatermark returns the user's resumption cursor; an absent row reads as
// 0, meaning a full sync from the beginning.
func (s *Store) GetWatermark(userID string) (int64, error) {
	var user User
	err := s.db.Where("foursquare_user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read watermark for user %s: %w", userID, err)
	}
	return user.LastPulledTimestamp, nil
}

// AdvanceWatermark upserts the user's row with the new timestamp. Callers
// only invoke it with a value exceeding the prior one, after a page loop
// concludes, so an interrupted run resumes from the last confirmed value.
func (s *Store) AdvanceWatermark(userID string, timestamp int64) error {
	if userID == "" {
		return ErrMissingID
	}
	user := User{
		FoursquareUserID:    userID,
		LastPulledTimestamp: timestamp,
		LastUpdatedAt:       s.now().Unix(),
	}
	err := s.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "foursquare_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_pulled_timestamp", "last_updated_at"}),
		}).
		Create(&user).Error
	if err != nil {
		return fmt.Errorf("failed to advance watermark for user %s: %w", userID, err)
	}

	s.logger.InfoWithFields("watermark advanced", map[string]interface{}{
		"user_id":   userID,
		"timestamp": timestamp,
	})
	return nil
}

// CountCheckins returns the number of stored check-ins for a user
func (s *Store) CountCheckins(userID string) (int64, error) {
	var count int64
	err := s.db.Model(&Checkin{}).Where("foursquare_user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count checkins: %w", err)
	}
	return count, nil
}
