package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate())
	return s
}

func floatPtr(v float64) *float64 { return &v }

func testCheckin(id string, createdAt int64) *Checkin {
	return &Checkin{
		CheckinID:        id,
		FoursquareUserID: "user1",
		PlaceFsqID:       "place1",
		CreatedAt:        createdAt,
		Type:             "checkin",
	}
}

func TestMigrateAndVerifySchema(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.VerifySchema())

	// A second migrate against an existing schema is harmless.
	require.NoError(t, s.Migrate())
	require.NoError(t, s.VerifySchema())
}

func TestDropRemovesSchema(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Drop())
	assert.Error(t, s.VerifySchema())

	require.NoError(t, s.Migrate())
	require.NoError(t, s.VerifySchema())
}

func TestInsertCheckinIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	inserted, err := s.InsertCheckinIfAbsent(testCheckin("c1", 100))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same identifier again: skipped, not an error, existing row untouched.
	dup := testCheckin("c1", 100)
	dup.Shout = "changed"
	inserted, err = s.InsertCheckinIfAbsent(dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := s.CountCheckins("user1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertCheckinRequiresID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.InsertCheckinIfAbsent(&Checkin{FoursquareUserID: "user1", CreatedAt: 100})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestInsertCheckinRejectsNonPositiveTimestamp(t *testing.T) {
	s := openTestStore(t)

	_, err := s.InsertCheckinIfAbsent(testCheckin("c1", 0))
	assert.Error(t, err)
}

func TestCheckinInsertsWithoutPlaceRow(t *testing.T) {
	s := openTestStore(t)

	// Place resolution can fail; the check-in still lands with its
	// place reference intact.
	inserted, err := s.InsertCheckinIfAbsent(testCheckin("c1", 100))
	require.NoError(t, err)
	assert.True(t, inserted)

	exists, err := s.PlaceExists("place1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertPlaceLastWriteWins(t *testing.T) {
	s := openTestStore(t)

	first := &Place{
		FsqPlaceID: "p1",
		Name:       "Old Name",
		Latitude:   floatPtr(60.17),
		Longitude:  floatPtr(24.94),
		Website:    "https://old.example",
	}
	require.NoError(t, s.UpsertPlace(first))

	// Replacement clears fields the new record omits.
	second := &Place{
		FsqPlaceID: "p1",
		Name:       "New Name",
	}
	require.NoError(t, s.UpsertPlace(second))

	got, err := s.GetPlace("p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "New Name", got.Name)
	assert.Nil(t, got.Latitude)
	assert.Empty(t, got.Website)
}

func TestUpsertPlaceRejectsPartialCoordinates(t *testing.T) {
	s := openTestStore(t)

	err := s.UpsertPlace(&Place{
		FsqPlaceID: "p1",
		Name:       "Half Located",
		Latitude:   floatPtr(60.17),
	})
	assert.Error(t, err)
}

func TestUpsertPlaceRejectsOutOfRangeCoordinates(t *testing.T) {
	s := openTestStore(t)

	err := s.UpsertPlace(&Place{
		FsqPlaceID: "p1",
		Name:       "Nowhere",
		Latitude:   floatPtr(91),
		Longitude:  floatPtr(0),
	})
	assert.Error(t, err)
}

func TestGetPlaceReturnsNilWhenAbsent(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetPlace("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWatermarkLifecycle(t *testing.T) {
	s := openTestStore(t)

	// Unknown user reads as zero.
	wm, err := s.GetWatermark("user1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wm)

	require.NoError(t, s.AdvanceWatermark("user1", 300))
	wm, err = s.GetWatermark("user1")
	require.NoError(t, err)
	assert.Equal(t, int64(300), wm)

	require.NoError(t, s.AdvanceWatermark("user1", 500))
	wm, err = s.GetWatermark("user1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), wm)
}

func TestWatermarksAreIndependentPerUser(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AdvanceWatermark("user1", 300))
	require.NoError(t, s.AdvanceWatermark("user2", 700))

	wm1, err := s.GetWatermark("user1")
	require.NoError(t, err)
	wm2, err := s.GetWatermark("user2")
	require.NoError(t, err)

	assert.Equal(t, int64(300), wm1)
	assert.Equal(t, int64(700), wm2)
}

func TestCheckinsWithPlacesView(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertPlace(&Place{
		FsqPlaceID: "place1",
		Name:       "Cafe",
		Latitude:   floatPtr(60.17),
		Longitude:  floatPtr(24.94),
	}))

	_, err := s.InsertCheckinIfAbsent(testCheckin("c1", 100))
	require.NoError(t, err)
	_, err = s.InsertCheckinIfAbsent(testCheckin("c2", 300))
	require.NoError(t, err)

	orphan := testCheckin("c3", 200)
	orphan.PlaceFsqID = "unknown-place"
	_, err = s.InsertCheckinIfAbsent(orphan)
	require.NoError(t, err)

	rows, err := s.CheckinsWithPlaces("user1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Newest first.
	assert.Equal(t, "c2", rows[0].CheckinID)
	assert.Equal(t, "c3", rows[1].CheckinID)
	assert.Equal(t, "c1", rows[2].CheckinID)

	require.NotNil(t, rows[0].PlaceName)
	assert.Equal(t, "Cafe", *rows[0].PlaceName)

	// LEFT JOIN keeps check-ins whose place was never resolved.
	assert.Nil(t, rows[1].PlaceName)
}

func TestUserStatsView(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AdvanceWatermark("user1", 300))
	_, err := s.InsertCheckinIfAbsent(testCheckin("c1", 100))
	require.NoError(t, err)
	_, err = s.InsertCheckinIfAbsent(testCheckin("c2", 300))
	require.NoError(t, err)

	other := testCheckin("c3", 200)
	other.PlaceFsqID = "place2"
	_, err = s.InsertCheckinIfAbsent(other)
	require.NoError(t, err)

	stats, err := s.UserStatsFor("user1")
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, int64(3), stats.TotalCheckins)
	assert.Equal(t, int64(2), stats.UniquePlaces)
	assert.Equal(t, int64(300), stats.LastPulledTimestamp)
	require.NotNil(t, stats.FirstCheckinDate)
	require.NotNil(t, stats.LastCheckinDate)
	assert.Equal(t, int64(100), *stats.FirstCheckinDate)
	assert.Equal(t, int64(300), *stats.LastCheckinDate)
}

func TestUserStatsForUnknownUser(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.UserStatsFor("nobody")
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestWithClock(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())

	require.NoError(t, s.UpsertPlace(&Place{FsqPlaceID: "p1", Name: "Cafe"}))

	got, err := s.GetPlace("p1")
	require.NoError(t, err)
	assert.Equal(t, fixed.Unix(), got.LastUpdatedAt)
}
