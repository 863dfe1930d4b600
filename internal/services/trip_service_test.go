package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
)

var tripCols = []string{"id", "slug", "title", "subtitle", "description", "overview", "images",
	"price", "original_price", "gst_percentage", "duration", "tags", "category", "featured_status", "difficulty",
	"rating", "review_count", "inclusions", "exclusions", "things_to_carry", "important_points",
	"who_can_attend", "itinerary", "contact_info", "bank_details", "notes",
	"status", "created_at", "updated_at"}

func addTrip(rows *sqlmock.Rows, id int64, slug, tags, featured string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, slug, slug, "", "", "", `[]`,
		4500.0, nil, 5.0, "2D/1N", tags, "mixed", featured, "moderate",
		4.5, 12, `[]`, `[]`, `[]`, `[]`,
		"", nil, nil, nil, "",
		models.TripStatusPublished, now, now)
}

func TestTripListRequiresEveryTag(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(tripCols)
	addTrip(rows, 1, "kedarkantha", `["trek","snow"]`, "none")
	addTrip(rows, 2, "rishikesh-rafting", `["water"]`, "none")
	addTrip(rows, 3, "chopta", `["trek"]`, "none")
	mock.ExpectQuery(`FROM trips WHERE 1=1 AND status=\?`).WithArgs(models.TripStatusPublished).WillReturnRows(rows)

	s := TripService{Trips: repositories.TripRepository{DB: db}}
	trips, err := s.List(models.TripFilter{Tags: []string{"trek", "snow"}})
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "kedarkantha", trips[0].Slug)
}

func TestTripFeaturedCacheFlushedOnWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := cache.New(time.Minute, time.Minute)
	s := TripService{Trips: repositories.TripRepository{DB: db}, Cache: c}

	mock.ExpectQuery(`featured_status IN \('featured','both'\)`).
		WillReturnRows(addTrip(sqlmock.NewRows(tripCols), 1, "kedarkantha", `[]`, "featured"))
	first, err := s.Featured()
	require.NoError(t, err)
	require.Len(t, first, 1)

	cached, err := s.Featured()
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	changed := 0
	s.OnChange = func() { changed++ }
	mock.ExpectExec(`DELETE FROM trips WHERE id=\?`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete(1))
	assert.Equal(t, 1, changed)
	assert.Equal(t, 0, c.ItemCount())

	mock.ExpectQuery(`featured_status IN \('featured','both'\)`).WillReturnRows(sqlmock.NewRows(tripCols))
	after, err := s.Featured()
	require.NoError(t, err)
	assert.Empty(t, after)
	assert.NoError(t, mock.ExpectationsWereMet())
}
