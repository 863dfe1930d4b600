package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/events"
	"adventurebuddha/internal/realtime"
	"adventurebuddha/internal/repositories"
)

type recordingNotifier struct {
	mu     sync.Mutex
	groups []string
}

func (n *recordingNotifier) Broadcast(group string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.groups = append(n.groups, group)
}

func TestMonthlyGrowthAndOccupancy(t *testing.T) {
	assert.Equal(t, 0.0, MonthlyGrowth(5000, 0))
	assert.Equal(t, 25.0, MonthlyGrowth(12500, 10000))
	assert.Equal(t, -50.0, MonthlyGrowth(5000, 10000))

	assert.Equal(t, 0.0, Occupancy(4, 0))
	assert.Equal(t, 37.5, Occupancy(15, 40))
	assert.Equal(t, 100.0, Occupancy(50, 40))
}

func TestActivityRecorderStoresAndBroadcasts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO dashboard_activities`).WithArgs("lead", "New lead", "Ladakh", nil).
		WillReturnResult(sqlmock.NewResult(8, 1))

	n := &recordingNotifier{}
	r := ActivityRecorder{
		Dashboard: DashboardService{Dashboard: repositories.DashboardRepository{DB: db}, Now: func() time.Time { return time.Unix(0, 0) }},
		Notifier:  n,
	}
	body, err := json.Marshal(events.New(events.LeadCreated, 0, "New lead", "Ladakh", nil))
	require.NoError(t, err)

	require.NoError(t, r.Handle(events.LeadCreated, body))
	assert.Equal(t, []string{realtime.AdminDashboardGroup}, n.groups)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRecorderIgnoresUnknownKeys(t *testing.T) {
	r := ActivityRecorder{}
	body, _ := json.Marshal(events.New("trip.viewed", 0, "x", "", nil))
	assert.NoError(t, r.Handle("trip.viewed", body))
	assert.Error(t, r.Handle(events.LeadCreated, []byte("{")))
}
