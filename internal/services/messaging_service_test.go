package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/repositories"
)

func TestMessagingStatsSuccessRate(t *testing.T) {
	cases := []struct {
		name         string
		sent, failed int
		want         float64
	}{
		{"mostly delivered", 45, 5, 90},
		{"rounded", 2, 1, 66.67},
		{"nothing sent", 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			mock.ExpectQuery(`FROM message_campaigns WHERE created_by=\?`).WithArgs(int64(4)).
				WillReturnRows(sqlmock.NewRows([]string{"total", "active", "completed", "sent", "failed"}).AddRow(3, 1, 2, tc.sent, tc.failed))

			st, err := MessagingService{Campaigns: repositories.CampaignRepository{DB: db}}.Stats(4)
			require.NoError(t, err)
			assert.Equal(t, 3, st.TotalCampaigns)
			assert.Equal(t, tc.want, st.SuccessRate)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
