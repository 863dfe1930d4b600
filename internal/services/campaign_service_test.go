package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/clients/whatsapp"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
)

type recordedEnqueue struct {
	campaignID int64
	delay      time.Duration
}

type fakeQueue struct {
	calls []recordedEnqueue
}

func (q *fakeQueue) Enqueue(_ context.Context, campaignID int64, delay time.Duration) error {
	q.calls = append(q.calls, recordedEnqueue{campaignID, delay})
	return nil
}

var campaignCols = []string{"id", "name", "template_id", "message_content", "attachment_url", "contact_list_id", "status",
	"campaign_type", "personalization_rules", "delay_between_messages", "batch_size", "total_messages", "sent_messages",
	"delivered_messages", "failed_messages", "pending_messages", "current_batch", "last_message_sent_at", "scheduled_at",
	"started_at", "completed_at", "created_by", "created_at", "updated_at"}

func campaignRow(id int64, status string, batch int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(campaignCols).AddRow(id, "Monsoon offers", nil, "Hi {{name}}", "", int64(3), status,
		models.CampaignStandard, `{}`, 0, batch, 2, 0, 0, 0, 2, 0, nil, nil, nil, nil, int64(9), now, now)
}

var messageCols = []string{"id", "campaign_id", "contact_id", "content", "attachment_url", "status", "provider_message_id",
	"error_message", "retry_count", "max_retries", "sent_at", "delivered_at", "created_at", "phone_number", "name"}

func TestPersonalize(t *testing.T) {
	c := models.Contact{Name: "Asha", PhoneNumber: "+919876543210", CustomFields: map[string]string{"city": "Pune"}}
	got := Personalize("Hi {{name}} from {{city}}, reply on {{phone}}. {{email}}", c, map[string]string{"email": "no email"})
	assert.Equal(t, "Hi Asha from Pune, reply on +919876543210. no email", got)
}

func TestCampaignSenderSendsBatchAndRequeues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM message_campaigns WHERE id=\?`).WithArgs(int64(4)).WillReturnRows(campaignRow(4, models.CampaignRunning, 10))
	mock.ExpectQuery(`FROM messages m LEFT JOIN contacts ct`).WithArgs(int64(4), models.MessageQueued, 10).
		WillReturnRows(sqlmock.NewRows(messageCols).AddRow(int64(11), int64(4), int64(21), "Hi Asha", "", models.MessageQueued, "", "", 0, 3,
			nil, nil, time.Now(), "+919876543210", "Asha"))
	mock.ExpectExec(`UPDATE messages SET status=\? WHERE id=\?`).WithArgs(models.MessageSending, int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE messages SET status=\?, provider_message_id=\?`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO message_logs`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE message_campaigns SET sent_messages=sent_messages\+1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE message_campaigns SET current_batch=current_batch\+1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))

	sender := &whatsapp.Mock{}
	queue := &fakeQueue{}
	s := CampaignSender{
		Campaigns: repositories.CampaignRepository{DB: db},
		Messages:  repositories.MessageRepository{DB: db},
		Sender:    sender,
		Queue:     queue,
	}
	require.NoError(t, s.ProcessBatch(context.Background(), 4))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+919876543210", sent[0].Phone)
	assert.Equal(t, []recordedEnqueue{{4, NextBatchDelay}}, queue.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignSenderDeliverSurvivesLogWriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	mock.ExpectExec(`UPDATE messages SET status=\? WHERE id=\?`).WithArgs(models.MessageSending, int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE messages SET status=\?, provider_message_id=\?`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO message_logs`).WillReturnError(errors.New("disk full"))
	mock.ExpectExec(`UPDATE message_campaigns SET sent_messages=sent_messages\+1`).WillReturnResult(sqlmock.NewResult(0, 1))

	s := CampaignSender{
		Campaigns: repositories.CampaignRepository{DB: db},
		Messages:  repositories.MessageRepository{DB: db},
		Sender:    &whatsapp.Mock{},
	}
	sent, err := s.Deliver(context.Background(), models.MessageCampaign{ID: 4}, models.Message{ID: 11, PhoneNumber: "+919876543210", Content: "Hi"})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Contains(t, buf.String(), "action=message_log_failed")
	assert.Contains(t, buf.String(), "message_id=11 event=sent: disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignSenderCompletesWhenQueueEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM message_campaigns WHERE id=\?`).WillReturnRows(campaignRow(4, models.CampaignRunning, 10))
	mock.ExpectQuery(`FROM messages m LEFT JOIN contacts ct`).WillReturnRows(sqlmock.NewRows(messageCols))
	mock.ExpectExec(`UPDATE message_campaigns\s+SET status=\?`).WithArgs(models.CampaignCompleted, nil, sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	queue := &fakeQueue{}
	s := CampaignSender{Campaigns: repositories.CampaignRepository{DB: db}, Messages: repositories.MessageRepository{DB: db}, Queue: queue}
	require.NoError(t, s.ProcessBatch(context.Background(), 4))
	assert.Empty(t, queue.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignSenderSkipsPausedCampaign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM message_campaigns WHERE id=\?`).WillReturnRows(campaignRow(4, models.CampaignPaused, 10))

	s := CampaignSender{Campaigns: repositories.CampaignRepository{DB: db}, Messages: repositories.MessageRepository{DB: db}}
	require.NoError(t, s.ProcessBatch(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignStartRejectsRunningCampaign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM message_campaigns WHERE id=\? AND created_by=\?`).WithArgs(int64(4), int64(9)).
		WillReturnRows(campaignRow(4, models.CampaignRunning, 10))

	s := CampaignService{Campaigns: repositories.CampaignRepository{DB: db}}
	_, err = s.Start(context.Background(), 9, 4)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Cannot start campaign in running status", err.Error())
}

func TestCampaignPerformActionRejectsResumeOfRunning(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM message_campaigns WHERE id=\? AND created_by=\?`).WillReturnRows(campaignRow(4, models.CampaignRunning, 10))

	s := CampaignService{Campaigns: repositories.CampaignRepository{DB: db}}
	_, err = s.PerformAction(context.Background(), 9, 4, "resume")
	assert.EqualError(t, err, "Cannot resume campaign in running status")
}

func TestBulkSendValidatesNumbers(t *testing.T) {
	s := MessagingService{}
	_, err := s.BulkSend(context.Background(), BulkInput{Message: "hi"})
	assert.True(t, domain.IsValidation(err))

	many := make([]string, maxBulkNumbers+1)
	_, err = s.BulkSend(context.Background(), BulkInput{PhoneNumbers: many, Message: "hi"})
	assert.True(t, domain.IsValidation(err))
}
