package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/clients/whatsapp"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
)

type fixedReplier struct{ reply models.AgentReply }

func (f fixedReplier) Process(context.Context, string, models.ChatContext, []models.ChatTurn) models.AgentReply {
	return f.reply
}

func TestDetectIntent(t *testing.T) {
	cases := map[string]string{
		"STOP":                        IntentUnsubscribe,
		" unsubscribe ":               IntentUnsubscribe,
		"I want to change my booking": "trip_guidance",
		"Next trip to Goa?":           "trip_guidance",
		"how do I pay":                "payment",
		"need help":                   "customer_care",
		"hello":                       "customer_care",
	}
	for in, want := range cases {
		assert.Equal(t, want, DetectIntent(in), in)
	}
}

func TestWebhookVerify(t *testing.T) {
	s := WebhookService{VerifyToken: "secret"}
	challenge, ok := s.Verify("subscribe", "secret", "123")
	assert.True(t, ok)
	assert.Equal(t, "123", challenge)

	_, ok = s.Verify("subscribe", "wrong", "123")
	assert.False(t, ok)

	_, ok = WebhookService{}.Verify("subscribe", "", "123")
	assert.False(t, ok)
}

func TestWebhookHandleCreatesContactAndReplies(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(`{"entry":[{"changes":[{"value":{
		"contacts":[{"wa_id":"919876543210","profile":{"name":"Ravi"}}],
		"messages":[{"from":"919876543210","id":"wamid.1","type":"text","text":{"body":"Any trip in July?"}}]
	}}]}]}`), &payload))

	mock.ExpectQuery(`FROM contacts c WHERE c.phone_number=\?`).WithArgs("+919876543210").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO contacts`).WithArgs("Ravi", "+919876543210", models.ContactWhatsAppValid).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectExec(`INSERT INTO incoming_messages`).WithArgs(int64(31), "wamid.1", "text", "Any trip in July?").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(`UPDATE contacts SET conversation_history=\?`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE incoming_messages SET intent=\?`).WithArgs("trip_guidance", "We have Ladakh in July.", sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sender := &whatsapp.Mock{}
	s := WebhookService{
		Contacts: repositories.ContactRepository{DB: db},
		Messages: repositories.MessageRepository{DB: db},
		Sender:   sender,
		Replier:  fixedReplier{models.AgentReply{Content: "We have Ladakh in July.", AgentType: "trip_guidance"}},
		Now:      func() time.Time { return time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC) },
		Spawn:    func(f func()) { f() },
	}

	n, err := s.Handle(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "We have Ladakh in July.", sent[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookReplyFallsBackToCanned(t *testing.T) {
	s := WebhookService{Replier: fixedReplier{models.AgentReply{AgentType: AgentErrorType, Content: "sorry"}}}
	got := s.reply(context.Background(), "payment", inbound{body: "pay"})
	assert.Equal(t, cannedReplies["payment"], got)
}
