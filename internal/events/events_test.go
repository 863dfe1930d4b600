package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

func TestLocalPublisherDeliversBody(t *testing.T) {
	var gotKey string
	var got Event
	l := Local{Sync: true, Handler: func(key string, body []byte) error {
		gotKey = key
		return json.Unmarshal(body, &got)
	}}

	ev := New(BookingCreated, 7, "New booking", "2 seats", map[string]any{"booking_id": 21})
	require.NoError(t, l.Publish(ev.Key, ev))
	assert.Equal(t, BookingCreated, gotKey)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, float64(21), got.Data["booking_id"])
}

func TestLocalPublisherWithoutHandler(t *testing.T) {
	assert.NoError(t, Local{}.Publish(LeadCreated, New(LeadCreated, 0, "x", "", nil)))
}

func TestEmitSwallowsErrors(t *testing.T) {
	p := &recordingPublisher{err: errors.New("broker down")}
	Emit(p, "req-1", New(PaymentCompleted, 1, "Payment", "", nil))
	assert.Equal(t, []string{PaymentCompleted}, p.keys)

	Emit(nil, "req-1", New(PaymentCompleted, 1, "Payment", "", nil))
}
