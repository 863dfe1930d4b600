package events

import (
	"encoding/json"
	"time"

	"adventurebuddha/internal/utils"
)

const (
	BookingCreated    = "booking.created"
	BookingCancelled  = "booking.cancelled"
	PaymentCompleted  = "payment.completed"
	LeadCreated       = "lead.created"
	CampaignCompleted = "campaign.completed"
)

// Event is the body published for every routing key.
type Event struct {
	Key         string         `json:"key"`
	UserID      int64          `json:"user_id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func New(key string, userID int64, title, description string, data map[string]any) Event {
	return Event{Key: key, UserID: userID, Title: title, Description: description, Data: data, OccurredAt: time.Now()}
}

type Publisher interface {
	Publish(routingKey string, payload any) error
}

// Handler processes one delivered event body.
type Handler func(routingKey string, body []byte) error

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }

// Local hands events straight to a handler in process. It stands in for the
// broker when RabbitMQ is not configured.
type Local struct {
	Handler Handler
	// Sync runs the handler on the caller's goroutine.
	Sync bool
}

func (l Local) Publish(routingKey string, payload any) error {
	if l.Handler == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if l.Sync {
		return l.Handler(routingKey, body)
	}
	go func() {
		if err := l.Handler(routingKey, body); err != nil {
			utils.LogEvent(utils.WorkerTag("activity"), "events", "local_handle_failed", routingKey+": "+err.Error())
		}
	}()
	return nil
}

// Emit publishes and only logs failures; domain writes never fail because an
// event could not be delivered.
func Emit(p Publisher, requestID string, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ev.Key, ev); err != nil {
		utils.LogEvent(requestID, "events", "publish_failed", ev.Key+": "+err.Error())
	}
}
