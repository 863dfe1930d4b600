package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"adventurebuddha/internal/clients/whatsapp"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"
)

const IntentUnsubscribe = "unsubscribe"

// WebhookPayload is the subset of the WhatsApp Business webhook body we read.
type WebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value WebhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type WebhookValue struct {
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []struct {
		From string `json:"from"`
		ID   string `json:"id"`
		Type string `json:"type"`
		Text struct {
			Body string `json:"body"`
		} `json:"text"`
	} `json:"messages"`
}

// Replier produces an agent answer for an inbound message.
type Replier interface {
	Process(ctx context.Context, query string, chatCtx models.ChatContext, history []models.ChatTurn) models.AgentReply
}

var cannedReplies = map[string]string{
	"trip_guidance":   "Thanks for your interest in our trips! Browse upcoming departures on our website or reply with a destination and our team will share options.",
	"payment":         "For payment help, pay via Razorpay or UPI from My Bookings. Our team can assist on WhatsApp +91-9876543210.",
	"customer_care":   "Thanks for reaching out to Adventure Buddha. Our support team will get back to you shortly.",
	IntentUnsubscribe: "You have been unsubscribed and will not receive further campaign messages.",
}

// DetectIntent maps an inbound text to an agent key using keywords.
func DetectIntent(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "stop" || t == "unsubscribe":
		return IntentUnsubscribe
	case strings.Contains(t, "booking") || strings.Contains(t, "trip"):
		return "trip_guidance"
	case strings.Contains(t, "payment") || strings.Contains(t, "pay"):
		return "payment"
	default:
		return "customer_care"
	}
}

type WebhookService struct {
	Contacts      repositories.ContactRepository
	Messages      repositories.MessageRepository
	Unsubscribers repositories.UnsubscriberRepository
	Sender        whatsapp.Sender
	Replier       Replier
	VerifyToken   string
	RequestID     string
	Now           clock
	// Spawn runs inbound processing; nil means a new goroutine.
	Spawn func(func())
}

// Verify answers the subscription handshake.
func (s WebhookService) Verify(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && s.VerifyToken != "" && token == s.VerifyToken {
		return challenge, true
	}
	return "", false
}

type inbound struct {
	incomingID int64
	contact    models.Contact
	body       string
}

// Handle stores every inbound text message and schedules its processing.
// It returns how many messages were accepted.
func (s WebhookService) Handle(ctx context.Context, p WebhookPayload) (int, error) {
	accepted := 0
	for _, e := range p.Entry {
		for _, ch := range e.Changes {
			v := ch.Value
			names := map[string]string{}
			for _, c := range v.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range v.Messages {
				if m.From == "" {
					continue
				}
				contact, err := s.findOrCreate("+"+strings.TrimPrefix(m.From, "+"), names[m.From])
				if err != nil {
					return accepted, err
				}
				id, err := s.Messages.CreateIncoming(models.IncomingMessage{
					ContactID:         contact.ID,
					ProviderMessageID: m.ID,
					MessageType:       m.Type,
					Body:              m.Text.Body,
				})
				if err != nil {
					return accepted, repoErr("incoming message", err)
				}
				accepted++
				in := inbound{incomingID: id, contact: contact, body: m.Text.Body}
				s.spawn(func() { s.process(context.WithoutCancel(ctx), in) })
			}
		}
	}
	utils.LogEvent(s.RequestID, "webhook", "inbound", fmt.Sprintf("accepted=%d", accepted))
	return accepted, nil
}

func (s WebhookService) spawn(f func()) {
	if s.Spawn != nil {
		s.Spawn(f)
		return
	}
	go f()
}

func (s WebhookService) findOrCreate(phone, name string) (models.Contact, error) {
	c, err := s.Contacts.FindByPhone(phone)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return c, repoErr("contact", err)
	}
	id, err := s.Contacts.CreateLoose(phone, name)
	if err != nil {
		return c, repoErr("contact", err)
	}
	return models.Contact{
		ID:             id,
		Name:           name,
		PhoneNumber:    phone,
		Status:         models.ContactWhatsAppValid,
		WhatsAppStatus: true,
		CustomFields:   map[string]string{},
	}, nil
}

func (s WebhookService) process(ctx context.Context, in inbound) {
	intent := DetectIntent(in.body)
	var reply string
	if intent == IntentUnsubscribe {
		if err := s.Unsubscribers.Add(in.contact.PhoneNumber, "Replied "+strings.ToUpper(strings.TrimSpace(in.body))); err != nil {
			utils.LogEvent(s.RequestID, "webhook", "unsubscribe_failed", err.Error())
		}
		reply = cannedReplies[IntentUnsubscribe]
	} else {
		reply = s.reply(ctx, intent, in)
	}

	now := s.Now.now()
	in.contact.AppendHistory(models.ConversationEntry{Timestamp: now, Message: in.body, Intent: intent, Reply: reply})
	if err := s.Contacts.SaveHistory(in.contact, now); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "history_failed", err.Error())
	}
	if err := s.Messages.FinishIncoming(in.incomingID, intent, reply, now); err != nil {
		utils.LogEvent(s.RequestID, "webhook", "finish_failed", err.Error())
	}
	if s.Sender != nil {
		if _, err := s.Sender.SendMessage(ctx, in.contact.PhoneNumber, reply, ""); err != nil {
			utils.LogEvent(s.RequestID, "webhook", "reply_failed", err.Error())
			return
		}
	}
	utils.LogEvent(s.RequestID, "webhook", "replied", fmt.Sprintf("incoming_id=%d intent=%s", in.incomingID, intent))
}

func (s WebhookService) reply(ctx context.Context, intent string, in inbound) string {
	if s.Replier == nil {
		return cannedReplies[intent]
	}
	history := make([]models.ChatTurn, 0, len(in.contact.ConversationHistory)*2)
	for _, h := range in.contact.ConversationHistory {
		history = append(history, models.ChatTurn{Role: "user", Content: h.Message})
		if h.Reply != "" {
			history = append(history, models.ChatTurn{Role: "assistant", Content: h.Reply})
		}
	}
	r := s.Replier.Process(ctx, in.body, models.ChatContext{Page: "whatsapp", SessionID: in.contact.PhoneNumber}, history)
	if r.AgentType == AgentErrorType || strings.TrimSpace(r.Content) == "" {
		return cannedReplies[intent]
	}
	return r.Content
}
