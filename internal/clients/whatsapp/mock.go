package whatsapp

import (
	"context"
	"errors"
	"sync"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/utils"

	"github.com/google/uuid"
)

// Sent is a message recorded by the mock sender.
type Sent struct {
	Phone         string
	Text          string
	AttachmentURL string
	MessageID     string
}

// Mock accepts every valid number and records what it was asked to send.
// FailPhones makes sends to those numbers fail.
type Mock struct {
	mu         sync.Mutex
	sent       []Sent
	FailPhones map[string]bool
}

func (m *Mock) SendMessage(_ context.Context, phone, text, attachmentURL string) (SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPhones[phone] {
		return SendResult{}, errors.New("mock delivery failure")
	}
	id := "wamid." + uuid.NewString()
	m.sent = append(m.sent, Sent{Phone: phone, Text: text, AttachmentURL: attachmentURL, MessageID: id})
	utils.LogEvent("", "whatsapp", "mock_send", "to="+phone)
	return SendResult{MessageID: id, Status: "sent"}, nil
}

func (m *Mock) ValidateNumber(_ context.Context, phone string) (models.PhoneCheck, error) {
	normalized, ok := NormalizePhone(phone)
	return models.PhoneCheck{
		Number:         normalized,
		IsValid:        ok,
		IsWhatsAppUser: ok,
		CountryCode:    CountryCode(normalized),
	}, nil
}

func (m *Mock) MessageStatus(_ context.Context, messageID string) (StatusResult, error) {
	return StatusResult{MessageID: messageID, Status: "delivered"}, nil
}

func (m *Mock) Balance(context.Context) (Balance, error) {
	return Balance{Balance: 1000, Currency: "INR", Provider: "mock"}, nil
}

// Sent returns a copy of every message accepted so far.
func (m *Mock) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}
