package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/utils"

	"github.com/google/uuid"
)

type SendResult struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

type StatusResult struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

type Balance struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
	Provider string  `json:"provider"`
}

// Sender delivers WhatsApp messages through a provider.
type Sender interface {
	SendMessage(ctx context.Context, phone, text, attachmentURL string) (SendResult, error)
	ValidateNumber(ctx context.Context, phone string) (models.PhoneCheck, error)
	MessageStatus(ctx context.Context, messageID string) (StatusResult, error)
	Balance(ctx context.Context) (Balance, error)
}

// HTTPConfig configures a WhatsApp-Business-shaped HTTP API.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	RetryCount int
	Timeout    time.Duration
}

type HTTPSender struct {
	config HTTPConfig
	client *http.Client
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewHTTPSender(cfg HTTPConfig) *HTTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPSender{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// New picks the mock sender when useMock is set or no API URL is configured.
func New(useMock bool, cfg HTTPConfig) Sender {
	if useMock || strings.TrimSpace(cfg.BaseURL) == "" {
		return &Mock{}
	}
	return NewHTTPSender(cfg)
}

func (s *HTTPSender) SendMessage(ctx context.Context, phone, text, attachmentURL string) (SendResult, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                strings.TrimPrefix(phone, "+"),
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	if attachmentURL != "" {
		payload["type"] = "document"
		payload["document"] = map[string]string{"link": attachmentURL, "caption": text}
		delete(payload, "text")
	}

	var out struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := s.withRetry(ctx, "send", func() error {
		return s.do(ctx, http.MethodPost, "/messages", payload, &out)
	}); err != nil {
		return SendResult{}, err
	}
	res := SendResult{Status: "sent"}
	if len(out.Messages) > 0 {
		res.MessageID = out.Messages[0].ID
	}
	return res, nil
}

func (s *HTTPSender) ValidateNumber(ctx context.Context, phone string) (models.PhoneCheck, error) {
	normalized, ok := NormalizePhone(phone)
	check := models.PhoneCheck{Number: normalized, IsValid: ok, CountryCode: CountryCode(normalized)}
	if !ok {
		return check, nil
	}
	var out struct {
		Contacts []struct {
			Status string `json:"status"`
		} `json:"contacts"`
	}
	err := s.withRetry(ctx, "validate", func() error {
		return s.do(ctx, http.MethodPost, "/contacts", map[string]any{
			"blocking": "wait",
			"contacts": []string{normalized},
		}, &out)
	})
	if err != nil {
		return check, err
	}
	check.IsWhatsAppUser = len(out.Contacts) > 0 && out.Contacts[0].Status == "valid"
	return check, nil
}

func (s *HTTPSender) MessageStatus(ctx context.Context, messageID string) (StatusResult, error) {
	var out StatusResult
	err := s.withRetry(ctx, "status", func() error {
		return s.do(ctx, http.MethodGet, "/messages/"+messageID, nil, &out)
	})
	if out.MessageID == "" {
		out.MessageID = messageID
	}
	return out, err
}

func (s *HTTPSender) Balance(ctx context.Context) (Balance, error) {
	var out Balance
	err := s.withRetry(ctx, "balance", func() error {
		return s.do(ctx, http.MethodGet, "/account/balance", nil, &out)
	})
	if out.Provider == "" {
		out.Provider = "whatsapp_business"
	}
	return out, err
}

// withRetry retries fn with exponential backoff (1s, 2s, 4s, ...). Client
// errors (4xx) are not retried.
func (s *HTTPSender) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.config.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			utils.LogEvent("", "whatsapp", "retry", fmt.Sprintf("op=%s attempt=%d backoff=%s", op, attempt+1, backoff))
			if err := s.sleep(ctx, backoff); err != nil {
				return err
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		var se statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			return err
		}
	}
	return fmt.Errorf("whatsapp %s failed after %d attempts: %w", op, s.config.RetryCount+1, lastErr)
}

type statusError struct {
	code int
	body string
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d %s", e.code, e.body)
}

func (s *HTTPSender) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
