package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"98765 43210", "+919876543210", true},
		{"919876543210", "+919876543210", true},
		{"+1 (415) 555-0100", "+14155550100", true},
		{"12345", "12345", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizePhone(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "IN", CountryCode("+919876543210"))
	assert.Equal(t, "US", CountryCode("+14155550100"))
	assert.Equal(t, "GB", CountryCode("+447700900123"))
	assert.Equal(t, "Unknown", CountryCode("+61412345678"))
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestHTTPSenderRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "919876543210", body["to"])
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	s := NewHTTPSender(HTTPConfig{BaseURL: srv.URL, APIKey: "k", RetryCount: 3})
	s.sleep = noSleep

	res, err := s.SendMessage(context.Background(), "+919876543210", "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", res.MessageID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSenderGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTPSender(HTTPConfig{BaseURL: srv.URL, RetryCount: 2})
	s.sleep = noSleep

	_, err := s.SendMessage(context.Background(), "+919876543210", "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewHTTPSender(HTTPConfig{BaseURL: srv.URL, RetryCount: 3})
	s.sleep = noSleep

	_, err := s.SendMessage(context.Background(), "+919876543210", "hi", "")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMockSender(t *testing.T) {
	m := &Mock{FailPhones: map[string]bool{"+911111111111": true}}
	res, err := m.SendMessage(context.Background(), "+919876543210", "hello", "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)

	_, err = m.SendMessage(context.Background(), "+911111111111", "hello", "")
	assert.Error(t, err)
	assert.Len(t, m.Sent(), 1)

	check, err := m.ValidateNumber(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.True(t, check.IsWhatsAppUser)
	assert.Equal(t, "IN", check.CountryCode)
}

func TestNewPicksMockWithoutURL(t *testing.T) {
	_, isMock := New(false, HTTPConfig{}).(*Mock)
	assert.True(t, isMock)
	_, isHTTP := New(false, HTTPConfig{BaseURL: "http://x"}).(*HTTPSender)
	assert.True(t, isHTTP)
}
