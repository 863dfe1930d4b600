package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/config"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := New(Deps{
		Env: config.Env{WhatsAppWebhookToken: "hook-secret", SeatLockTTL: 5 * time.Minute},
		DB:  db,
		Tokens: services.Tokens{
			Secret:    []byte("test-secret"),
			AccessTTL: time.Hour,
		},
	})
	return h, mock
}

func accessToken(t *testing.T, h *Handler, id int64, role string) string {
	t.Helper()
	tok, err := h.Tokens.Access(models.User{ID: id, Role: role})
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/api/health", Health)

	w := serve(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"time"`)
}

func TestDBCheck(t *testing.T) {
	h, mock := newTestHandler(t)
	r := gin.New()
	r.GET("/api/db-check", h.DBCheck)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	w := serve(r, http.MethodGet, "/api/db-check", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"users_in_db":3`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookVerification(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/hook", h.VerifyWebhook)

	w := serve(r, http.MethodGet, "/hook?hub.mode=subscribe&hub.verify_token=hook-secret&hub.challenge=12345", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())

	w = serve(r, http.MethodGet, "/hook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Verification failed", w.Body.String())
}

func TestCaptureLeadValidation(t *testing.T) {
	h, mock := newTestHandler(t)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/api/leads", h.CaptureLead)

	w := serve(r, http.MethodPost, "/api/leads", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "request body is empty")

	w = serve(r, http.MethodPost, "/api/leads", `{"email":"asha@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockSeatsRequiresSeats(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.POST("/lock", func(c *gin.Context) {
		middleware.SetUser(c, 7, domain.RoleUser)
		h.LockSeats(c)
	})

	w := serve(r, http.MethodPost, "/lock", `{"slot_id":1,"seat_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPathIDRejectsGarbage(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/bookings/:id", func(c *gin.Context) {
		middleware.SetUser(c, 7, domain.RoleUser)
		h.GetBooking(c)
	})

	w := serve(r, http.MethodGet, "/bookings/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func dialWS(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

func TestDashboardSocketRejectsAnonymous(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/ws/dashboard", h.DashboardSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, err := dialWS(t, srv, "/ws/dashboard")
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestDashboardSocketCommands(t *testing.T) {
	h, _ := newTestHandler(t)
	r := gin.New()
	r.GET("/ws/dashboard", h.DashboardSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, err := dialWS(t, srv, "/ws/dashboard?token="+accessToken(t, h, 9, domain.RoleUser))
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// no rows are mocked, so the initial snapshot reports a failure
	var first map[string]any
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "failed to load dashboard", first["error"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var bad map[string]any
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, "Invalid JSON format", bad["error"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	var pong map[string]any
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong["type"])
	assert.NotEmpty(t, pong["timestamp"])
}

func TestSeatSocketClosesForUnknownSlot(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.ExpectQuery("FROM trip_slots").WillReturnError(sql.ErrNoRows)

	r := gin.New()
	r.GET("/ws/seats/:slot_id", h.SeatSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, err := dialWS(t, srv, "/ws/seats/99")
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}
