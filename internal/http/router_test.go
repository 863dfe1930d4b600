package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/config"
	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/http/handlers"
	"adventurebuddha/internal/services"
)

func testRouter(t *testing.T) (*gin.Engine, *handlers.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := handlers.New(handlers.Deps{
		Tokens: services.Tokens{Secret: []byte("router-secret"), AccessTTL: time.Hour},
	})
	return NewRouter(h, config.Env{}), h
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	r, _ := testRouter(t)
	w := get(r, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"route not found"`)
}

func TestRouteGuards(t *testing.T) {
	r, h := testRouter(t)
	userToken, err := h.Tokens.Access(models.User{ID: 5, Role: domain.RoleUser})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/admin/overview", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/bookings", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/bookings", "not-a-jwt").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/api/admin/overview", userToken).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/api/ai/processing-logs", userToken).Code)
}

func TestRoutesListing(t *testing.T) {
	r, _ := testRouter(t)
	w := get(r, "/api/routes", "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, path := range []string{"/api/bookings/lock_seats", "/api/messaging/message-campaigns/:id/start", "/ws/dashboard"} {
		assert.Contains(t, w.Body.String(), path)
	}
}
