package handlers

import (
	"net/http"
	"sync"
	"time"

	"adventurebuddha/internal/config"
	"adventurebuddha/internal/utils"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for /api/routes.
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": utils.FormatDateTime(time.Now())})
}

func (h *Handler) DBCheck(c *gin.Context) {
	db := h.DB
	if db == nil {
		if err := config.EnsureDB(); err != nil {
			RespondError(c, http.StatusServiceUnavailable, "database ping failed", err)
			return
		}
		db = config.DB
	} else if err := db.PingContext(c.Request.Context()); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "database ping failed", err)
		return
	}
	var count int
	if err := db.QueryRowContext(c.Request.Context(), "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "database query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "users_in_db": count})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		RespondError(c, http.StatusServiceUnavailable, "router not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
