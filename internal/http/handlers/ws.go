package handlers

import (
	"encoding/json"
	"time"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/realtime"
	"adventurebuddha/internal/services"
	"adventurebuddha/internal/utils"

	"github.com/gin-gonic/gin"
)

type wsCommand struct {
	Type string `json:"type"`
}

// wsUser authenticates a socket from its ?token= query parameter.
func (h *Handler) wsUser(c *gin.Context) (int64, string, bool) {
	token := c.Query("token")
	if token == "" {
		return 0, "", false
	}
	id, role, err := h.VerifyAccess(token)
	if err != nil {
		return 0, "", false
	}
	return id, role, true
}

func (h *Handler) snapshotFor(reqID string, userID int64, admin bool) (services.Snapshot, error) {
	dash := h.Dashboard(reqID)
	if admin {
		return dash.AdminSnapshot()
	}
	return dash.UserSnapshot(userID)
}

// GET /ws/dashboard?token=
func (h *Handler) DashboardSocket(c *gin.Context) {
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	reqID := middleware.GetRequestID(c)
	userID, role, ok := h.wsUser(c)
	if !ok {
		realtime.Reject(conn, "authentication required")
		return
	}
	admin := role == domain.RoleAdmin
	group := realtime.UserDashboardGroup(userID)
	if admin {
		group = realtime.AdminDashboardGroup
	}
	utils.LogEvent(reqID, "ws", "dashboard_connect", group)

	sendSnapshot := func(cl *realtime.Client) {
		snap, err := h.snapshotFor(reqID, userID, admin)
		if err != nil {
			utils.LogEvent(reqID, "ws", "snapshot_failed", err.Error())
			cl.Send(gin.H{"error": "failed to load dashboard"})
			return
		}
		cl.Send(snap)
	}

	h.Hub.Attach(conn, userID, []string{group}, sendSnapshot, func(cl *realtime.Client, msg []byte) {
		var cmd wsCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			cl.Send(gin.H{"error": "Invalid JSON format"})
			return
		}
		switch cmd.Type {
		case "ping":
			cl.Send(gin.H{"type": "pong", "timestamp": utils.FormatDateTime(time.Now())})
		case "request_update":
			sendSnapshot(cl)
		}
	})
}

// GET /ws/notifications?token=
func (h *Handler) NotificationsSocket(c *gin.Context) {
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	userID, _, ok := h.wsUser(c)
	if !ok {
		realtime.Reject(conn, "authentication required")
		return
	}
	h.Hub.Attach(conn, userID, []string{realtime.NotificationsGroup(userID)}, nil, func(cl *realtime.Client, msg []byte) {
		var cmd wsCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			cl.Send(gin.H{"error": "Invalid JSON format"})
			return
		}
		if cmd.Type == "ping" {
			cl.Send(gin.H{"type": "pong", "timestamp": utils.FormatDateTime(time.Now())})
		}
	})
}

// GET /ws/seats/:slot_id streams seat lock/release/book events of one slot.
func (h *Handler) SeatSocket(c *gin.Context) {
	slotID, ok := pathID(c, "slot_id")
	if !ok {
		return
	}
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	if _, err := h.trips(c).Slot(slotID); err != nil {
		realtime.Reject(conn, "unknown slot")
		return
	}
	var userID int64
	if id, _, ok := h.wsUser(c); ok {
		userID = id
	}
	h.Hub.Attach(conn, userID, []string{realtime.SeatUpdatesGroup(slotID)}, nil, nil)
}
