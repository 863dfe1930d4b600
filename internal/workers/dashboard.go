package workers

import (
	"context"
	"time"

	"adventurebuddha/internal/events"
	"adventurebuddha/internal/realtime"
	"adventurebuddha/internal/services"
	"adventurebuddha/internal/utils"
)

// Broadcaster is satisfied by *realtime.Hub.
type Broadcaster interface {
	Broadcast(group string, payload any)
	GroupSize(group string) int
}

// RunDashboardPush recomputes the admin snapshot and pushes it to connected
// admin dashboards. Nothing is computed while no admin is connected.
func RunDashboardPush(ctx context.Context, dash services.DashboardService, hub Broadcaster, interval time.Duration) {
	Every(ctx, "dashboard", interval, func(ctx context.Context) error {
		return PushAdminSnapshot(dash, hub)
	})
}

func PushAdminSnapshot(dash services.DashboardService, hub Broadcaster) error {
	if hub.GroupSize(realtime.AdminDashboardGroup) == 0 {
		return nil
	}
	snap, err := dash.AdminSnapshot()
	if err != nil {
		return err
	}
	hub.Broadcast(realtime.AdminDashboardGroup, snap)
	return nil
}

// EventSource delivers broker messages to a handler until ctx is done.
type EventSource interface {
	Run(ctx context.Context, handler events.Handler) error
}

// RunActivityConsumer feeds broker events into the activity handler. A nil
// source means events are dispatched in process by events.Local instead.
func RunActivityConsumer(ctx context.Context, src EventSource, handler events.Handler) {
	if src == nil {
		return
	}
	utils.LogEvent(utils.WorkerTag("activity"), "events", "consume", "started")
	if err := src.Run(ctx, handler); err != nil {
		utils.LogEvent(utils.WorkerTag("activity"), "events", "consume_failed", err.Error())
	}
}
