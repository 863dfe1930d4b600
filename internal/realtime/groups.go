package realtime

import "fmt"

const AdminDashboardGroup = "admin_dashboard"

func UserDashboardGroup(userID int64) string {
	return fmt.Sprintf("user_dashboard_%d", userID)
}

func NotificationsGroup(userID int64) string {
	return fmt.Sprintf("notifications_%d", userID)
}

func SeatUpdatesGroup(slotID int64) string {
	return fmt.Sprintf("seat_updates_%d", slotID)
}
