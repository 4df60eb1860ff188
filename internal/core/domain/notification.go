package domain

import "time"

// Notification is the shared template of a notification: one row per
// announcement, referenced by any number of per-user deliveries.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// UserNotification is a per-identity delivery record of a Notification.
type UserNotification struct {
	ID           int64        `json:"id"`
	Notification Notification `json:"notification"`
	IsRead       bool         `json:"is_read"`
	ReceivedAt   time.Time    `json:"received_at"`
}

// CountUnread returns the number of deliveries not yet read. The unread
// counter exposed to the UI must always equal this for the held list.
func CountUnread(items []UserNotification) int {
	n := 0
	for _, it := range items {
		if !it.IsRead {
			n++
		}
	}
	return n
}
