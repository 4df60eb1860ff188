package domain

import "testing"

func TestCountUnread(t *testing.T) {
	items := []UserNotification{
		{ID: 1, IsRead: false},
		{ID: 2, IsRead: true},
		{ID: 3, IsRead: false},
	}
	if got := CountUnread(items); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}
	if got := CountUnread(nil); got != 0 {
		t.Fatalf("expected 0 unread for empty list, got %d", got)
	}
}
