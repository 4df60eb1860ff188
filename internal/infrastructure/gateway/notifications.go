package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/openclass/lms-client/internal/core/domain"
)

// UnreadCount fetches the count-only endpoint. Both payload shapes the
// server has shipped — {"count": n} and {"unread_count": n} — are
// accepted; neither is treated as legacy.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count       *int `json:"count"`
		UnreadCount *int `json:"unread_count"`
	}
	if err := c.do(ctx, http.MethodGet, "/user-notifications/unread_count/", nil, true, &resp); err != nil {
		return 0, err
	}
	switch {
	case resp.Count != nil:
		return *resp.Count, nil
	case resp.UnreadCount != nil:
		return *resp.UnreadCount, nil
	default:
		return 0, fmt.Errorf("unread count payload missing both count fields")
	}
}

// MyNotifications fetches the full delivery list for the current user.
// The endpoint returns either a bare array or a paginated
// {"results": [...]} envelope.
func (c *Client) MyNotifications(ctx context.Context) ([]domain.UserNotification, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/user-notifications/my_notifications/", nil, true, &raw); err != nil {
		return nil, err
	}
	return decodeNotificationList(raw)
}

func (c *Client) MarkRead(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/user-notifications/%d/mark_as_read/", id)
	return c.do(ctx, http.MethodPost, path, nil, true, nil)
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/user-notifications/mark_all_read/", nil, true, nil)
}

func decodeNotificationList(raw json.RawMessage) ([]domain.UserNotification, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []domain.UserNotification
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode notification list: %w", err)
		}
		return items, nil
	}
	var envelope struct {
		Results []domain.UserNotification `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode notification envelope: %w", err)
	}
	return envelope.Results, nil
}
