package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openclass/lms-client/internal/core/ports"
)

// StatusHandler handles GET /status — a snapshot of the session and
// notification sync state, for debugging a running agent.
type StatusHandler struct {
	session ports.SessionStore
	sync    ports.NotificationSync
}

func NewStatusHandler(session ports.SessionStore, sync ports.NotificationSync) *StatusHandler {
	return &StatusHandler{session: session, sync: sync}
}

type statusResponse struct {
	State       string `json:"state"`
	Username    string `json:"username,omitempty"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Unread      int    `json:"unread"`
}

func (h *StatusHandler) Status(c echo.Context) error {
	resp := statusResponse{
		State:  string(h.session.State()),
		Unread: h.sync.Unread(),
	}
	if ident := h.session.Identity(); ident != nil {
		resp.Username = ident.Username
		resp.Role = ident.Role
		resp.DisplayName = ident.DisplayName()
	}
	return c.JSON(http.StatusOK, resp)
}
