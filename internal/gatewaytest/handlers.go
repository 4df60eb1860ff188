package gatewaytest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/openclass/lms-client/internal/core/domain"
)

type authResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    domain.Identity `json:"user"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,min=3"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	}

	return c.JSON(http.StatusOK, authResponse{
		Access:  s.signToken(u.identity, tokenTTL),
		Refresh: s.signToken(u.identity, 7*24*tokenTTL),
		User:    u.identity,
	})
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if fields := s.validateRegister(req); len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, fields)
	}

	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		return c.JSON(http.StatusBadRequest, map[string][]string{
			"username": {"A user with that username already exists."},
		})
	}
	s.mu.Unlock()

	ident := s.SeedUser(req.Username, req.Password, domain.RoleStudent, req.FirstName, req.LastName)
	return c.JSON(http.StatusCreated, authResponse{
		Access:  s.signToken(ident, tokenTTL),
		Refresh: s.signToken(ident, 7*24*tokenTTL),
		User:    ident,
	})
}

// validateRegister renders validator failures as DRF-style per-field
// message lists, the shape the production API uses.
func (s *Server) validateRegister(req registerRequest) map[string][]string {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	fields := make(map[string][]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		fields["non_field_errors"] = []string{err.Error()}
		return fields
	}
	for _, fe := range ve {
		switch fe.Field() {
		case "Username":
			fields["username"] = append(fields["username"], "Enter a valid username of at least 3 characters.")
		case "Password":
			fields["password"] = append(fields["password"], "This password is too short. It must contain at least 8 characters.")
		case "PasswordConfirm":
			fields["password_confirm"] = append(fields["password_confirm"], "The two password fields didn't match.")
		case "FirstName":
			fields["first_name"] = append(fields["first_name"], "This field is required.")
		case "LastName":
			fields["last_name"] = append(fields["last_name"], "This field is required.")
		}
	}
	return fields
}

func (s *Server) me(c echo.Context) error {
	s.mu.Lock()
	fail := s.FailMe
	u := s.userByID(c.Get("uid").(int64))
	s.mu.Unlock()

	if fail {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if u == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "user no longer exists"})
	}
	return c.JSON(http.StatusOK, u.identity)
}

func (s *Server) unreadCount(c echo.Context) error {
	uid := c.Get("uid").(int64)

	s.mu.Lock()
	count := domain.CountUnread(s.notifications[uid])
	if s.UnreadOverride != nil {
		count = *s.UnreadOverride
	}
	alt := s.AltCountField
	s.mu.Unlock()

	if alt {
		return c.JSON(http.StatusOK, map[string]int{"unread_count": count})
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

func (s *Server) myNotifications(c echo.Context) error {
	uid := c.Get("uid").(int64)

	s.mu.Lock()
	items := make([]domain.UserNotification, len(s.notifications[uid]))
	copy(items, s.notifications[uid])
	wrap := s.WrapResults
	s.mu.Unlock()

	if wrap {
		return c.JSON(http.StatusOK, map[string]any{"results": items})
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) markRead(c echo.Context) error {
	uid := c.Get("uid").(int64)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailMarkRead {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	items := s.notifications[uid]
	for i := range items {
		if items[i].ID == id {
			items[i].IsRead = true
			return c.JSON(http.StatusOK, map[string]string{"status": "read"})
		}
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "notification not found"})
}

func (s *Server) markAllRead(c echo.Context) error {
	uid := c.Get("uid").(int64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailMarkAllRead {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	items := s.notifications[uid]
	for i := range items {
		items[i].IsRead = true
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "all read"})
}

func (s *Server) myProgress(c echo.Context) error {
	uid := c.Get("uid").(int64)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.progress[uid]
	if rec == nil {
		return c.JSON(http.StatusOK, map[string][]int64{"completed_videos": {}, "completed_tasks": {}})
	}
	videos := make([]int64, 0, len(rec.videos))
	for id := range rec.videos {
		videos = append(videos, id)
	}
	tasks := make([]int64, 0, len(rec.tasks))
	for id := range rec.tasks {
		tasks = append(tasks, id)
	}
	return c.JSON(http.StatusOK, map[string][]int64{
		"completed_videos": videos,
		"completed_tasks":  tasks,
	})
}

func (s *Server) completeVideo(c echo.Context) error {
	var req struct {
		VideoID int64 `json:"video_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	uid := c.Get("uid").(int64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailVideo {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if rec := s.progress[uid]; rec != nil {
		rec.videos[req.VideoID] = struct{}{}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) completeTask(c echo.Context) error {
	var req struct {
		TaskID int64 `json:"task_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	uid := c.Get("uid").(int64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTask {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if rec := s.progress[uid]; rec != nil {
		rec.tasks[req.TaskID] = struct{}{}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "completed"})
}
