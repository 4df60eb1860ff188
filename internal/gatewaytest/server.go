// Package gatewaytest provides an in-process fake of the LMS API for
// tests: real HTTP, JWT bearer auth, bcrypt credentials, and the same
// payload shapes the production gateway ships, including the alternate
// unread-count field and the paginated list envelope.
package gatewaytest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/openclass/lms-client/internal/core/domain"
)

const tokenTTL = time.Hour

type user struct {
	identity     domain.Identity
	passwordHash []byte
}

type progressRecord struct {
	videos map[int64]struct{}
	tasks  map[int64]struct{}
}

// Server is a fake LMS API bound to an ephemeral port. Zero value is not
// usable; construct with New and Close when done.
//
// The exported flags inject failures or switch response shapes; they may
// be flipped at any point during a test.
type Server struct {
	URL string

	mu            sync.Mutex
	srv           *httptest.Server
	secret        []byte
	nextID        int64
	users         map[string]*user // keyed by username
	notifications map[int64][]domain.UserNotification
	progress      map[int64]*progressRecord
	validate      *validator.Validate

	FailMe          bool
	FailMarkRead    bool
	FailMarkAllRead bool
	FailVideo       bool
	FailTask        bool
	WrapResults     bool // my_notifications returns {"results": [...]}
	AltCountField   bool // unread_count returns {"unread_count": n}
	UnreadOverride  *int // when set, unread_count returns this value
}

func New() *Server {
	s := &Server{
		secret:        []byte("gatewaytest-secret"),
		users:         make(map[string]*user),
		notifications: make(map[int64][]domain.UserNotification),
		progress:      make(map[int64]*progressRecord),
		validate:      validator.New(),
	}

	e := echo.New()
	e.HideBanner = true

	e.POST("/users/login/", s.login)
	e.POST("/users/register/", s.register)
	e.GET("/users/me/", s.me, s.requireAuth)
	e.GET("/user-notifications/unread_count/", s.unreadCount, s.requireAuth)
	e.GET("/user-notifications/my_notifications/", s.myNotifications, s.requireAuth)
	e.POST("/user-notifications/:id/mark_as_read/", s.markRead, s.requireAuth)
	e.POST("/user-notifications/mark_all_read/", s.markAllRead, s.requireAuth)
	e.GET("/progress/my_progress/", s.myProgress, s.requireAuth)
	e.POST("/progress/complete_video/", s.completeVideo, s.requireAuth)
	e.POST("/progress/complete_task/", s.completeTask, s.requireAuth)

	s.srv = httptest.NewServer(e)
	s.URL = s.srv.URL
	return s
}

func (s *Server) Close() {
	s.srv.Close()
}

// SeedUser registers an account directly, bypassing the register endpoint,
// and returns the stored identity.
func (s *Server) SeedUser(username, password, role, firstName, lastName string) domain.Identity {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ident := domain.Identity{
		ID:        s.nextID,
		Username:  username,
		Role:      role,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.users[username] = &user{identity: ident, passwordHash: hash}
	s.progress[ident.ID] = &progressRecord{
		videos: make(map[int64]struct{}),
		tasks:  make(map[int64]struct{}),
	}
	return ident
}

// SeedNotification delivers a notification to the named user and returns
// the delivery id.
func (s *Server) SeedNotification(username, title, message string, read bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		panic("gatewaytest: unknown user " + username)
	}
	s.nextID++
	delivery := domain.UserNotification{
		ID: s.nextID,
		Notification: domain.Notification{
			ID:        s.nextID,
			Title:     title,
			Message:   message,
			Type:      "announcement",
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		IsRead:     read,
		ReceivedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.notifications[u.identity.ID] = append(s.notifications[u.identity.ID], delivery)
	return delivery.ID
}

// CompletedVideos returns the server-side completed video set for asserts.
func (s *Server) CompletedVideos(username string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil
	}
	rec := s.progress[u.identity.ID]
	out := make([]int64, 0, len(rec.videos))
	for id := range rec.videos {
		out = append(out, id)
	}
	return out
}

// IssueToken mints a valid access token for the named user, for tests
// that want to pre-populate a token store without logging in.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		panic("gatewaytest: unknown user " + username)
	}
	return s.signToken(u.identity, tokenTTL)
}

func (s *Server) signToken(ident domain.Identity, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(ident.ID, 10),
		"username": ident.Username,
		"role":     ident.Role,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// requireAuth validates the bearer token and injects the user id.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "missing bearer token"})
		}

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !tkn.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "invalid token"})
		}

		sub, _ := claims["sub"].(string)
		uid, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "invalid token"})
		}
		c.Set("uid", uid)
		return next(c)
	}
}

func (s *Server) userByID(uid int64) *user {
	for _, u := range s.users {
		if u.identity.ID == uid {
			return u
		}
	}
	return nil
}
