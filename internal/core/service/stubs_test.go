package service

import (
	"context"
	"sync"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs shared by the session, progress, and notification sync tests.
// ---------------------------------------------------------------------------

type stubGateway struct {
	mu sync.Mutex

	loginFn    func(username, password string) (*ports.AuthPayload, error)
	registerFn func(in ports.RegisterInput) (*ports.AuthPayload, error)
	meFn       func() (*domain.Identity, error)
	unreadFn   func() (int, error)
	listFn     func() ([]domain.UserNotification, error)
	progressFn func() (*ports.ProgressSnapshot, error)
	videoFn    func(id int64) error
	taskFn     func(id int64) error

	markReadErr    error
	markAllReadErr error

	loginCalls    int
	registerCalls int
	meCalls       int
	unreadCalls   int
	listCalls     int
	progressCalls int
	videoCalls    int
	taskCalls     int
	markedRead    []int64
	markAllCalls  int
}

func (g *stubGateway) Login(_ context.Context, username, password string) (*ports.AuthPayload, error) {
	g.mu.Lock()
	g.loginCalls++
	fn := g.loginFn
	g.mu.Unlock()
	if fn == nil {
		return &ports.AuthPayload{}, nil
	}
	return fn(username, password)
}

func (g *stubGateway) Register(_ context.Context, in ports.RegisterInput) (*ports.AuthPayload, error) {
	g.mu.Lock()
	g.registerCalls++
	fn := g.registerFn
	g.mu.Unlock()
	if fn == nil {
		return &ports.AuthPayload{}, nil
	}
	return fn(in)
}

func (g *stubGateway) Me(_ context.Context) (*domain.Identity, error) {
	g.mu.Lock()
	g.meCalls++
	fn := g.meFn
	g.mu.Unlock()
	if fn == nil {
		return nil, domain.ErrSessionExpired
	}
	return fn()
}

func (g *stubGateway) UnreadCount(_ context.Context) (int, error) {
	g.mu.Lock()
	g.unreadCalls++
	fn := g.unreadFn
	g.mu.Unlock()
	if fn == nil {
		return 0, nil
	}
	return fn()
}

func (g *stubGateway) MyNotifications(_ context.Context) ([]domain.UserNotification, error) {
	g.mu.Lock()
	g.listCalls++
	fn := g.listFn
	g.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn()
}

func (g *stubGateway) MarkRead(_ context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.markReadErr != nil {
		return g.markReadErr
	}
	g.markedRead = append(g.markedRead, id)
	return nil
}

func (g *stubGateway) MarkAllRead(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.markAllReadErr != nil {
		return g.markAllReadErr
	}
	g.markAllCalls++
	return nil
}

func (g *stubGateway) MyProgress(_ context.Context) (*ports.ProgressSnapshot, error) {
	g.mu.Lock()
	g.progressCalls++
	fn := g.progressFn
	g.mu.Unlock()
	if fn == nil {
		return &ports.ProgressSnapshot{}, nil
	}
	return fn()
}

func (g *stubGateway) CompleteVideo(_ context.Context, id int64) error {
	g.mu.Lock()
	g.videoCalls++
	fn := g.videoFn
	g.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(id)
}

func (g *stubGateway) CompleteTask(_ context.Context, id int64) error {
	g.mu.Lock()
	g.taskCalls++
	fn := g.taskFn
	g.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(id)
}

func (g *stubGateway) Ping(context.Context) error { return nil }

type memTokens struct {
	mu       sync.Mutex
	pair     ports.TokenPair
	loadErr  error
	saveErr  error
	clearErr error
	saves    int
	clears   int
}

func (m *memTokens) Load(context.Context) (ports.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair, m.loadErr
}

func (m *memTokens) Save(_ context.Context, pair ports.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.pair = pair
	m.saves++
	return nil
}

func (m *memTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.pair = ports.TokenPair{}
	m.clears++
	return nil
}

type stubAlerter struct {
	mu     sync.Mutex
	sounds int
	toasts []string // "level: message"
}

func (a *stubAlerter) Sound(context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sounds++
}

func (a *stubAlerter) Toast(_ context.Context, level, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toasts = append(a.toasts, level+": "+message)
}

func (a *stubAlerter) soundCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sounds
}

func (a *stubAlerter) toastCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.toasts)
}

// stubIdentity is a switchable identity source standing in for the
// session store.
type stubIdentity struct {
	mu    sync.Mutex
	ident *domain.Identity
}

func (s *stubIdentity) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ident == nil {
		return nil
	}
	cp := *s.ident
	return &cp
}

func (s *stubIdentity) set(ident *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ident = ident
}

func studentIdentity(id int64, username string) *domain.Identity {
	return &domain.Identity{ID: id, Username: username, Role: domain.RoleStudent}
}

func adminIdentity(id int64, username string) *domain.Identity {
	return &domain.Identity{ID: id, Username: username, Role: domain.RoleAdmin}
}
