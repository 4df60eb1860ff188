package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
	"github.com/openclass/lms-client/internal/metrics"
)

// Display-ready fallback messages, in the order the register mapping
// prefers them: username-taken, then the password validation message,
// then whatever the server said, then the generic fallback.
const (
	msgUsernameTaken  = "This username is already taken."
	msgRegisterFailed = "Registration failed. Please try again."
	msgLoginFailed    = "Unable to sign in. Please try again."
)

// Session owns the identity lifecycle: who is logged in, their role, and
// the persisted token pair. Identity is only ever set from a verified
// gateway payload — it is never reconstructed from locally cached fields.
type Session struct {
	gw       ports.Gateway
	tokens   ports.TokenStore
	validate *validator.Validate
	log      zerolog.Logger

	mu       sync.Mutex
	state    domain.SessionState
	identity *domain.Identity

	bootOnce sync.Once
}

func NewSession(gw ports.Gateway, tokens ports.TokenStore, log zerolog.Logger) *Session {
	return &Session{
		gw:       gw,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
		state:    domain.SessionLoading,
	}
}

// Bootstrap resolves the initial Loading state from the stored tokens.
// The refresh runs exactly once per process lifetime; later calls are
// no-ops.
func (s *Session) Bootstrap(ctx context.Context) {
	s.bootOnce.Do(func() { s.RefreshIdentity(ctx) })
}

// RefreshIdentity revalidates the session against the gateway. With no
// stored access token it settles to Anonymous without a network call; on
// any "who am I" failure both tokens are discarded — a partial or stale
// identity is never retained.
func (s *Session) RefreshIdentity(ctx context.Context) {
	pair, err := s.tokens.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("token load failed, treating session as anonymous")
		s.setAnonymous(ctx, false)
		return
	}
	if pair.Empty() {
		s.setAnonymous(ctx, false)
		return
	}

	ident, err := s.gw.Me(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("identity refresh failed, discarding session")
		s.setAnonymous(ctx, true)
		return
	}
	s.setIdentity(ident)
}

// Login authenticates against the gateway. Failures never surface as Go
// errors; they are folded into the result shape and the stored tokens are
// left untouched.
func (s *Session) Login(ctx context.Context, username, password string) ports.SessionResult {
	payload, err := s.gw.Login(ctx, username, password)
	if err != nil {
		s.log.Debug().Err(err).Str("username", username).Msg("login rejected")
		return ports.SessionResult{Error: loginMessage(err)}
	}
	return s.adoptSession(ctx, payload, msgLoginFailed)
}

// Register creates an account and, on success, starts a session with the
// returned tokens. Field-level failures collapse to a single message,
// first match wins: username taken, password message, server message,
// generic fallback.
func (s *Session) Register(ctx context.Context, username, password, firstName, lastName string) ports.SessionResult {
	in := ports.RegisterInput{
		Username:  username,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.validate.Struct(in); err != nil {
		return ports.SessionResult{Error: localRegisterMessage(err)}
	}

	payload, err := s.gw.Register(ctx, in)
	if err != nil {
		s.log.Debug().Err(err).Str("username", username).Msg("registration rejected")
		return ports.SessionResult{Error: registerMessage(err)}
	}
	return s.adoptSession(ctx, payload, msgRegisterFailed)
}

// adoptSession persists the token pair and installs the verified identity,
// fetching it separately when the payload carried tokens only.
func (s *Session) adoptSession(ctx context.Context, payload *ports.AuthPayload, failMsg string) ports.SessionResult {
	pair := ports.TokenPair{Access: payload.Access, Refresh: payload.Refresh}
	if err := s.tokens.Save(ctx, pair); err != nil {
		s.log.Error().Err(err).Msg("token persist failed")
		return ports.SessionResult{Error: failMsg}
	}

	ident := payload.User
	if ident == nil {
		fetched, err := s.gw.Me(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("identity fetch after auth failed")
			if clearErr := s.tokens.Clear(ctx); clearErr != nil {
				s.log.Warn().Err(clearErr).Msg("token clear failed")
			}
			return ports.SessionResult{Error: failMsg}
		}
		ident = fetched
	}

	s.setIdentity(ident)
	return ports.SessionResult{Success: true}
}

// Logout clears both tokens and the identity. Purely local: the gateway
// is not called.
func (s *Session) Logout(ctx context.Context) {
	s.setAnonymous(ctx, true)
}

// UpdateLocalProfile shallow-merges a display-only edit into the current
// identity without a server round trip. Callers reconcile with the server
// separately; an anonymous session ignores the patch.
func (s *Session) UpdateLocalProfile(patch ports.ProfilePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return
	}
	if patch.Username != nil {
		s.identity.Username = *patch.Username
	}
	if patch.FirstName != nil {
		s.identity.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		s.identity.LastName = *patch.LastName
	}
}

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns a copy of the current identity, or nil when anonymous
// or still loading.
func (s *Session) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	ident := *s.identity
	return &ident
}

func (s *Session) setIdentity(ident *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionAuthenticated {
		metrics.SessionTransitionsTotal.WithLabelValues("authenticated").Inc()
	}
	cp := *ident
	s.identity = &cp
	s.state = domain.SessionAuthenticated
}

func (s *Session) setAnonymous(ctx context.Context, clearTokens bool) {
	if clearTokens {
		if err := s.tokens.Clear(ctx); err != nil {
			s.log.Warn().Err(err).Msg("token clear failed")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionAnonymous {
		metrics.SessionTransitionsTotal.WithLabelValues("anonymous").Inc()
	}
	s.identity = nil
	s.state = domain.SessionAnonymous
}

// loginMessage converts a gateway login failure into the inline message
// shown next to the form. The server's own message wins when present.
func loginMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return msgLoginFailed
}

// registerMessage maps a gateway registration failure to one message
// using the fixed priority order.
func registerMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		if ve.FieldMessage("username") != "" {
			return msgUsernameTaken
		}
		if msg := ve.FieldMessage("password"); msg != "" {
			return msg
		}
		if ve.Message != "" {
			return ve.Message
		}
		return msgRegisterFailed
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return msgRegisterFailed
}

// localRegisterMessage renders client-side validation failures with the
// same password-first preference the server mapping uses.
func localRegisterMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return msgRegisterFailed
	}
	for _, fe := range ve {
		if fe.Field() == "Password" {
			return fieldMessage(fe)
		}
	}
	return fieldMessage(ve[0])
}

// fieldMessage converts a single validation error into a human-readable
// message.
func fieldMessage(fe validator.FieldError) string {
	field := humanField(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required."
	case "min":
		return field + " must be at least " + fe.Param() + " characters."
	case "max":
		return field + " must be at most " + fe.Param() + " characters."
	default:
		return field + " is invalid."
	}
}

func humanField(name string) string {
	switch name {
	case "FirstName":
		return "First name"
	case "LastName":
		return "Last name"
	case "":
		return "Field"
	default:
		return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
	}
}
