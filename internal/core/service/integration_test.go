package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
	"github.com/openclass/lms-client/internal/gatewaytest"
	"github.com/openclass/lms-client/internal/infrastructure/gateway"
	"github.com/openclass/lms-client/internal/infrastructure/storage/file"
)

// End-to-end wiring over real HTTP: gatewaytest fake API, file token
// store, production gateway client, and the three services on top.

func tokenPairFor(api *gatewaytest.Server, username string) ports.TokenPair {
	tok := api.IssueToken(username)
	return ports.TokenPair{Access: tok, Refresh: tok}
}

func TestIntegration_RegisterLoginAndProgress(t *testing.T) {
	api := gatewaytest.New()
	defer api.Close()

	tokens := file.NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	gw := gateway.NewClient(api.URL, tokens, zerolog.Nop())
	sess := NewSession(gw, tokens, zerolog.Nop())
	ctx := context.Background()

	sess.Bootstrap(ctx)
	if sess.State() != domain.SessionAnonymous {
		t.Fatalf("fresh store must bootstrap to anonymous, got %s", sess.State())
	}

	res := sess.Register(ctx, "aziz", "correct-horse-battery", "Aziz", "Karimov")
	if !res.Success {
		t.Fatalf("register failed: %q", res.Error)
	}
	ident := sess.Identity()
	if ident == nil || ident.Username != "aziz" || !ident.IsStudent() {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	// Duplicate username maps to the fixed message.
	dup := sess.Register(ctx, "aziz", "another-long-pass", "Other", "Person")
	if dup.Success || dup.Error != "This username is already taken." {
		t.Fatalf("unexpected duplicate result: %+v", dup)
	}

	prog := NewProgress(sess, gw, zerolog.Nop())
	if err := prog.MarkVideoCompleted(ctx, "vid-7"); err != nil {
		t.Fatalf("mark video: %v", err)
	}
	if got := api.CompletedVideos("aziz"); len(got) != 1 || got[0] != 7 {
		t.Fatalf("server must record the completion, got %v", got)
	}

	// A fresh cache for the same account picks the completion up from the
	// server snapshot.
	prog2 := NewProgress(sess, gw, zerolog.Nop())
	if err := prog2.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !prog2.IsVideoCompleted("7") {
		t.Fatalf("refreshed cache must contain the server-side completion")
	}

	sess.Logout(ctx)
	if sess.State() != domain.SessionAnonymous {
		t.Fatalf("expected anonymous after logout, got %s", sess.State())
	}
	if prog.IsVideoCompleted("7") {
		t.Fatalf("logout must drop cached progress")
	}
}

func TestIntegration_BootstrapFromPersistedToken(t *testing.T) {
	api := gatewaytest.New()
	defer api.Close()
	api.SeedUser("malika", "correct-horse-battery", domain.RoleStudent, "Malika", "Usmanova")

	path := filepath.Join(t.TempDir(), "tokens.json")
	ctx := context.Background()

	// First process: log in, tokens land in the file.
	{
		tokens := file.NewStore(path)
		gw := gateway.NewClient(api.URL, tokens, zerolog.Nop())
		sess := NewSession(gw, tokens, zerolog.Nop())
		sess.Bootstrap(ctx)
		if res := sess.Login(ctx, "malika", "correct-horse-battery"); !res.Success {
			t.Fatalf("login failed: %q", res.Error)
		}
	}

	// Second process: same file, identity restored without logging in.
	tokens := file.NewStore(path)
	gw := gateway.NewClient(api.URL, tokens, zerolog.Nop())
	sess := NewSession(gw, tokens, zerolog.Nop())
	sess.Bootstrap(ctx)

	if sess.State() != domain.SessionAuthenticated {
		t.Fatalf("expected restored session, got %s", sess.State())
	}
	if ident := sess.Identity(); ident == nil || ident.Username != "malika" {
		t.Fatalf("unexpected identity: %+v", ident)
	}
}

func TestIntegration_NotificationFlow(t *testing.T) {
	api := gatewaytest.New()
	defer api.Close()
	api.SeedUser("aziz", "correct-horse-battery", domain.RoleStudent, "Aziz", "Karimov")
	api.SeedNotification("aziz", "Welcome", "Hello!", false)
	api.SeedNotification("aziz", "Homework", "Due Friday", false)

	tokens := file.NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	gw := gateway.NewClient(api.URL, tokens, zerolog.Nop())
	sess := NewSession(gw, tokens, zerolog.Nop())
	ctx := context.Background()

	sess.Bootstrap(ctx)
	if res := sess.Login(ctx, "aziz", "correct-horse-battery"); !res.Success {
		t.Fatalf("login failed: %q", res.Error)
	}

	alert := &stubAlerter{}
	sync := NewNotificationSync(sess, gw, alert, time.Hour, zerolog.Nop())

	sync.cycle(ctx)
	if sync.Unread() != 2 {
		t.Fatalf("expected 2 unread, got %d", sync.Unread())
	}
	if alert.soundCount() != 1 {
		t.Fatalf("initial load with unread must alert once, got %d", alert.soundCount())
	}

	items := sync.Notifications()
	if len(items) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(items))
	}
	if err := sync.MarkRead(ctx, items[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if sync.Unread() != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", sync.Unread())
	}

	// The server now reports 1 as well; the next poll stays silent.
	sync.cycle(ctx)
	if sync.Unread() != 1 || alert.soundCount() != 1 {
		t.Fatalf("stable count must stay silent: unread=%d sounds=%d", sync.Unread(), alert.soundCount())
	}

	// A new delivery raises the server-side count past the baseline.
	api.SeedNotification("aziz", "Exam", "Next week", false)
	sync.cycle(ctx)
	if sync.Unread() != 2 {
		t.Fatalf("expected 2 unread after new delivery, got %d", sync.Unread())
	}
	if alert.soundCount() != 2 {
		t.Fatalf("count rise must alert, got %d", alert.soundCount())
	}

	if err := sync.MarkAllRead(ctx); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if sync.Unread() != 0 {
		t.Fatalf("expected zero unread, got %d", sync.Unread())
	}
}

func TestIntegration_AlternateResponseShapes(t *testing.T) {
	api := gatewaytest.New()
	defer api.Close()
	api.SeedUser("aziz", "correct-horse-battery", domain.RoleStudent, "", "")
	api.SeedNotification("aziz", "Welcome", "Hello!", false)
	api.WrapResults = true
	api.AltCountField = true

	tokens := file.NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	gw := gateway.NewClient(api.URL, tokens, zerolog.Nop())
	sess := NewSession(gw, tokens, zerolog.Nop())
	ctx := context.Background()

	sess.Bootstrap(ctx)
	if res := sess.Login(ctx, "aziz", "correct-horse-battery"); !res.Success {
		t.Fatalf("login failed: %q", res.Error)
	}

	sync := NewNotificationSync(sess, gw, &stubAlerter{}, time.Hour, zerolog.Nop())
	sync.cycle(ctx) // paginated list envelope
	if len(sync.Notifications()) != 1 {
		t.Fatalf("paginated envelope not handled")
	}
	sync.cycle(ctx) // alternate count field
	if sync.Unread() != 1 {
		t.Fatalf("alternate count field not handled, got %d", sync.Unread())
	}
}

func TestIntegration_ExpiredSessionDiscardedOnBootstrap(t *testing.T) {
	api := gatewaytest.New()
	defer api.Close()
	api.SeedUser("aziz", "correct-horse-battery", domain.RoleStudent, "", "")
	api.FailMe = true

	path := filepath.Join(t.TempDir(), "tokens.json")
	tokens := file.NewStore(path)
	ctx := context.Background()
	if err := tokens.Save(ctx, tokenPairFor(api, "aziz")); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	gw := gateway.NewClient(api.URL, tokens, zerolog.Nop())
	sess := NewSession(gw, tokens, zerolog.Nop())
	sess.Bootstrap(ctx)

	if sess.State() != domain.SessionAnonymous {
		t.Fatalf("expected anonymous after rejected refresh, got %s", sess.State())
	}
	pair, err := tokens.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !pair.Empty() {
		t.Fatalf("rejected tokens must be discarded, got %+v", pair)
	}
}
