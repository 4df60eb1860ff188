package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
	"github.com/openclass/lms-client/internal/metrics"
)

const defaultPollInterval = 15 * time.Second

const (
	msgNewNotifications = "You have new notifications."
	msgMarkReadFailed   = "Could not mark the notification as read."
	msgMarkAllFailed    = "Could not mark all notifications as read."
	msgAllRead          = "All notifications marked as read."
)

// NotificationSync keeps the unread count and notification list in step
// with the gateway and fires one sound+toast alert per detected batch of
// new notifications. Notifications are a student-only feature: eligibility
// (identity present, role not admin) is rechecked on every cycle because
// the identity can change mid-process, and all held state is dropped the
// moment it stops holding.
//
// While the panel is closed an unread-count poll runs on a fixed interval;
// an alert fires when the count is strictly greater than the last known
// baseline, which then adopts the new value. While the panel is open the
// count poll is suppressed and the open-fetch path is authoritative.
type NotificationSync struct {
	session  ports.IdentitySource
	gw       ports.Gateway
	alert    ports.Alerter
	interval time.Duration
	log      zerolog.Logger

	mu             sync.Mutex
	owner          int64
	items          []domain.UserNotification
	unread         int
	baseline       int  // last count compared against when deciding to alert
	loaded         bool // full list fetched at least once for this owner
	initialAlerted bool // the one-shot initial-load alert already fired
	panelOpen      bool
	fetchGen       uint64 // guards against out-of-order fetch resolution

	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotificationSync creates a synchronizer polling at the given
// interval. interval <= 0 selects the default of 15 seconds.
func NewNotificationSync(session ports.IdentitySource, gw ports.Gateway, alert ports.Alerter, interval time.Duration, log zerolog.Logger) *NotificationSync {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &NotificationSync{
		session:  session,
		gw:       gw,
		alert:    alert,
		interval: interval,
		log:      log,
	}
}

// Start launches the poll loop. An immediate cycle runs before the first
// tick so a fresh session does not wait a full interval for its list.
func (s *NotificationSync) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)
}

// Stop cancels the poll loop and waits for it to exit, so no ticker
// outlives the synchronizer.
func (s *NotificationSync) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *NotificationSync) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle is one scheduler pass: gate on eligibility, load the list if this
// owner has none yet, otherwise poll the count unless the panel is open.
func (s *NotificationSync) cycle(ctx context.Context) {
	s.mu.Lock()
	if !s.eligibleLocked() {
		s.mu.Unlock()
		metrics.NotificationPollsTotal.WithLabelValues("skipped").Inc()
		return
	}
	if !s.loaded {
		s.mu.Unlock()
		s.fetchList(ctx, true)
		return
	}
	if s.panelOpen {
		s.mu.Unlock()
		metrics.NotificationPollsTotal.WithLabelValues("skipped").Inc()
		return
	}
	s.mu.Unlock()
	s.pollCount(ctx)
}

// SetPanelOpen records panel visibility. The closed→open transition
// refetches the full list regardless of polling state.
func (s *NotificationSync) SetPanelOpen(ctx context.Context, open bool) {
	s.mu.Lock()
	if !s.eligibleLocked() {
		s.mu.Unlock()
		return
	}
	was := s.panelOpen
	s.panelOpen = open
	s.mu.Unlock()

	if open && !was {
		s.fetchList(ctx, false)
	}
}

// MarkRead confirms one delivery with the gateway before flipping it
// locally. Deliberately not optimistic: a visible read flag that silently
// reverts is worse than a short delay. On failure an error toast is shown
// and nothing changes.
func (s *NotificationSync) MarkRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	if !s.eligibleLocked() {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.gw.MarkRead(ctx, id); err != nil {
		s.log.Warn().Err(err).Int64("id", id).Msg("mark read failed")
		s.alert.Toast(ctx, ports.ToastError, msgMarkReadFailed)
		return fmt.Errorf("mark read %d: %w", id, err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsRead = true
			break
		}
	}
	if s.unread > 0 { // clamped, never below zero
		s.unread--
	}
	s.baseline = s.unread
	unread := s.unread
	s.mu.Unlock()

	metrics.UnreadNotifications.Set(float64(unread))
	return nil
}

// MarkAllRead flips every held delivery and zeroes the counter after the
// gateway confirms. On failure an error toast is shown and nothing changes.
func (s *NotificationSync) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	if !s.eligibleLocked() {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.gw.MarkAllRead(ctx); err != nil {
		s.log.Warn().Err(err).Msg("mark all read failed")
		s.alert.Toast(ctx, ports.ToastError, msgMarkAllFailed)
		return fmt.Errorf("mark all read: %w", err)
	}

	s.mu.Lock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.unread = 0
	s.baseline = 0
	s.mu.Unlock()

	metrics.UnreadNotifications.Set(0)
	s.alert.Toast(ctx, ports.ToastSuccess, msgAllRead)
	return nil
}

// Unread returns the last known unread count (always >= 0).
func (s *NotificationSync) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.eligibleLocked() {
		return 0
	}
	return s.unread
}

// Notifications returns a copy of the held list.
func (s *NotificationSync) Notifications() []domain.UserNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.eligibleLocked() {
		return nil
	}
	out := make([]domain.UserNotification, len(s.items))
	copy(out, s.items)
	return out
}

// fetchList replaces the held list with a fresh fetch and recomputes the
// unread count locally. On the first-ever load for an owner, a nonzero
// count fires the one-shot initial alert.
func (s *NotificationSync) fetchList(ctx context.Context, initial bool) {
	s.mu.Lock()
	owner := s.owner
	s.fetchGen++
	gen := s.fetchGen
	s.mu.Unlock()

	items, err := s.gw.MyNotifications(ctx)
	if err != nil {
		// Keep last-known-good state; background reads never surface errors.
		s.log.Warn().Err(err).Msg("notification list fetch failed")
		metrics.NotificationPollsTotal.WithLabelValues("error").Inc()
		return
	}
	unread := domain.CountUnread(items)

	s.mu.Lock()
	if s.owner != owner || s.fetchGen != gen {
		s.mu.Unlock() // superseded by a newer fetch or an identity change
		return
	}
	s.items = items
	s.unread = unread
	s.baseline = unread
	s.loaded = true
	fire := initial && unread > 0 && !s.initialAlerted
	if fire {
		s.initialAlerted = true
	}
	s.mu.Unlock()

	metrics.UnreadNotifications.Set(float64(unread))
	if fire {
		s.fireAlert(ctx, "initial_load", unread)
	}
}

// pollCount fetches the count-only endpoint and alerts once when the
// value is strictly greater than the baseline, whatever the delta.
func (s *NotificationSync) pollCount(ctx context.Context) {
	s.mu.Lock()
	owner := s.owner
	s.fetchGen++
	gen := s.fetchGen
	s.mu.Unlock()

	count, err := s.gw.UnreadCount(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("unread count poll failed")
		metrics.NotificationPollsTotal.WithLabelValues("error").Inc()
		return
	}
	if count < 0 {
		count = 0
	}

	s.mu.Lock()
	if s.owner != owner || s.fetchGen != gen {
		s.mu.Unlock()
		return
	}
	increased := count > s.baseline
	s.unread = count
	s.baseline = count
	s.mu.Unlock()

	metrics.NotificationPollsTotal.WithLabelValues("ok").Inc()
	metrics.UnreadNotifications.Set(float64(count))
	if increased {
		s.fireAlert(ctx, "poll", count)
	}
}

// fireAlert plays the sound and shows the toast. Both are best-effort and
// neither blocks or fails the state update that triggered them.
func (s *NotificationSync) fireAlert(ctx context.Context, trigger string, count int) {
	metrics.NotificationAlertsTotal.WithLabelValues(trigger).Inc()
	s.log.Debug().Str("trigger", trigger).Int("unread", count).Msg("notification alert")
	s.alert.Sound(ctx)
	s.alert.Toast(ctx, ports.ToastInfo, msgNewNotifications)
}

// eligibleLocked gates every operation on "student identity present",
// dropping all held state on any identity transition.
func (s *NotificationSync) eligibleLocked() bool {
	ident := s.session.Identity()
	if ident == nil || !ident.IsStudent() {
		if s.owner != 0 || s.loaded {
			s.resetLocked()
		}
		return false
	}
	if ident.ID != s.owner {
		s.resetLocked()
		s.owner = ident.ID
	}
	return true
}

func (s *NotificationSync) resetLocked() {
	s.owner = 0
	s.items = nil
	s.unread = 0
	s.baseline = 0
	s.loaded = false
	s.initialAlerted = false
	s.fetchGen++
	metrics.UnreadNotifications.Set(0)
}
