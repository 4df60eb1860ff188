package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
	"github.com/openclass/lms-client/internal/metrics"
)

const (
	kindVideo = "video"
	kindTask  = "task"
)

// Progress caches the completed video and task sets for the current
// identity. Marks are optimistic: the id joins the set before the
// confirming call resolves and is removed again if it fails, restoring
// the exact pre-call state. The cache is keyed to the session's identity;
// when that changes (including to anonymous) all sets are dropped before
// anything else happens, so completed ids never leak across identities.
type Progress struct {
	session ports.IdentitySource
	gw      ports.Gateway
	log     zerolog.Logger

	mu            sync.Mutex
	owner         int64 // identity id the sets belong to, 0 = none
	videos        map[int64]struct{}
	tasks         map[int64]struct{}
	pendingVideos map[int64]struct{} // optimistic adds not yet confirmed
	pendingTasks  map[int64]struct{}
	fetchGen      uint64
}

func NewProgress(session ports.IdentitySource, gw ports.Gateway, log zerolog.Logger) *Progress {
	return &Progress{
		session:       session,
		gw:            gw,
		log:           log,
		videos:        make(map[int64]struct{}),
		tasks:         make(map[int64]struct{}),
		pendingVideos: make(map[int64]struct{}),
		pendingTasks:  make(map[int64]struct{}),
	}
}

func (p *Progress) MarkVideoCompleted(ctx context.Context, id string) error {
	return p.mark(ctx, kindVideo, id, p.gw.CompleteVideo)
}

func (p *Progress) MarkTaskCompleted(ctx context.Context, id string) error {
	return p.mark(ctx, kindTask, id, p.gw.CompleteTask)
}

func (p *Progress) IsVideoCompleted(id string) bool {
	return p.isCompleted(kindVideo, id)
}

func (p *Progress) IsTaskCompleted(id string) bool {
	return p.isCompleted(kindTask, id)
}

// Refresh replaces the cached sets with the server snapshot, keeping any
// optimistic adds whose confirming call is still in flight (the server
// cannot have seen those yet). Safe to call concurrently with marks; a
// refresh superseded by a newer one or by an identity change is discarded.
func (p *Progress) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if !p.reconcileOwnerLocked() {
		p.mu.Unlock()
		return nil
	}
	p.fetchGen++
	gen := p.fetchGen
	owner := p.owner
	p.mu.Unlock()

	snap, err := p.gw.MyProgress(ctx)
	if err != nil {
		// Read failure: keep last-known-good state.
		p.log.Warn().Err(err).Msg("progress refresh failed")
		return fmt.Errorf("refresh progress: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner != owner || p.fetchGen != gen {
		return nil
	}
	p.videos = mergeCompleted(snap.CompletedVideos, p.pendingVideos)
	p.tasks = mergeCompleted(snap.CompletedTasks, p.pendingTasks)
	return nil
}

// mark is the optimistic-update helper shared by both item kinds:
// snapshot (set membership), apply speculative state, confirm, roll back
// on failure. Marking an id already in the set is a no-op with no network
// call.
func (p *Progress) mark(ctx context.Context, kind, rawID string, confirm func(context.Context, int64) error) error {
	id, err := domain.NormalizeItemID(rawID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if !p.reconcileOwnerLocked() {
		p.mu.Unlock()
		return domain.ErrNoIdentity
	}
	set, pending := p.setsLocked(kind)
	if _, done := set[id]; done {
		p.mu.Unlock()
		return nil
	}
	owner := p.owner
	set[id] = struct{}{} // visible immediately, before the network call
	pending[id] = struct{}{}
	p.mu.Unlock()

	confirmErr := confirm(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner == owner {
		set, pending = p.setsLocked(kind)
		delete(pending, id)
		if confirmErr != nil {
			delete(set, id)
			metrics.ProgressRollbacksTotal.WithLabelValues(kind).Inc()
			p.log.Warn().Err(confirmErr).Str("kind", kind).Int64("id", id).Msg("completion rolled back")
		}
	}
	if confirmErr != nil {
		return fmt.Errorf("complete %s %d: %w", kind, id, confirmErr)
	}
	return nil
}

func (p *Progress) isCompleted(kind, rawID string) bool {
	id, err := domain.NormalizeItemID(rawID)
	if err != nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.reconcileOwnerLocked() {
		return false
	}
	set, _ := p.setsLocked(kind)
	_, ok := set[id]
	return ok
}

// reconcileOwnerLocked drops all cached state when the session identity
// changed since the last call. Reports whether an identity is present.
func (p *Progress) reconcileOwnerLocked() bool {
	var id int64
	if ident := p.session.Identity(); ident != nil {
		id = ident.ID
	}
	if id != p.owner {
		p.owner = id
		p.videos = make(map[int64]struct{})
		p.tasks = make(map[int64]struct{})
		p.pendingVideos = make(map[int64]struct{})
		p.pendingTasks = make(map[int64]struct{})
		p.fetchGen++ // invalidate any in-flight refresh
	}
	return id != 0
}

func (p *Progress) setsLocked(kind string) (set, pending map[int64]struct{}) {
	if kind == kindVideo {
		return p.videos, p.pendingVideos
	}
	return p.tasks, p.pendingTasks
}

func mergeCompleted(server []int64, pending map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(server)+len(pending))
	for _, id := range server {
		out[id] = struct{}{}
	}
	for id := range pending {
		out[id] = struct{}{}
	}
	return out
}
