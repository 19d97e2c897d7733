package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/quake-map-explorer/internal/anim"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

var (
	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the session limit is reached.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrCatalogNotLoaded is returned until a catalog has been installed.
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
)

// Registry holds the live sessions and drives their animation frames.
type Registry struct {
	mu       sync.RWMutex
	opts     Options
	max      int
	catalog  domain.Catalog
	loaded   bool
	sessions map[string]*Explorer
}

// NewRegistry creates an empty registry allowing up to maxSessions sessions.
func NewRegistry(opts Options, maxSessions int) *Registry {
	return &Registry{
		opts:     opts.withDefaults(),
		max:      maxSessions,
		sessions: make(map[string]*Explorer),
	}
}

// SetCatalog installs the catalog used by sessions created afterwards.
// Existing sessions keep the catalog they were created with.
func (r *Registry) SetCatalog(c domain.Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = c
	r.loaded = true
	r.opts.Metrics.CatalogEvents.Set(float64(c.Len()))
	r.opts.Logger.Info("catalog installed", "events", c.Len())
}

// CheckReadiness reports whether a catalog has been loaded.
func (r *Registry) CheckReadiness(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return ErrCatalogNotLoaded
	}
	return nil
}

// Create starts a new session.
func (r *Registry) Create() (*Explorer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil, ErrCatalogNotLoaded
	}
	if len(r.sessions) >= r.max {
		return nil, fmt.Errorf("create session (limit %d): %w", r.max, ErrTooManySessions)
	}

	id := uuid.NewString()
	e, err := New(id, r.catalog, r.opts)
	if err != nil {
		return nil, err
	}
	r.sessions[id] = e
	r.opts.Metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.opts.Logger.Info("session created", "session", id)
	return e, nil
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Explorer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	return e, nil
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		r.opts.Metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	e.Close()
	r.opts.Logger.Info("session closed", "session", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run drives every session's animations at interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	r.opts.Logger.Info("frame loop started", "interval", interval)
	anim.Run(ctx, r.opts.Clock, interval, r.Frame)
	r.opts.Logger.Info("frame loop stopped")
}

// Frame advances every session to now.
func (r *Registry) Frame(now time.Time) {
	start := time.Now()
	r.mu.RLock()
	sessions := make([]*Explorer, 0, len(r.sessions))
	for _, e := range r.sessions {
		sessions = append(sessions, e)
	}
	r.mu.RUnlock()

	for _, e := range sessions {
		e.Frame(now)
	}
	r.opts.Metrics.FrameDuration.Observe(time.Since(start).Seconds())
}
