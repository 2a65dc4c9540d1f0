package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/agentgallery/internal/gallery"
	"github.com/soyeahso/agentgallery/internal/logging"
)

const sessionCookie = "gallery_session"

// ErrSessionNotFound is returned when a request carries no live session.
var ErrSessionNotFound = errors.New("gallery session not found")

// Session is one visitor's gallery.
type Session struct {
	ID      string
	Gallery *gallery.Gallery

	lastSeen time.Time // guarded by SessionRegistry.mu
}

// SessionRegistry keeps one gallery per visitor. Idle sessions expire and
// the oldest session is evicted when the cap is reached.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	max      int
	create   func(id string) *gallery.Gallery
	log      *logging.Logger
	now      func() time.Time
}

// NewSessionRegistry creates a registry. create builds the gallery for a
// new session id.
func NewSessionRegistry(idle time.Duration, max int, create func(id string) *gallery.Gallery, log *logging.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		idle:     idle,
		max:      max,
		create:   create,
		log:      log,
		now:      time.Now,
	}
}

// Get returns a live session and marks it as seen.
func (r *SessionRegistry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || r.expiredLocked(s) {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s, nil
}

// Lookup resolves the session named by the request cookie.
func (r *SessionRegistry) Lookup(req *http.Request) (*Session, error) {
	c, err := req.Cookie(sessionCookie)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return r.Get(c.Value)
}

// Ensure resolves the request's session, creating one and setting the
// cookie when there is none.
func (r *SessionRegistry) Ensure(w http.ResponseWriter, req *http.Request) *Session {
	if s, err := r.Lookup(req); err == nil {
		return s
	}
	s := r.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// New creates and registers a fresh session.
func (r *SessionRegistry) New() *Session {
	id := uuid.New().String()
	s := &Session{ID: id, Gallery: r.create(id)}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.sessions) >= r.max {
		var oldest *Session
		for _, cand := range r.sessions {
			if oldest == nil || cand.lastSeen.Before(oldest.lastSeen) {
				oldest = cand
			}
		}
		if oldest != nil {
			r.removeLocked(oldest)
			r.log.Debug().Str("session", oldest.ID).Msg("evicted oldest session")
		}
	}

	s.lastSeen = r.now()
	r.sessions[id] = s
	return s
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes idle sessions and returns how many were removed.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if r.expiredLocked(s) {
			r.removeLocked(s)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug().Int("expired", n).Int("remaining", r.Count()).Msg("swept idle sessions")
			}
		}
	}
}

// CloseAll drops every session.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		r.removeLocked(s)
	}
}

func (r *SessionRegistry) expiredLocked(s *Session) bool {
	return r.idle > 0 && r.now().Sub(s.lastSeen) > r.idle
}

func (r *SessionRegistry) removeLocked(s *Session) {
	delete(r.sessions, s.ID)
	s.Gallery.Close()
}
