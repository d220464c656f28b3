package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "tally_session"

// sessionRegistry hands out cookie-backed session IDs and a per-session
// mutex. The ledger engine is single-threaded; the mutex is how the
// server serializes concurrent requests for the same session.
type sessionRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{locks: make(map[string]*sync.Mutex)}
}

// sessionID returns the request's session ID, minting one and setting the
// cookie when the request carries none.
func (sr *sessionRegistry) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// lock acquires the session's mutex, creating it on first use, and
// returns the unlock function.
func (sr *sessionRegistry) lock(sessionID string) func() {
	sr.mu.Lock()
	m, ok := sr.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		sr.locks[sessionID] = m
	}
	sr.mu.Unlock()

	m.Lock()
	return m.Unlock
}
