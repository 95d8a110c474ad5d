package transport

import (
	"context"
	"sync"
	"time"

	"voltmart/internal/domain"
	"voltmart/internal/listing"
)

// SessionRegistry tracks the live listing sessions. Sessions idle past the
// TTL are swept so their currency subscriptions are released.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

type sessionEntry struct {
	session  *listing.Session
	lastSeen time.Time
}

func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
}

// Add registers a session under its own id.
func (r *SessionRegistry) Add(s *listing.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = &sessionEntry{session: s, lastSeen: time.Now()}
}

// Get returns a session and refreshes its idle timer.
func (r *SessionRegistry) Get(id string) (*listing.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = time.Now()
	return entry.session, true
}

// Remove closes and drops a session.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		entry.session.Close()
	}
}

// BroadcastRatingUpdate patches every live session's snapshot after a
// rating write so listings show the new aggregate without a re-fetch.
func (r *SessionRegistry) BroadcastRatingUpdate(productID int64, summary domain.RatingSummary) {
	r.mu.Lock()
	sessions := make([]*listing.Session, 0, len(r.sessions))
	for _, entry := range r.sessions {
		sessions = append(sessions, entry.session)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.ApplyRatingUpdate(productID, summary)
	}
}

// StartJanitor sweeps idle sessions until the context is canceled.
func (r *SessionRegistry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.sweep(now)
			}
		}
	}()
}

func (r *SessionRegistry) sweep(now time.Time) {
	r.mu.Lock()
	var expired []*sessionEntry
	for id, entry := range r.sessions {
		if now.Sub(entry.lastSeen) > r.ttl {
			expired = append(expired, entry)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, entry := range expired {
		entry.session.Close()
	}
}
