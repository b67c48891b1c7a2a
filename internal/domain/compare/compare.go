// Package compare keeps the instruments each visitor selected for side by
// side comparison.
package compare

import (
	"context"
	"slices"
	"sync"
	"time"
)

// session tracks one visitor's selection in insertion order.
type session struct {
	ids     []string
	touched time.Time
}

// Store holds comparison sets keyed by visitor session id. It is safe for
// concurrent use; every Add or Remove is applied atomically.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	idle     time.Duration
	now      func() time.Time
}

// NewStore creates a Store that forgets sessions untouched for longer than
// idle. A zero idle keeps sessions forever.
func NewStore(idle time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*session),
		idle:     idle,
		now:      time.Now,
	}
}

// Set returns a handle to the comparison set of sessionID.
func (s *Store) Set(sessionID string) *Set {
	return &Set{store: s, session: sessionID}
}

// Sessions reports the number of sessions with a non-empty selection.
func (s *Store) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) add(sessionID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.touched = s.now()
	if slices.Contains(sess.ids, id) {
		return false
	}
	sess.ids = append(sess.ids, id)
	return true
}

func (s *Store) remove(sessionID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	sess.touched = s.now()
	i := slices.Index(sess.ids, id)
	if i < 0 {
		return false
	}
	sess.ids = slices.Delete(sess.ids, i, i+1)
	if len(sess.ids) == 0 {
		delete(s.sessions, sessionID)
	}
	return true
}

func (s *Store) contains(sessionID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	return ok && slices.Contains(sess.ids, id)
}

func (s *Store) list(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return slices.Clone(sess.ids)
}

// cleanup removes sessions idle for longer than the configured duration.
func (s *Store) cleanup(now time.Time) int {
	if s.idle <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, sess := range s.sessions {
		if now.Sub(sess.touched) >= s.idle {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

// StartCleanup evicts idle sessions every interval until ctx is cancelled.
func (s *Store) StartCleanup(ctx context.Context, interval time.Duration) {
	if s.idle <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.cleanup(now)
			}
		}
	}()
}

// Set is one visitor's comparison set.
type Set struct {
	store   *Store
	session string
}

// Add puts id into the set. It reports whether the set changed.
func (c *Set) Add(id string) bool { return c.store.add(c.session, id) }

// Remove takes id out of the set. It reports whether the set changed.
func (c *Set) Remove(id string) bool { return c.store.remove(c.session, id) }

// Contains reports whether id is in the set.
func (c *Set) Contains(id string) bool { return c.store.contains(c.session, id) }

// IDs returns the selected ids in the order they were added.
func (c *Set) IDs() []string { return c.store.list(c.session) }
