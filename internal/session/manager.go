// Package session implements the session manager: a bounded, TTL-expiring
// registry of *domain.Session backed by a real LRU with sliding expiration
// instead of a bare map that only ever grows.
package session

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/openrag/ragcore/internal/domain"
	"github.com/openrag/ragcore/internal/vectorindex"
)

// GlobalStats summarizes the manager's current population.
type GlobalStats struct {
	ActiveSessions int   `json:"activeSessions"`
	TotalDocuments int   `json:"totalDocuments"`
	TotalChunks    int64 `json:"totalChunks"`
}

// Manager owns every live Session, evicting ones that go untouched past
// their TTL. expirable.LRU's own TTL is measured from insertion, not last
// access, so Get slides the expiry window itself by re-adding the existing
// entry, which resets its expiry clock, giving a "touch extends lifetime"
// semantics.
// A companion registry mirrors the LRU's keys and is kept in sync purely
// through the LRU's eviction callback, so GlobalStats can range over it
// instead of reaching into the cache's own backing store.
type Manager struct {
	mu       sync.Mutex
	lru      *lru.LRU[string, *domain.Session]
	capacity int
	active   sync.Map // sessionID -> *domain.Session
}

// New builds a Manager. capacity bounds the number of concurrently live
// sessions; ttl is the sliding inactivity window after which an untouched
// session is evicted.
func New(capacity int, ttl time.Duration) *Manager {
	m := &Manager{capacity: capacity}
	m.lru = lru.NewLRU[string, *domain.Session](capacity, m.onEvict, ttl)
	return m
}

// onEvict fires whenever the LRU drops an entry, on TTL expiry or explicit
// Remove, keeping the companion registry from drifting out of sync.
func (m *Manager) onEvict(id string, _ *domain.Session) {
	m.active.Delete(id)
}

// Create starts a new session with the given config, returning
// ErrInvariantViolation if the manager is already at capacity.
func (m *Manager) Create(cfg domain.SessionConfig) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capacity > 0 && m.lru.Len() >= m.capacity {
		return nil, fmt.Errorf("session: at capacity (%d): %w", m.capacity, domain.ErrInvariantViolation)
	}

	sess := domain.NewSession(domain.NewOpaqueID(16), cfg)
	sess.VectorIndex = vectorindex.New()
	m.lru.Add(sess.SessionID, sess)
	m.active.Store(sess.SessionID, sess)
	return sess, nil
}

// Get returns the session for id, sliding its TTL forward, or
// ErrSessionNotFound if it doesn't exist or has already expired.
func (m *Manager) Get(id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.lru.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	// Re-insert to reset the TTL clock the library measures from insertion,
	// and keep the session's own bookkeeping in sync with that new clock.
	sess.ExpiresAt = time.Now().Add(sess.Config.SessionTTL)
	m.lru.Add(id, sess)
	return sess, nil
}

// Remove deletes a session immediately, independent of its TTL.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Remove(id)
}

// GlobalStats aggregates counters across every currently live session by
// ranging over the companion registry rather than the LRU itself.
func (m *Manager) GlobalStats() GlobalStats {
	var stats GlobalStats
	m.active.Range(func(_, v any) bool {
		sess := v.(*domain.Session)
		stats.ActiveSessions++
		stats.TotalDocuments += sess.DocumentCount()
		if sess.VectorIndex != nil {
			stats.TotalChunks += int64(sess.VectorIndex.Len())
		}
		return true
	})
	return stats
}

// Len reports the current number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}
