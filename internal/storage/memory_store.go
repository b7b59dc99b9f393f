package storage

import (
	"sync"
	"time"
)

// memoryLedger keeps published links in process memory.
type memoryLedger struct {
	mu              sync.Mutex
	expiries        map[string]time.Time
	ttl             time.Duration
	cleanupInterval time.Duration
	lastCleanup     time.Time
	now             func() time.Time
}

func newMemoryLedger(opts Options) *memoryLedger {
	return &memoryLedger{
		expiries:        make(map[string]time.Time),
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
		lastCleanup:     time.Now(),
		now:             time.Now,
	}
}

func (m *memoryLedger) Close() error { return nil }

func (m *memoryLedger) Published(link string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanupLocked(now)
	expiry, ok := m.expiries[link]
	if !ok {
		return false, nil
	}
	if !expiry.After(now) {
		delete(m.expiries, link)
		return false, nil
	}
	return true, nil
}

func (m *memoryLedger) MarkPublished(link string) error {
	if link == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanupLocked(now)
	m.expiries[link] = now.Add(m.ttl)
	return nil
}

func (m *memoryLedger) cleanupLocked(now time.Time) {
	if now.Sub(m.lastCleanup) < m.cleanupInterval {
		return
	}
	for link, expiry := range m.expiries {
		if !expiry.After(now) {
			delete(m.expiries, link)
		}
	}
	m.lastCleanup = now
}
