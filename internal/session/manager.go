// Package session maps browser clients to their rate table views.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dalfonso89/forex-rates/internal/ratetable"
)

// Factory builds an unmounted view for a client
type Factory func(clientID string) *ratetable.View

type entry struct {
	view     *ratetable.View
	lastSeen time.Time
}

// Manager owns one view per client and drops views idle longer than ttl
type Manager struct {
	factory Factory
	ttl     time.Duration
	logger  *logrus.Entry
	now     func() time.Time

	// background fetches outlive the request that started them
	baseCtx context.Context

	mu      sync.Mutex
	entries map[string]*entry

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// NewManager creates a manager; call Start to run the cleanup loop
func NewManager(baseCtx context.Context, factory Factory, ttl time.Duration, logger *logrus.Entry) *Manager {
	return &Manager{
		factory:     factory,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
		baseCtx:     baseCtx,
		entries:     make(map[string]*entry),
		stopCleanup: make(chan struct{}),
	}
}

// NewClientID returns a fresh random client identifier
func NewClientID() string {
	return uuid.NewString()
}

// ValidClientID reports whether id looks like one issued by NewClientID
func ValidClientID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// View returns the client's view, creating and mounting it on first use
func (m *Manager) View(clientID string) *ratetable.View {
	m.mu.Lock()
	current, ok := m.entries[clientID]
	if ok {
		current.lastSeen = m.now()
		m.mu.Unlock()
		return current.view
	}

	view := m.factory(clientID)
	m.entries[clientID] = &entry{view: view, lastSeen: m.now()}
	m.mu.Unlock()

	m.logger.WithField("client_id", clientID).Debug("Mounting rate table view")
	view.Mount(m.baseCtx)
	return view
}

// Context is the context background fetches run under
func (m *Manager) Context() context.Context {
	return m.baseCtx
}

// Len returns the number of live views
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Start runs the expiry loop every interval until Stop
func (m *Manager) Start(interval time.Duration) {
	m.cleanupTicker = time.NewTicker(interval)
	go m.cleanup()
}

// Stop ends the expiry loop
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
}

// Expire drops views idle longer than ttl and returns how many were removed
func (m *Manager) Expire() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := m.now().Add(-m.ttl)
	for clientID, current := range m.entries {
		if current.lastSeen.Before(cutoff) {
			delete(m.entries, clientID)
			removed++
		}
	}
	return removed
}

func (m *Manager) cleanup() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if removed := m.Expire(); removed > 0 {
				m.logger.WithField("removed", removed).Info("Expired idle views")
			}
		case <-m.stopCleanup:
			m.cleanupTicker.Stop()
			return
		}
	}
}
