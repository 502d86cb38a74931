package cart

import (
	"context"
	"sync"

	"github.com/laflotawines-debug/presupuestadorpro/internal/util"

	"go.uber.org/zap"
)

// Manager hands out one Engine per session, loading the persisted draft on
// first access. Each engine guards its own state; the manager only guards
// the session map.
type Manager struct {
	mu      sync.Mutex
	engines map[string]*Engine
	lookup  StockLookup
	store   Store
	logger  *zap.Logger
}

// NewManager creates a session cart manager.
func NewManager(lookup StockLookup, store Store) *Manager {
	return &Manager{
		engines: make(map[string]*Engine),
		lookup:  lookup,
		store:   store,
		logger:  util.GetLogger(),
	}
}

// Session returns the engine for the given session id, restoring its
// persisted draft the first time. A slot that fails to load starts the
// session with an empty draft.
func (m *Manager) Session(ctx context.Context, sessionID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[sessionID]; ok {
		return e
	}

	lines, err := m.store.Load(ctx, sessionID)
	if err != nil {
		m.logger.Warn("Failed to load cart slot, starting empty",
			zap.String("session_id", sessionID),
			zap.Error(err))
		lines = nil
	}

	e := NewEngine(sessionID, lines, m.lookup, m.store)
	m.engines[sessionID] = e
	return e
}
