// Package connection implements the Connection Manager (C2): it owns the
// set of live Handler instances keyed by connection id, tracks exactly
// one "active" connection, and mediates connect/disconnect/health,
// generalising the teacher's ai.Factory mutex discipline (serialised
// writers, concurrent readers via sync.RWMutex) to connection lifecycle.
package connection

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/persistence"
)

// State is a Connection's lifecycle stage, per spec.md §3.
type State string

const (
	StateConfigured  State = "configured"
	StateConnecting  State = "connecting"
	StateConnected   State = "connected"
	StateDisconnected State = "disconnected"
)

// Connection pairs a ConnectionConfig with its live Handler instance and
// active flag.
type Connection struct {
	Config  handler.ConnectionConfig
	Handler handler.Handler
	State   State
	Active  bool
}

// Manager owns map[id]*Connection behind a sync.RWMutex: mutations
// (create/activate/remove) are serialised so readers never observe
// half-updated state; reads (active/schema/execute) proceed concurrently.
type Manager struct {
	registry *handler.Registry
	store    *persistence.Store
	logger   *slog.Logger

	mu          sync.RWMutex
	connections map[string]*Connection
	activeID    string
}

// NewManager creates a Manager, loading any previously persisted
// ConnectionConfigs from store in the "configured" state (they are not
// automatically connected).
func NewManager(registry *handler.Registry, store *persistence.Store, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		registry:    registry,
		store:       store,
		logger:      logger,
		connections: make(map[string]*Connection),
	}

	configs, err := store.Load()
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		m.connections[cfg.ID] = &Connection{Config: cfg, State: StateConfigured}
	}
	return m, nil
}

// Create validates cfg via the Registry and stores it in the configured
// state. Fails with DuplicateID if cfg.ID already exists; assigns a new
// uuid when cfg.ID is empty.
func (m *Manager) Create(ctx context.Context, cfg handler.ConnectionConfig) (string, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.connections[cfg.ID]; exists {
		return "", apperrors.NewDuplicateID(cfg.ID)
	}

	if _, err := m.registry.Make(cfg); err != nil {
		return "", err
	}

	m.connections[cfg.ID] = &Connection{Config: cfg, State: StateConfigured}
	if err := m.persistLocked(); err != nil {
		delete(m.connections, cfg.ID)
		return "", err
	}
	return cfg.ID, nil
}

// Test constructs a handler from cfg and attempts a cheap round-trip. It
// never persists or mutates Manager state.
func (m *Manager) Test(ctx context.Context, cfg handler.ConnectionConfig) (handler.TestResult, error) {
	h, err := m.registry.Make(cfg)
	if err != nil {
		return handler.TestResult{}, err
	}
	defer h.Disconnect(ctx)
	return h.Test(ctx), nil
}

// Activate transitions id to connecting, then connected+active, demoting
// any previously active connection to connected (still live, not active).
func (m *Manager) Activate(ctx context.Context, id string) error {
	m.mu.Lock()
	conn, ok := m.connections[id]
	if !ok {
		m.mu.Unlock()
		return apperrors.NewNotFound(id)
	}

	if conn.Active {
		m.mu.Unlock()
		return nil // activate idempotence
	}

	conn.State = StateConnecting
	previousActive := m.activeID
	h := conn.Handler
	cfg := conn.Config
	m.mu.Unlock()

	// h/cfg are snapshotted above: conn.Handler is only ever read or
	// written while m.mu is held, so the blocking Connect call below
	// never touches shared state without the lock.
	if h == nil {
		made, err := m.registry.Make(cfg)
		if err != nil {
			m.mu.Lock()
			conn.State = StateDisconnected
			m.mu.Unlock()
			return err
		}
		h = made
	}

	if err := h.Connect(ctx); err != nil {
		m.mu.Lock()
		conn.State = StateDisconnected
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	conn.Handler = h
	conn.State = StateConnected
	conn.Active = true
	m.activeID = id
	if previousActive != "" && previousActive != id {
		if prev, ok := m.connections[previousActive]; ok {
			prev.Active = false
		}
	}
	return nil
}

// Deactivate clears the active flag on id without tearing down its
// handler.
func (m *Manager) Deactivate(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return apperrors.NewNotFound(id)
	}
	conn.Active = false
	if m.activeID == id {
		m.activeID = ""
	}
	return nil
}

// Remove tears down id's handler and deletes the entry. Idempotent: a
// missing id is a no-op success. Removing the active connection first
// deactivates it.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	conn, ok := m.connections[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.connections, id)
	if m.activeID == id {
		m.activeID = ""
	}
	err := m.persistLocked()
	h := conn.Handler
	m.mu.Unlock()

	if h != nil {
		_ = h.Disconnect(ctx)
	}
	return err
}

// Schema delegates to id's handler. Fails with NotConnected on a
// non-connected id.
func (m *Manager) Schema(ctx context.Context, id string, includeColumns bool) (handler.SchemaSnapshot, error) {
	conn, err := m.connectedHandler(id)
	if err != nil {
		return handler.SchemaSnapshot{}, err
	}
	return conn.Schema(ctx, includeColumns)
}

// Execute delegates query to id's handler. Fails with NotConnected on a
// non-connected id.
func (m *Manager) Execute(ctx context.Context, id string, query handler.Query) (handler.QueryResult, error) {
	conn, err := m.connectedHandler(id)
	if err != nil {
		return handler.QueryResult{}, err
	}
	return conn.Execute(ctx, query)
}

func (m *Manager) connectedHandler(id string) (handler.Handler, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.connections[id]
	if !ok || conn.State != StateConnected || conn.Handler == nil {
		return nil, apperrors.NewNotConnected(id)
	}
	return conn.Handler, nil
}

// Active returns the currently active connection id, or "" if none.
func (m *Manager) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

// Get returns a snapshot of the Connection for id.
func (m *Manager) Get(id string) (Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[id]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

// List returns a snapshot of every known Connection.
func (m *Manager) List() []Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		out = append(out, *conn)
	}
	return out
}

// Health reports the health of every connected connection, for the
// /v1/health endpoint.
func (m *Manager) Health(ctx context.Context) map[string]handler.TestResult {
	m.mu.RLock()
	snapshot := make(map[string]Connection, len(m.connections))
	for id, conn := range m.connections {
		snapshot[id] = *conn
	}
	m.mu.RUnlock()

	results := make(map[string]handler.TestResult, len(snapshot))
	for id, conn := range snapshot {
		if conn.State != StateConnected || conn.Handler == nil {
			results[id] = handler.TestResult{Success: false, Error: "not connected"}
			continue
		}
		results[id] = conn.Handler.Test(ctx)
	}
	return results
}

// persistLocked writes the current ConnectionConfig set to the store.
// Caller must already hold m.mu.
func (m *Manager) persistLocked() error {
	configs := make([]handler.ConnectionConfig, 0, len(m.connections))
	for _, conn := range m.connections {
		configs = append(configs, conn.Config)
	}
	return m.store.Save(configs)
}
