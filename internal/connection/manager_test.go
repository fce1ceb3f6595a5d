package connection

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/persistence"
	"github.com/koopa0/nlqagent/internal/testutil"
)

const fakeKind handler.Kind = "fake"

// fakeHandler is a minimal in-memory handler.Handler used to exercise the
// Connection Manager without a real backend, the same role the teacher's
// mock storage clients play for the assistant package's tests.
type fakeHandler struct {
	connectErr error
	connected  bool
}

func (h *fakeHandler) Connect(ctx context.Context) error {
	if h.connectErr != nil {
		return h.connectErr
	}
	h.connected = true
	return nil
}

func (h *fakeHandler) Disconnect(ctx context.Context) error {
	h.connected = false
	return nil
}

func (h *fakeHandler) Test(ctx context.Context) handler.TestResult {
	return handler.TestResult{Success: h.connected}
}

func (h *fakeHandler) Schema(ctx context.Context, includeColumns bool) (handler.SchemaSnapshot, error) {
	return handler.SchemaSnapshot{}, nil
}

func (h *fakeHandler) Execute(ctx context.Context, query handler.Query) (handler.QueryResult, error) {
	return handler.QueryResult{Success: true}, nil
}

func (h *fakeHandler) SupportedOperations() []handler.Operation { return nil }

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	logger := testutil.NewSilentLogger()
	registry := handler.NewRegistry(logger)
	registry.Register(fakeKind, func() []handler.FieldSchema { return nil }, func(cfg handler.ConnectionConfig, logger *slog.Logger) (handler.Handler, error) {
		return &fakeHandler{}, nil
	})

	store, err := persistence.NewStore(filepath.Join(t.TempDir(), "connections.json"), "")
	require.NoError(t, err)

	m, err := NewManager(registry, store, logger)
	require.NoError(t, err)
	return m
}

func TestManager_CreateAssignsIDAndPersists(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, handler.ConnectionConfig{Kind: fakeKind, Name: "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	conn, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, StateConfigured, conn.State)

	persisted, err := m.store.Load()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, id, persisted[0].ID)
}

func TestManager_CreateDuplicateIDFails(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, handler.ConnectionConfig{ID: "dup", Kind: fakeKind, Name: "a"})
	require.NoError(t, err)

	_, err = m.Create(ctx, handler.ConnectionConfig{ID: "dup", Kind: fakeKind, Name: "b"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDuplicateID, apperrors.Code(err))
}

// At most one connection is ever active: activating a second connection
// demotes whichever was previously active.
func TestManager_ActiveIsASingleton(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	idA, err := m.Create(ctx, handler.ConnectionConfig{Kind: fakeKind, Name: "a"})
	require.NoError(t, err)
	idB, err := m.Create(ctx, handler.ConnectionConfig{Kind: fakeKind, Name: "b"})
	require.NoError(t, err)

	require.NoError(t, m.Activate(ctx, idA))
	assert.Equal(t, idA, m.Active())

	require.NoError(t, m.Activate(ctx, idB))
	assert.Equal(t, idB, m.Active())

	connA, ok := m.Get(idA)
	require.True(t, ok)
	assert.False(t, connA.Active)

	connB, ok := m.Get(idB)
	require.True(t, ok)
	assert.True(t, connB.Active)
}

// Activating an already-active connection is a no-op, not an error.
func TestManager_ActivateIdempotence(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, handler.ConnectionConfig{Kind: fakeKind, Name: "a"})
	require.NoError(t, err)

	require.NoError(t, m.Activate(ctx, id))
	require.NoError(t, m.Activate(ctx, id))
	assert.Equal(t, id, m.Active())
}

func TestManager_ActivateUnknownIDFails(t *testing.T) {
	m := newTestManager(t)
	err := m.Activate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

// Removing a connection is idempotent: removing an unknown id is a
// successful no-op.
func TestManager_RemoveIdempotence(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, handler.ConnectionConfig{Kind: fakeKind, Name: "a"})
	require.NoError(t, err)
	require.NoError(t, m.Activate(ctx, id))

	require.NoError(t, m.Remove(ctx, id))
	assert.Empty(t, m.Active())

	require.NoError(t, m.Remove(ctx, id))

	_, ok := m.Get(id)
	assert.False(t, ok)
}

func TestManager_ExecuteRequiresConnectedState(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, handler.ConnectionConfig{Kind: fakeKind, Name: "a"})
	require.NoError(t, err)

	_, err = m.Execute(ctx, id, handler.Query{SQL: "SELECT 1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotConnected, apperrors.Code(err))

	require.NoError(t, m.Activate(ctx, id))

	result, err := m.Execute(ctx, id, handler.Query{SQL: "SELECT 1"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}
