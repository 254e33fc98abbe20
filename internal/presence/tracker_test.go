package presence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/teamflow/internal/ws"
)

type fakeEmitter struct {
	events []ws.EventType
	users  []uuid.UUID
}

func (e *fakeEmitter) ToAll(eventType ws.EventType, about uuid.UUID, payload interface{}) error {
	e.events = append(e.events, eventType)
	e.users = append(e.users, about)
	return nil
}

type failingStore struct{}

func (failingStore) Add(ctx context.Context, userID, connID uuid.UUID) (int64, error) {
	return 0, errors.New("store unreachable")
}

func (failingStore) Remove(ctx context.Context, userID, connID uuid.UUID) (int64, error) {
	return 0, errors.New("store unreachable")
}

func (failingStore) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, errors.New("store unreachable")
}

func TestOnlineEventOnlyOnFirstConnection(t *testing.T) {
	emitter := &fakeEmitter{}
	tracker := NewTracker(NewMemoryStore(), emitter)

	ctx := context.Background()
	userID := uuid.New()
	tab1 := uuid.New()
	tab2 := uuid.New()

	tracker.HandleConnect(ctx, userID, tab1)
	tracker.HandleConnect(ctx, userID, tab2)

	// user:online один раз, после первого соединения
	require.Equal(t, []ws.EventType{ws.TypeUserOnline}, emitter.events)
	assert.Equal(t, userID, emitter.users[0])
	assert.True(t, tracker.IsUserOnline(ctx, userID))

	// Закрытие одной вкладки оставляет пользователя online
	tracker.HandleDisconnect(ctx, userID, tab1)
	require.Equal(t, []ws.EventType{ws.TypeUserOnline}, emitter.events)
	assert.True(t, tracker.IsUserOnline(ctx, userID))

	// Закрытие последней дает ровно один user:offline
	tracker.HandleDisconnect(ctx, userID, tab2)
	require.Equal(t, []ws.EventType{ws.TypeUserOnline, ws.TypeUserOffline}, emitter.events)
	assert.False(t, tracker.IsUserOnline(ctx, userID))
}

func TestCardinalityTracksOpenConnections(t *testing.T) {
	store := NewMemoryStore()
	tracker := NewTracker(store, &fakeEmitter{})

	ctx := context.Background()
	userID := uuid.New()

	conns := make([]uuid.UUID, 5)
	for i := range conns {
		conns[i] = uuid.New()
		tracker.HandleConnect(ctx, userID, conns[i])

		count, err := store.Count(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), count)
	}

	for i, connID := range conns {
		tracker.HandleDisconnect(ctx, userID, connID)

		count, err := store.Count(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(len(conns)-i-1), count)
	}
}

func TestRemoveUnknownConnectionDoesNotGoNegative(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	count, err := store.Remove(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStoreFailureDegradesWithoutEvents(t *testing.T) {
	emitter := &fakeEmitter{}
	tracker := NewTracker(failingStore{}, emitter)

	ctx := context.Background()
	userID := uuid.New()

	tracker.HandleConnect(ctx, userID, uuid.New())
	tracker.HandleDisconnect(ctx, userID, uuid.New())

	// Недоступное хранилище: статусные события не рассылаются,
	// online деградирует в false
	assert.Empty(t, emitter.events)
	assert.False(t, tracker.IsUserOnline(ctx, userID))
}
