package stores

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NexusProtocols/nexus-gateway-go/internal/domain/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenant = "default"

func seedSession(store *SessionsStore, id string, now time.Time) *gateway.Session {
	session := &gateway.Session{
		ID:             id,
		GatewayID:      "g1",
		CompletedTasks: []string{},
		CurrentStage:   0,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(30 * time.Minute),
	}
	store.UpsertSession(testTenant, session)
	return session
}

func TestGetSessionMissAndHit(t *testing.T) {
	store := NewSessionsStore(nil)

	_, found := store.GetSession(testTenant, "missing")
	assert.False(t, found)

	seedSession(store, "s1", time.Now().UTC())
	session, found := store.GetSession(testTenant, "s1")
	require.True(t, found)
	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, 0, session.CurrentStage)
	assert.Empty(t, session.CompletedTasks)
}

func TestGetSessionLogicalExpiry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store := NewSessionsStore(nil).WithClock(func() time.Time { return current })

	seedSession(store, "s1", base)

	current = base.Add(30*time.Minute - time.Second)
	_, found := store.GetSession(testTenant, "s1")
	assert.True(t, found)

	// The record is still resident but must report not found.
	current = base.Add(30*time.Minute + time.Second)
	_, found = store.GetSession(testTenant, "s1")
	assert.False(t, found)
	assert.Equal(t, 1, store.SessionCount(testTenant))
}

func TestMergeSessionAddsWithoutOverwriting(t *testing.T) {
	store := NewSessionsStore(nil)
	seedSession(store, "s1", time.Now().UTC())

	_, ok := store.MergeSession(testTenant, "s1", []string{"task-1", "task-2"}, nil)
	require.True(t, ok)

	// A merge with a new task must keep the earlier ones.
	merged, ok := store.MergeSession(testTenant, "s1", []string{"task-3"}, nil)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"task-1", "task-2", "task-3"}, merged.CompletedTasks)
}

func TestMergeSessionIsIdempotent(t *testing.T) {
	store := NewSessionsStore(nil)
	seedSession(store, "s1", time.Now().UTC())

	store.MergeSession(testTenant, "s1", []string{"task-1"}, nil)
	merged, ok := store.MergeSession(testTenant, "s1", []string{"task-1"}, nil)
	require.True(t, ok)
	assert.Equal(t, []string{"task-1"}, merged.CompletedTasks)
}

func TestMergeSessionSetsStage(t *testing.T) {
	store := NewSessionsStore(nil)
	seedSession(store, "s1", time.Now().UTC())

	stage := 2
	merged, ok := store.MergeSession(testTenant, "s1", nil, &stage)
	require.True(t, ok)
	assert.Equal(t, 2, merged.CurrentStage)
	assert.Empty(t, merged.CompletedTasks)
}

func TestMergeSessionRefreshesUpdatedAt(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store := NewSessionsStore(nil).WithClock(func() time.Time { return current })
	seedSession(store, "s1", base)

	current = base.Add(5 * time.Minute)
	merged, ok := store.MergeSession(testTenant, "s1", []string{"task-1"}, nil)
	require.True(t, ok)
	assert.Equal(t, current, merged.UpdatedAt)
}

func TestConcurrentMergesLoseNoWrites(t *testing.T) {
	store := NewSessionsStore(nil)
	seedSession(store, "s1", time.Now().UTC())

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			store.MergeSession(testTenant, "s1", []string{fmt.Sprintf("task-%d", n)}, nil)
		}(i)
	}
	wg.Wait()

	session, found := store.GetSession(testTenant, "s1")
	require.True(t, found)
	assert.Len(t, session.CompletedTasks, workers)
}

func TestCompleteSessionIdempotent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store := NewSessionsStore(nil).WithClock(func() time.Time { return current })
	seedSession(store, "s1", base)

	current = base.Add(time.Minute)
	first, ok := store.CompleteSession(testTenant, "s1")
	require.True(t, ok)
	require.True(t, first.Completed)
	require.NotNil(t, first.CompletedAt)

	current = base.Add(2 * time.Minute)
	second, ok := store.CompleteSession(testTenant, "s1")
	require.True(t, ok)
	assert.Equal(t, first.CompletedAt, second.CompletedAt, "completion timestamp must not move")
}

func TestPurgeExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store := NewSessionsStore(nil).WithClock(func() time.Time { return current })

	seedSession(store, "old", base)
	current = base.Add(20 * time.Minute)
	seedSession(store, "fresh", current)

	current = base.Add(40 * time.Minute)
	removed := store.PurgeExpired(testTenant)
	assert.Equal(t, 1, removed)

	_, found := store.GetSession(testTenant, "fresh")
	assert.True(t, found)
	assert.Equal(t, 1, store.SessionCount(testTenant))
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewSessionsStore(nil)
	seedSession(store, "s1", time.Now().UTC())
	store.MergeSession(testTenant, "s1", []string{"task-1"}, nil)

	snapshot, found := store.GetSession(testTenant, "s1")
	require.True(t, found)
	snapshot.CompletedTasks[0] = "mutated"

	fresh, found := store.GetSession(testTenant, "s1")
	require.True(t, found)
	assert.Equal(t, []string{"task-1"}, fresh.CompletedTasks)
}
