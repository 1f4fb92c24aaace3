package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

// fakeApplier scripts an outcome per clientTxnId and records the apply order.
type fakeApplier struct {
	mu       sync.Mutex
	outcomes map[string]error
	applied  []string
	block    chan struct{}
}

func (f *fakeApplier) Apply(ctx context.Context, entry models.OutboxEntry) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, entry.ClientTxnID)
	if f.outcomes == nil {
		return nil
	}
	return f.outcomes[entry.ClientTxnID]
}

func (f *fakeApplier) appliedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.applied))
	copy(out, f.applied)
	return out
}

func setupSyncerQueue(t *testing.T) (*outbox.Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEntry{}))
	return outbox.NewRepository(conn), conn
}

func seedPending(t *testing.T, conn *gorm.DB, key string, createdAt time.Time) *models.OutboxEntry {
	t.Helper()

	entry := &models.OutboxEntry{
		ClientTxnID: key,
		EventType:   enums.OutboxEventSale,
		Payload:     json.RawMessage(`{}`),
		Status:      enums.OutboxStatusPending,
		CreatedAt:   createdAt,
	}
	require.NoError(t, conn.Create(entry).Error)
	return entry
}

func newTestEngine(t *testing.T, queue *outbox.Repository, applier Applier, online OnlineFunc) *Engine {
	t.Helper()

	engine, err := NewEngine(EngineParams{
		Queue:    queue,
		Applier:  applier,
		Online:   online,
		Interval: time.Hour,
		MaxBatch: 10,
	})
	require.NoError(t, err)
	return engine
}

func TestRunPassAppliesNewestFirstAndMarksSynced(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{}
	engine := newTestEngine(t, queue, applier, nil)

	base := time.Now().Add(-time.Hour)
	old := seedPending(t, conn, "txn-old", base)
	fresh := seedPending(t, conn, "txn-new", base.Add(time.Minute))

	result := engine.RunPass(context.Background(), TriggerManual)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{"txn-new", "txn-old"}, applier.appliedKeys())

	for _, id := range []int64{old.ID, fresh.ID} {
		row, err := queue.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, enums.OutboxStatusSynced, row.Status)
		assert.Equal(t, 1, row.Attempts)
		assert.Nil(t, row.LastError)
	}
}

func TestRunPassTreatsAlreadyAppliedAsSuccess(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{outcomes: map[string]error{
		"txn-dup": pkgerrors.New(pkgerrors.CodeAlreadyApplied, "sale already applied"),
	}}
	engine := newTestEngine(t, queue, applier, nil)

	entry := seedPending(t, conn, "txn-dup", time.Now())

	result := engine.RunPass(context.Background(), TriggerManual)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.AlreadyApplied)

	row, err := queue.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutboxStatusSynced, row.Status)
}

func TestRunPassDefersOnRemoteUnavailable(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{outcomes: map[string]error{
		"txn-b": pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "connection refused"),
	}}
	engine := newTestEngine(t, queue, applier, nil)

	base := time.Now().Add(-time.Hour)
	entryA := seedPending(t, conn, "txn-a", base)
	entryB := seedPending(t, conn, "txn-b", base.Add(time.Minute))

	result := engine.RunPass(context.Background(), TriggerManual)
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 2, result.Deferred)

	// txn-b was tried first (newest) and failed transiently; the pass bailed
	// before reaching txn-a. Both rows remain PENDING.
	assert.Equal(t, []string{"txn-b"}, applier.appliedKeys())
	for _, id := range []int64{entryA.ID, entryB.ID} {
		row, err := queue.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, enums.OutboxStatusPending, row.Status)
	}

	rowB, err := queue.Get(context.Background(), entryB.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rowB.Attempts)
}

func TestRunPassParksNonRetryableAsFailed(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{outcomes: map[string]error{
		"txn-bad": pkgerrors.New(pkgerrors.CodeConflict, "integrity violation"),
	}}
	engine := newTestEngine(t, queue, applier, nil)

	base := time.Now().Add(-time.Hour)
	good := seedPending(t, conn, "txn-good", base)
	bad := seedPending(t, conn, "txn-bad", base.Add(time.Minute))

	result := engine.RunPass(context.Background(), TriggerManual)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Failed)

	badRow, err := queue.Get(context.Background(), bad.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutboxStatusFailed, badRow.Status)
	require.NotNil(t, badRow.LastError)
	assert.Contains(t, *badRow.LastError, "integrity violation")

	goodRow, err := queue.Get(context.Background(), good.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutboxStatusSynced, goodRow.Status)
}

func TestRunPassSkipsWhenOffline(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{}
	engine := newTestEngine(t, queue, applier, func(ctx context.Context) bool { return false })

	entry := seedPending(t, conn, "txn-1", time.Now())

	result := engine.RunPass(context.Background(), TriggerInterval)
	assert.True(t, result.Skipped)
	assert.Empty(t, applier.appliedKeys())

	row, err := queue.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutboxStatusPending, row.Status)
	assert.Equal(t, 0, row.Attempts)
}

func TestRunPassSingleFlight(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{block: make(chan struct{})}
	engine := newTestEngine(t, queue, applier, nil)

	seedPending(t, conn, "txn-1", time.Now())

	firstDone := make(chan PassResult, 1)
	go func() {
		firstDone <- engine.RunPass(context.Background(), TriggerStartup)
	}()

	// Wait until the first pass holds the in-flight flag.
	require.Eventually(t, func() bool { return engine.inFlight.Load() }, time.Second, time.Millisecond)

	second := engine.RunPass(context.Background(), TriggerNotify)
	assert.True(t, second.Skipped)

	close(applier.block)
	first := <-firstDone
	assert.Equal(t, 1, first.Applied)
}

func TestRetryThenResyncFlow(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{outcomes: map[string]error{
		"txn-1": pkgerrors.New(pkgerrors.CodeConflict, "bad payload"),
	}}
	engine := newTestEngine(t, queue, applier, nil)
	ctx := context.Background()

	entry := seedPending(t, conn, "txn-1", time.Now())

	engine.RunPass(ctx, TriggerManual)
	row, err := queue.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OutboxStatusFailed, row.Status)

	// Operator repairs the cause and retries; the row drains on the next pass.
	applier.mu.Lock()
	applier.outcomes = nil
	applier.mu.Unlock()

	ok, err := queue.Retry(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, ok)

	result := engine.RunPass(ctx, TriggerManual)
	assert.Equal(t, 1, result.Applied)

	row, err = queue.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutboxStatusSynced, row.Status)
	assert.Equal(t, 2, row.Attempts)
}

func TestNotifyCoalesces(t *testing.T) {
	queue, _ := setupSyncerQueue(t)
	engine := newTestEngine(t, queue, &fakeApplier{}, nil)

	// Repeated notifies while no loop is draining must never block.
	for i := 0; i < 5; i++ {
		engine.Notify()
	}
	assert.Len(t, engine.notify, 1)
}

func TestStartRunsStartupPassAndStops(t *testing.T) {
	queue, conn := setupSyncerQueue(t)
	applier := &fakeApplier{}
	engine := newTestEngine(t, queue, applier, nil)

	entry := seedPending(t, conn, "txn-1", time.Now())

	engine.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(applier.appliedKeys()) == 1
	}, time.Second, 5*time.Millisecond)

	engine.Stop()

	row, err := queue.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutboxStatusSynced, row.Status)
}
