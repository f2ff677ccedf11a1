// internal/ledger/ledger_test.go
package ledger

import (
	"fmt"
	"testing"
	"time"

	"instaup-service/internal/domain/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLedger() *Ledger {
	return New(zap.NewNop())
}

func pendingOrder(id string) order.Order {
	return order.Order{
		ID:        id,
		UserID:    "u1",
		Status:    order.StatusPending,
		CreatedAt: time.Now(),
	}
}

func TestInsertOptimisticDeduplicates(t *testing.T) {
	l := newTestLedger()

	o := pendingOrder("o1")
	l.InsertOptimistic(o)

	o.Status = order.StatusCompleted
	l.InsertOptimistic(o)

	got, ok := l.Get("o1")
	require.True(t, ok)
	assert.Equal(t, order.StatusPending, got.Status)
}

func TestApplyUpdateForwardTransitions(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))

	assert.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 20}))
	assert.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted}))

	got, _ := l.Get("o1")
	assert.Equal(t, order.StatusCompleted, got.Status)
}

func TestApplyUpdateSkipsProcessing(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))

	// A coalesced completion can arrive before any processing event.
	assert.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted}))
}

func TestApplyUpdateIllegalTransitionDropped(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))
	require.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted}))

	// completed and failed are peer outcomes; neither replaces the other
	assert.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusFailed}))

	got, _ := l.Get("o1")
	assert.Equal(t, order.StatusCompleted, got.Status)
}

func TestApplyUpdateRefundAfterCompleted(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))
	require.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted}))

	assert.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusRefunded}))
	assert.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusFailed}))
}

func TestProgressMonotonicWhileProcessing(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))
	require.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 60}))

	// A stale lower-progress observation must not rewind.
	assert.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 40}))

	got, _ := l.Get("o1")
	assert.Equal(t, 60, got.Progress)

	assert.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 80}))
	got, _ = l.Get("o1")
	assert.Equal(t, 80, got.Progress)
}

func TestProgressFrozenOutsideProcessing(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))
	require.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 70}))
	require.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted, Progress: 10}))

	got, _ := l.Get("o1")
	assert.Equal(t, 70, got.Progress)

	assert.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted, Progress: 100}))
}

func TestProgressClamped(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))
	require.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 250}))

	got, _ := l.Get("o1")
	assert.Equal(t, 100, got.Progress)
}

func TestPushBeforeInsertReplayed(t *testing.T) {
	l := newTestLedger()

	// Event arrives before the HTTP response inserted the order.
	assert.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 15}))

	l.InsertOptimistic(pendingOrder("o1"))

	got, ok := l.Get("o1")
	require.True(t, ok)
	assert.Equal(t, order.StatusProcessing, got.Status)
	assert.Equal(t, 15, got.Progress)
}

func TestBufferedUpdateExpires(t *testing.T) {
	l := newTestLedger()
	base := time.Now()
	l.now = func() time.Time { return base }

	require.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 15}))

	l.now = func() time.Time { return base.Add(defaultGrace + time.Second) }
	l.InsertOptimistic(pendingOrder("o1"))

	got, _ := l.Get("o1")
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, 0, got.Progress)
}

func TestBufferCapped(t *testing.T) {
	l := newTestLedger()

	for i := 0; i < defaultMaxBuffered+10; i++ {
		l.ApplyUpdate(order.StatusUpdate{
			OrderID: fmt.Sprintf("unknown-%d", i),
			Status:  order.StatusProcessing,
		})
	}

	assert.Len(t, l.buffered, defaultMaxBuffered)
}

func TestBufferKeepsFurthestAdvanced(t *testing.T) {
	l := newTestLedger()

	require.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted}))
	require.False(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 50}))

	l.InsertOptimistic(pendingOrder("o1"))

	got, _ := l.Get("o1")
	assert.Equal(t, order.StatusCompleted, got.Status)
}

func TestSyncAuthoritativeAdoptsUnknown(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))

	l.SyncAuthoritative([]order.Order{
		{ID: "o1", Status: order.StatusProcessing, Progress: 30},
		{ID: "o2", Status: order.StatusCompleted},
	})

	got, _ := l.Get("o1")
	assert.Equal(t, order.StatusProcessing, got.Status)
	assert.Equal(t, 30, got.Progress)

	adopted, ok := l.Get("o2")
	require.True(t, ok)
	assert.Equal(t, order.StatusCompleted, adopted.Status)
}

func TestSyncAuthoritativeStaleStatusIgnored(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))
	require.True(t, l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusCompleted}))

	// A poll snapshot read before the completion landed.
	l.SyncAuthoritative([]order.Order{{ID: "o1", Status: order.StatusProcessing, Progress: 90}})

	got, _ := l.Get("o1")
	assert.Equal(t, order.StatusCompleted, got.Status)
}

func TestOrdersNewestFirst(t *testing.T) {
	l := newTestLedger()
	base := time.Now()

	l.InsertOptimistic(order.Order{ID: "old", Status: order.StatusPending, CreatedAt: base.Add(-time.Hour)})
	l.InsertOptimistic(order.Order{ID: "new", Status: order.StatusPending, CreatedAt: base})

	listed := l.Orders()
	require.Len(t, listed, 2)
	assert.Equal(t, "new", listed[0].ID)
	assert.Equal(t, "old", listed[1].ID)
}

func TestClearDiscardsEverything(t *testing.T) {
	l := newTestLedger()
	l.InsertOptimistic(pendingOrder("o1"))
	l.ApplyUpdate(order.StatusUpdate{OrderID: "unknown", Status: order.StatusProcessing})

	l.Clear()

	assert.Empty(t, l.Orders())
	assert.Empty(t, l.buffered)
}

func TestObserverNotified(t *testing.T) {
	l := newTestLedger()

	var seen []order.Order
	l.Subscribe(func(o order.Order) { seen = append(seen, o) })

	l.InsertOptimistic(pendingOrder("o1"))
	l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 10})
	l.ApplyUpdate(order.StatusUpdate{OrderID: "o1", Status: order.StatusProcessing, Progress: 10}) // duplicate, no-op

	require.Len(t, seen, 2)
	assert.Equal(t, order.StatusPending, seen[0].Status)
	assert.Equal(t, order.StatusProcessing, seen[1].Status)
}
