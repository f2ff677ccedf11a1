// internal/reconcile/loop_test.go
package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"instaup-service/internal/domain/order"
	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/ledger"
	"instaup-service/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessionFetcher struct {
	snap  *domain.Session
	err   error
	calls int
}

func (f *fakeSessionFetcher) FetchSession(ctx context.Context, userID string) (*domain.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.snap == nil {
		return nil, nil
	}
	cp := *f.snap
	return &cp, nil
}

type fakeOrderFetcher struct {
	orders []order.Order
	err    error
}

func (f *fakeOrderFetcher) FetchOrders(ctx context.Context, userID string) ([]order.Order, error) {
	return f.orders, f.err
}

func seeded(balance int64, activity time.Time) *session.Store {
	s := session.NewStore()
	s.ApplyAuthoritative(domain.Session{
		UserID:       "u1",
		Balance:      balance,
		LastActivity: activity,
		ExpiresAt:    activity.Add(time.Hour),
	})
	return s
}

func TestTickNoSessionIsNoop(t *testing.T) {
	fetcher := &fakeSessionFetcher{}
	l := NewLoop(session.NewStore(), ledger.New(zap.NewNop()), fetcher, nil, time.Second, nil, zap.NewNop())

	l.Tick(context.Background())

	assert.Zero(t, fetcher.calls)
}

func TestTickFetchFailureRetainsSession(t *testing.T) {
	store := seeded(5000, time.Now())
	fetcher := &fakeSessionFetcher{err: errors.New("connection refused")}
	l := NewLoop(store, ledger.New(zap.NewNop()), fetcher, nil, time.Second, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		l.Tick(context.Background())
	}

	cur, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, int64(5000), cur.Balance)
	assert.Equal(t, 3, fetcher.calls)
}

func TestTickAppliesNewerSnapshot(t *testing.T) {
	base := time.Now()
	store := seeded(5000, base)
	fetcher := &fakeSessionFetcher{snap: &domain.Session{
		UserID:       "u1",
		Balance:      8000,
		LastActivity: base.Add(time.Second),
		ExpiresAt:    base.Add(time.Hour),
	}}
	l := NewLoop(store, ledger.New(zap.NewNop()), fetcher, nil, time.Second, nil, zap.NewNop())

	l.Tick(context.Background())

	cur, _ := store.Current()
	assert.Equal(t, int64(8000), cur.Balance)
}

func TestTickStaleSnapshotIgnored(t *testing.T) {
	base := time.Now()
	store := seeded(5000, base)
	fetcher := &fakeSessionFetcher{snap: &domain.Session{
		UserID:       "u1",
		Balance:      9999,
		LastActivity: base.Add(-time.Minute),
		ExpiresAt:    base.Add(time.Hour),
	}}
	l := NewLoop(store, ledger.New(zap.NewNop()), fetcher, nil, time.Second, nil, zap.NewNop())

	l.Tick(context.Background())

	cur, _ := store.Current()
	assert.Equal(t, int64(5000), cur.Balance)
}

func TestTickAbsentSessionClears(t *testing.T) {
	store := seeded(5000, time.Now())
	expired := false
	l := NewLoop(store, ledger.New(zap.NewNop()), &fakeSessionFetcher{}, nil, time.Second, func() { expired = true }, zap.NewNop())

	l.Tick(context.Background())

	_, ok := store.Current()
	assert.False(t, ok)
	assert.True(t, expired)
}

func TestTickExpiredSessionClears(t *testing.T) {
	base := time.Now()
	store := seeded(5000, base)
	fetcher := &fakeSessionFetcher{snap: &domain.Session{
		UserID:       "u1",
		Balance:      5000,
		LastActivity: base,
		ExpiresAt:    base.Add(-time.Minute),
	}}
	expired := false
	l := NewLoop(store, ledger.New(zap.NewNop()), fetcher, nil, time.Second, func() { expired = true }, zap.NewNop())

	l.Tick(context.Background())

	_, ok := store.Current()
	assert.False(t, ok)
	assert.True(t, expired)
}

func TestTickSyncsOrders(t *testing.T) {
	base := time.Now()
	store := seeded(5000, base)
	ldg := ledger.New(zap.NewNop())
	ldg.InsertOptimistic(order.Order{ID: "o1", Status: order.StatusPending, CreatedAt: base})

	fetcher := &fakeSessionFetcher{snap: &domain.Session{
		UserID:       "u1",
		Balance:      5000,
		LastActivity: base,
		ExpiresAt:    base.Add(time.Hour),
	}}
	orders := &fakeOrderFetcher{orders: []order.Order{
		{ID: "o1", Status: order.StatusCompleted},
		{ID: "o2", Status: order.StatusProcessing, Progress: 40},
	}}
	l := NewLoop(store, ldg, fetcher, orders, time.Second, nil, zap.NewNop())

	l.Tick(context.Background())

	got, _ := ldg.Get("o1")
	assert.Equal(t, order.StatusCompleted, got.Status)

	adopted, ok := ldg.Get("o2")
	require.True(t, ok)
	assert.Equal(t, 40, adopted.Progress)
}

func TestTickOrderFetchFailureKeepsLedger(t *testing.T) {
	base := time.Now()
	store := seeded(5000, base)
	ldg := ledger.New(zap.NewNop())
	ldg.InsertOptimistic(order.Order{ID: "o1", Status: order.StatusPending, CreatedAt: base})

	fetcher := &fakeSessionFetcher{snap: &domain.Session{
		UserID:       "u1",
		Balance:      5000,
		LastActivity: base,
		ExpiresAt:    base.Add(time.Hour),
	}}
	orders := &fakeOrderFetcher{err: errors.New("timeout")}
	l := NewLoop(store, ldg, fetcher, orders, time.Second, nil, zap.NewNop())

	l.Tick(context.Background())

	_, ok := ldg.Get("o1")
	assert.True(t, ok)
}
