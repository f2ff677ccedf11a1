// internal/reconcile/loop.go
package reconcile

import (
	"context"
	"time"

	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/domain/order"
	"instaup-service/internal/ledger"
	"instaup-service/internal/session"

	"go.uber.org/zap"
)

// SessionFetcher retrieves the authoritative session snapshot. A nil
// snapshot with a nil error means the backend positively reports no such
// session.
type SessionFetcher interface {
	FetchSession(ctx context.Context, userID string) (*domain.Session, error)
}

// OrderFetcher retrieves the authoritative order listing for a user.
type OrderFetcher interface {
	FetchOrders(ctx context.Context, userID string) ([]order.Order, error)
}

// Loop periodically re-fetches authoritative state and merges it into the
// session store and order ledger. Polling is the fallback consistency
// mechanism while push delivery is degraded: a failed fetch skips the tick
// and retains cached state, and only a positive expiry report tears the
// session down.
type Loop struct {
	store    *session.Store
	ledger   *ledger.Ledger
	sessions SessionFetcher
	orders   OrderFetcher

	interval  time.Duration
	onExpired func()
	now       func() time.Time
	logger    *zap.Logger
}

func NewLoop(
	store *session.Store,
	ldg *ledger.Ledger,
	sessions SessionFetcher,
	orders OrderFetcher,
	interval time.Duration,
	onExpired func(),
	logger *zap.Logger,
) *Loop {
	if interval <= 0 {
		interval = time.Second
	}
	return &Loop{
		store:     store,
		ledger:    ldg,
		sessions:  sessions,
		orders:    orders,
		interval:  interval,
		onExpired: onExpired,
		now:       time.Now,
		logger:    logger,
	}
}

// Run ticks until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick performs one reconciliation pass.
func (l *Loop) Tick(ctx context.Context) {
	cur, ok := l.store.Current()
	if !ok {
		return
	}

	fetched, err := l.sessions.FetchSession(ctx, cur.UserID)
	if err != nil {
		// Fail-safe, not fail-fatal: keep the cached session, wait for the
		// next tick.
		l.logger.Debug("session fetch failed, skipping tick",
			zap.String("user_id", cur.UserID),
			zap.Error(err),
		)
		return
	}

	if fetched == nil || fetched.Expired(l.now()) {
		l.logger.Info("session expired, clearing cached state",
			zap.String("user_id", cur.UserID))
		l.store.Clear()
		if l.onExpired != nil {
			l.onExpired()
		}
		return
	}

	l.store.ApplyAuthoritative(*fetched)
	l.syncOrders(ctx, cur.UserID)
}

func (l *Loop) syncOrders(ctx context.Context, userID string) {
	if l.orders == nil || l.ledger == nil {
		return
	}
	listed, err := l.orders.FetchOrders(ctx, userID)
	if err != nil {
		l.logger.Debug("order fetch failed, skipping ledger sync",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}
	l.ledger.SyncAuthoritative(listed)
}
