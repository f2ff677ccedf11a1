// internal/core/core.go
package core

import (
	"context"
	"sync"
	"time"

	"instaup-service/internal/domain/order"
	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/ledger"
	"instaup-service/internal/push"
	"instaup-service/internal/reconcile"
	"instaup-service/internal/session"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Core bundles the cached state for one authenticated user: the session
// store, the order ledger, and the two background producers feeding them
// (reconciliation loop and push channel). A core exists only between login
// and logout/expiry; teardown discards everything.
type Core struct {
	UserID  string
	Session *session.Store
	Ledger  *ledger.Ledger

	cancel context.CancelFunc

	mu     sync.Mutex
	resume *order.SubmitInput
}

// StashResume remembers a submission blocked on insufficient funds so a
// completed deposit can offer to replay it. Only the most recent attempt is
// kept.
func (c *Core) StashResume(in order.SubmitInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := in
	c.resume = &cp
}

// TakeResume pops the stashed submission, if any.
func (c *Core) TakeResume() (order.SubmitInput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resume == nil {
		return order.SubmitInput{}, false
	}
	in := *c.resume
	c.resume = nil
	return in, true
}

func (c *Core) close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.Session.Clear()
	c.Ledger.Clear()
}

// ExpiryHandler is invoked when the reconciliation loop positively detects
// session expiry, after the core has been torn down.
type ExpiryHandler func(userID string)

// OpenHook runs once per freshly created core, before its background
// producers start. Used to attach store and ledger observers.
type OpenHook func(c *Core)

// Registry owns the live cores, one per authenticated user. A second login
// for the same user (another tab) reuses the existing core rather than
// forking state.
type Registry struct {
	mu    sync.Mutex
	cores map[string]*Core

	sessions  reconcile.SessionFetcher
	orders    reconcile.OrderFetcher
	rdb       *redis.Client
	interval  time.Duration
	onExpired ExpiryHandler
	onOpen    OpenHook
	logger    *zap.Logger
}

func NewRegistry(
	sessions reconcile.SessionFetcher,
	orders reconcile.OrderFetcher,
	rdb *redis.Client,
	interval time.Duration,
	logger *zap.Logger,
) *Registry {
	return &Registry{
		cores:    make(map[string]*Core),
		sessions: sessions,
		orders:   orders,
		rdb:      rdb,
		interval: interval,
		logger:   logger,
	}
}

// SetExpiryHandler wires the UI-notification hook. Must be called before the
// first Open.
func (r *Registry) SetExpiryHandler(fn ExpiryHandler) {
	r.onExpired = fn
}

// SetOpenHook wires the per-core observer hook. Must be called before the
// first Open.
func (r *Registry) SetOpenHook(fn OpenHook) {
	r.onOpen = fn
}

// Open creates (or reuses) the core for a user and seeds it with the
// authoritative login snapshot. The reconciliation loop and push channel
// start immediately; the initial order backfill runs before Open returns so
// the first ledger read is not empty.
func (r *Registry) Open(ctx context.Context, seed domain.Session) *Core {
	r.mu.Lock()
	if c, ok := r.cores[seed.UserID]; ok {
		r.mu.Unlock()
		c.Session.ApplyAuthoritative(seed)
		return c
	}

	c := &Core{
		UserID:  seed.UserID,
		Session: session.NewStore(),
		Ledger:  ledger.New(r.logger),
	}
	r.cores[seed.UserID] = c
	r.mu.Unlock()

	if r.onOpen != nil {
		r.onOpen(c)
	}

	c.Session.ApplyAuthoritative(seed)

	if r.orders != nil {
		if listed, err := r.orders.FetchOrders(ctx, seed.UserID); err == nil {
			c.Ledger.SyncAuthoritative(listed)
		} else {
			r.logger.Warn("initial order backfill failed",
				zap.String("user_id", seed.UserID),
				zap.Error(err),
			)
		}
	}

	bg, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	loop := reconcile.NewLoop(c.Session, c.Ledger, r.sessions, r.orders, r.interval, func() {
		r.expire(c.UserID)
	}, r.logger)
	go loop.Run(bg)

	if r.rdb != nil {
		go push.NewChannel(r.rdb, seed.UserID, c.Ledger, r.logger).Run(bg)
	}

	r.logger.Info("session core opened", zap.String("user_id", seed.UserID))
	return c
}

// Get returns the live core for a user.
func (r *Registry) Get(userID string) (*Core, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cores[userID]
	return c, ok
}

// Close tears down a user's core on logout.
func (r *Registry) Close(userID string) {
	r.mu.Lock()
	c, ok := r.cores[userID]
	delete(r.cores, userID)
	r.mu.Unlock()

	if ok {
		c.close()
		r.logger.Info("session core closed", zap.String("user_id", userID))
	}
}

func (r *Registry) expire(userID string) {
	r.mu.Lock()
	c, ok := r.cores[userID]
	delete(r.cores, userID)
	r.mu.Unlock()

	if ok {
		c.close()
	}
	if r.onExpired != nil {
		r.onExpired(userID)
	}
}

// Shutdown closes every live core.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	cores := r.cores
	r.cores = make(map[string]*Core)
	r.mu.Unlock()

	for _, c := range cores {
		c.close()
	}
}
