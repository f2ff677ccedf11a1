// internal/ledger/ledger.go
package ledger

import (
	"sort"
	"sync"
	"time"

	"instaup-service/internal/domain/order"
	"instaup-service/internal/pkg/apperr"

	"go.uber.org/zap"
)

const (
	// defaultMaxBuffered caps the early-update buffer so a misbehaving push
	// source cannot grow it without bound.
	defaultMaxBuffered = 64
	// defaultGrace is how long a buffered update for an unknown order stays
	// eligible for replay against a late optimistic insert.
	defaultGrace = 30 * time.Second
)

// Observer receives every applied order change.
type Observer func(o order.Order)

type bufferedUpdate struct {
	update order.StatusUpdate
	seen   time.Time
}

// Ledger owns the set of known orders for one user. Updates arrive from two
// producers (push channel and reconciliation fetches) in no guaranteed order;
// each order only ever moves forward through the state machine, progress is
// monotonic per status, and duplicates are no-ops.
type Ledger struct {
	mu        sync.Mutex
	orders    map[string]*order.Order
	buffered  map[string]bufferedUpdate
	observers []Observer

	maxBuffered int
	grace       time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func New(logger *zap.Logger) *Ledger {
	return &Ledger{
		orders:      make(map[string]*order.Order),
		buffered:    make(map[string]bufferedUpdate),
		maxBuffered: defaultMaxBuffered,
		grace:       defaultGrace,
		now:         time.Now,
		logger:      logger,
	}
}

// Subscribe registers an observer for applied order changes.
func (l *Ledger) Subscribe(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// InsertOptimistic records an order immediately after the backend accepted
// the submission, before full confirmation. If a push event for this order
// raced ahead of the HTTP response, the buffered update is replayed now.
func (l *Ledger) InsertOptimistic(o order.Order) {
	if o.Status == "" {
		o.Status = order.StatusPending
	}

	l.mu.Lock()
	if _, exists := l.orders[o.ID]; exists {
		l.mu.Unlock()
		return
	}
	cp := o
	l.orders[o.ID] = &cp

	var replay *order.StatusUpdate
	if buf, ok := l.buffered[o.ID]; ok {
		delete(l.buffered, o.ID)
		if l.now().Sub(buf.seen) <= l.grace {
			u := buf.update
			replay = &u
		}
	}
	note := cp
	obs := l.observers
	l.mu.Unlock()

	notify(obs, note)
	if replay != nil {
		l.ApplyUpdate(*replay)
	}
}

// ApplyUpdate merges a status observation into the ledger. Unknown order IDs
// are buffered for a grace window to cover the push-before-insert race.
// Illegal transitions are dropped and logged as anomalies; the entry stays
// unchanged. Returns whether the update changed the ledger.
func (l *Ledger) ApplyUpdate(u order.StatusUpdate) bool {
	if !u.Status.Valid() {
		l.logger.Warn("dropping update with unknown status",
			zap.String("order_id", u.OrderID),
			zap.String("status", string(u.Status)),
		)
		return false
	}

	l.mu.Lock()
	o, ok := l.orders[u.OrderID]
	if !ok {
		l.bufferLocked(u)
		l.mu.Unlock()
		return false
	}

	changed, err := mergeLocked(o, u, l.now())
	if err != nil {
		from := o.Status
		l.mu.Unlock()
		l.logger.Warn("dropping illegal order transition",
			zap.String("order_id", u.OrderID),
			zap.String("from", string(from)),
			zap.String("to", string(u.Status)),
			zap.Error(err),
		)
		return false
	}
	if !changed {
		l.mu.Unlock()
		return false
	}
	note := *o
	obs := l.observers
	l.mu.Unlock()

	notify(obs, note)
	return true
}

// mergeLocked applies u onto o. Progress only advances while the order is
// processing; any transition away from processing freezes it.
func mergeLocked(o *order.Order, u order.StatusUpdate, now time.Time) (bool, error) {
	switch {
	case u.Status == o.Status:
		if o.Status != order.StatusProcessing {
			return false, nil
		}
		if u.Progress <= o.Progress {
			return false, nil
		}
		o.Progress = clampProgress(u.Progress)
		o.UpdatedAt = now
		return true, nil

	case o.Status.CanTransition(u.Status):
		o.Status = u.Status
		if u.Status == order.StatusProcessing && u.Progress > o.Progress {
			o.Progress = clampProgress(u.Progress)
		}
		o.UpdatedAt = now
		return true, nil

	default:
		return false, apperr.ErrIllegalTransition
	}
}

// SyncAuthoritative merges a full authoritative order listing, typically
// from a reconciliation fetch. Known orders go through the same monotonic
// merge as push events; unknown ones are adopted as-is (backfill after a
// reconnect or a second tab's purchase).
func (l *Ledger) SyncAuthoritative(orders []order.Order) {
	for _, o := range orders {
		l.mu.Lock()
		_, known := l.orders[o.ID]
		l.mu.Unlock()

		if known {
			l.ApplyUpdate(order.StatusUpdate{OrderID: o.ID, Status: o.Status, Progress: o.Progress})
			continue
		}

		l.mu.Lock()
		if _, raced := l.orders[o.ID]; raced {
			l.mu.Unlock()
			continue
		}
		cp := o
		l.orders[o.ID] = &cp
		delete(l.buffered, o.ID)
		note := cp
		obs := l.observers
		l.mu.Unlock()
		notify(obs, note)
	}
}

// Get returns a single order snapshot.
func (l *Ledger) Get(id string) (order.Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return *o, true
}

// Orders returns all known orders, newest first.
func (l *Ledger) Orders() []order.Order {
	l.mu.Lock()
	out := make([]order.Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, *o)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Clear discards all ledger state on logout.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = make(map[string]*order.Order)
	l.buffered = make(map[string]bufferedUpdate)
}

func (l *Ledger) bufferLocked(u order.StatusUpdate) {
	now := l.now()

	// Drop expired entries first; evict nothing else even at capacity, a
	// fresh update is more likely to matter than an old one.
	for id, buf := range l.buffered {
		if now.Sub(buf.seen) > l.grace {
			delete(l.buffered, id)
		}
	}
	if len(l.buffered) >= l.maxBuffered {
		l.logger.Warn("early-update buffer full, dropping update",
			zap.String("order_id", u.OrderID))
		return
	}

	if prev, ok := l.buffered[u.OrderID]; ok {
		// Keep the furthest-advanced observation for the unknown order.
		if u.Status.Rank() < prev.update.Status.Rank() ||
			(u.Status == prev.update.Status && u.Progress <= prev.update.Progress) {
			return
		}
	}
	l.buffered[u.OrderID] = bufferedUpdate{update: u, seen: now}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func notify(obs []Observer, o order.Order) {
	for _, fn := range obs {
		fn(o)
	}
}
