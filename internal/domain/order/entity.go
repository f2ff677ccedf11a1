// internal/domain/order/entity.go
package order

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// statusRank orders statuses for the monotonic-merge rule. Completed and
// failed share a rank: both are terminal outcomes of processing and neither
// may replace the other.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
	StatusRefunded:   3,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of s in the state machine ordering.
func (s Status) Rank() int {
	return statusRank[s]
}

// CanTransition reports whether moving from s to next is legal. Push
// delivery is at-least-once and unordered, so forward skips out of pending
// are allowed (a coalesced "completed" can arrive before any "processing"
// event). Refund is the only transition out of a terminal state.
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCompleted || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted:
		return next == StatusRefunded
	default:
		return false
	}
}

// Order is a single purchase and its fulfillment state. ServiceRef,
// TargetURL and Quantity are opaque payload: carried through, never mutated.
type Order struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ServiceRef string    `json:"service_ref"`
	TargetURL  string    `json:"target_url"`
	Quantity   int       `json:"quantity"`
	Amount     int64     `json:"amount"` // debited from balance exactly once, at creation
	Status     Status    `json:"status"`
	Progress   int       `json:"progress"` // 0-100, meaningful only while processing
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Terminal reports whether the order has left the active part of the state
// machine (refund excepted).
func (o Order) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusFailed || o.Status == StatusRefunded
}
