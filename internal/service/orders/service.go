// internal/service/orders/service.go
package orders

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"instaup-service/internal/core"
	"instaup-service/internal/domain/catalog"
	"instaup-service/internal/domain/order"
	"instaup-service/internal/pkg/apperr"

	"go.uber.org/zap"
)

// Creator is the order-creation collaborator: the only place where
// debit-and-create is atomic.
type Creator interface {
	CreateWithDebit(ctx context.Context, userID string, in order.SubmitInput) (order.Order, error)
}

// Catalog resolves service entries for submission re-validation.
type Catalog interface {
	FindByRef(ctx context.Context, ref string) (*catalog.ServiceItem, error)
}

type Service struct {
	creator Creator
	catalog Catalog
	timeout time.Duration
	logger  *zap.Logger
}

func NewService(creator Creator, cat Catalog, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		creator: creator,
		catalog: cat,
		timeout: timeout,
		logger:  logger,
	}
}

// Submit runs a purchase attempt end to end. Local checks (authentication,
// catalog validity, balance) short-circuit before any backend write; the
// backend remains the final authority on funds. On success the ledger gets
// an optimistic pending entry and the cached balance is debited. A timed-out
// backend call surfaces ErrUnknownOutcome with no local mutation: the order
// may or may not exist, so the caller must re-check rather than resubmit.
func (s *Service) Submit(ctx context.Context, c *core.Core, in order.SubmitInput) (*order.SubmitResult, error) {
	if c == nil {
		return nil, apperr.ErrUnauthenticated
	}
	cur, ok := c.Session.Current()
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}

	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	// Advisory balance check: avoids a doomed round trip and drives the
	// top-up-then-resume flow. The backend re-checks under a row lock.
	if in.TotalAmount > cur.Balance {
		c.StashResume(in)
		return nil, apperr.ErrInsufficientFunds
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.creator.CreateWithDebit(callCtx, cur.UserID, in)
	switch {
	case err == nil:

	case errors.Is(err, apperr.ErrInsufficientFunds):
		// Lost the race: balance changed between the local check and the
		// backend check. No local state was mutated.
		c.StashResume(in)
		return nil, apperr.ErrInsufficientFunds

	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("order submission timed out",
			zap.String("user_id", cur.UserID),
			zap.String("service_ref", in.ServiceRef),
		)
		return nil, apperr.ErrUnknownOutcome

	case errors.Is(err, apperr.ErrUnauthenticated):
		return nil, apperr.ErrUnauthenticated

	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			// Connection-level failure before the backend decided anything;
			// unlike a timeout, the submission definitely did not happen.
			return nil, apperr.ErrNetworkUnavailable
		}
		return nil, apperr.OrderFailed(err.Error())
	}

	c.Ledger.InsertOptimistic(created)

	if err := c.Session.ApplyLocalDebit(in.TotalAmount); err != nil {
		// The authoritative debit already happened; a failed local debit
		// only means the cache was behind. Reconciliation converges it.
		s.logger.Warn("optimistic debit skipped",
			zap.String("user_id", cur.UserID),
			zap.String("order_id", created.ID),
			zap.Error(err),
		)
	}

	balance := cur.Balance - in.TotalAmount
	if snap, ok := c.Session.Current(); ok {
		balance = snap.Balance
	}

	s.logger.Info("order submitted",
		zap.String("user_id", cur.UserID),
		zap.String("order_id", created.ID),
		zap.Int64("amount", in.TotalAmount),
	)

	return &order.SubmitResult{OrderID: created.ID, Balance: balance}, nil
}

// validate re-checks the submission against the current catalog. A resumed
// submission goes through here again, so a price change between the original
// attempt and the replay is caught instead of silently honored.
func (s *Service) validate(ctx context.Context, in order.SubmitInput) error {
	if s.catalog == nil {
		return nil
	}

	svc, err := s.catalog.FindByRef(ctx, in.ServiceRef)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.OrderFailed("service is no longer available")
	}
	if err != nil {
		return apperr.OrderFailed(err.Error())
	}

	if !svc.IsActive {
		return apperr.OrderFailed("service is no longer available")
	}
	if in.Quantity < svc.MinOrder || in.Quantity > svc.MaxOrder {
		return apperr.OrderFailed(fmt.Sprintf("quantity must be between %d and %d", svc.MinOrder, svc.MaxOrder))
	}
	if expected := svc.Total(in.Quantity); expected != in.TotalAmount {
		return apperr.OrderFailed(fmt.Sprintf("price changed: expected total %d", expected))
	}

	return nil
}

// Orders returns the ledger snapshot for the user.
func (s *Service) Orders(c *core.Core) ([]order.Order, error) {
	if c == nil {
		return nil, apperr.ErrUnauthenticated
	}
	return c.Ledger.Orders(), nil
}

// Get returns a single order snapshot.
func (s *Service) Get(c *core.Core, orderID string) (order.Order, error) {
	if c == nil {
		return order.Order{}, apperr.ErrUnauthenticated
	}
	o, ok := c.Ledger.Get(orderID)
	if !ok {
		return order.Order{}, apperr.ErrNotFound
	}
	return o, nil
}
