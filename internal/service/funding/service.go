// internal/service/funding/service.go
package funding

import (
	"context"
	"fmt"

	"instaup-service/internal/core"
	"instaup-service/internal/domain/order"
	"instaup-service/internal/pkg/apperr"
	"instaup-service/internal/service/orders"

	"go.uber.org/zap"
)

// Crediter applies a confirmed deposit to the authoritative balance.
type Crediter interface {
	CreditDeposit(ctx context.Context, userID string, amount int64) (int64, error)
}

// SettleResult reports the settled deposit plus the outcome of a resumed
// submission, if one was stashed behind an insufficient-funds failure.
type SettleResult struct {
	Balance       int64               `json:"balance"`
	Resumed       *order.SubmitResult `json:"resumed_order,omitempty"`
	ResumeFailure string              `json:"resume_failure,omitempty"`
}

type Service struct {
	crediter Crediter
	orders   *orders.Service
	logger   *zap.Logger
}

func NewService(crediter Crediter, orderSvc *orders.Service, logger *zap.Logger) *Service {
	return &Service{
		crediter: crediter,
		orders:   orderSvc,
		logger:   logger,
	}
}

// Settle applies a deposit the payment collaborator has confirmed: the
// authoritative credit first, then the local cache, then a replay of any
// stashed submission. The replay goes through the full submission
// validation, so it cannot bypass balance or catalog checks.
func (s *Service) Settle(ctx context.Context, c *core.Core, amount int64) (*SettleResult, error) {
	if c == nil {
		return nil, apperr.ErrUnauthenticated
	}
	cur, ok := c.Session.Current()
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	balance, err := s.crediter.CreditDeposit(ctx, cur.UserID, amount)
	if err != nil {
		return nil, err
	}

	if err := c.Session.ApplyLocalCredit(amount); err != nil {
		s.logger.Warn("optimistic credit skipped",
			zap.String("user_id", cur.UserID),
			zap.Error(err),
		)
	}

	s.logger.Info("deposit settled",
		zap.String("user_id", cur.UserID),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance),
	)

	result := &SettleResult{Balance: balance}

	in, pending := c.TakeResume()
	if !pending || s.orders == nil {
		return result, nil
	}

	resumed, err := s.orders.Submit(ctx, c, in)
	if err != nil {
		// The replay is a convenience, not a correctness requirement:
		// report the failure alongside the successful settlement.
		result.ResumeFailure = err.Error()
		return result, nil
	}

	result.Resumed = resumed
	result.Balance = resumed.Balance
	return result, nil
}
