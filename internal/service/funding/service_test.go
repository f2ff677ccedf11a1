// internal/service/funding/service_test.go
package funding

import (
	"context"
	"errors"
	"testing"
	"time"

	"instaup-service/internal/core"
	"instaup-service/internal/domain/catalog"
	"instaup-service/internal/domain/order"
	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/ledger"
	"instaup-service/internal/pkg/apperr"
	"instaup-service/internal/session"
	orderUsecase "instaup-service/internal/service/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCrediter struct {
	balance int64
	err     error
}

func (f *fakeCrediter) CreditDeposit(ctx context.Context, userID string, amount int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.balance += amount
	return f.balance, nil
}

type fakeCreator struct {
	created order.Order
	err     error
}

func (f *fakeCreator) CreateWithDebit(ctx context.Context, userID string, in order.SubmitInput) (order.Order, error) {
	if f.err != nil {
		return order.Order{}, f.err
	}
	return f.created, nil
}

type fakeCatalog struct{}

func (fakeCatalog) FindByRef(ctx context.Context, ref string) (*catalog.ServiceItem, error) {
	return &catalog.ServiceItem{
		Ref:      ref,
		Price:    3,
		MinOrder: 100,
		MaxOrder: 10000,
		IsActive: true,
	}, nil
}

func testCore(balance int64) *core.Core {
	c := &core.Core{
		UserID:  "u1",
		Session: session.NewStore(),
		Ledger:  ledger.New(zap.NewNop()),
	}
	c.Session.ApplyAuthoritative(domain.Session{
		UserID:       "u1",
		Balance:      balance,
		LastActivity: time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	return c
}

func TestSettleUnauthenticated(t *testing.T) {
	svc := NewService(&fakeCrediter{}, nil, zap.NewNop())

	_, err := svc.Settle(context.Background(), nil, 1000)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestSettleRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(&fakeCrediter{}, nil, zap.NewNop())

	_, err := svc.Settle(context.Background(), testCore(7000), 0)
	assert.Error(t, err)
}

func TestSettleCreditsBalance(t *testing.T) {
	svc := NewService(&fakeCrediter{balance: 7000}, nil, zap.NewNop())
	c := testCore(7000)

	result, err := svc.Settle(context.Background(), c, 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Balance)
	assert.Nil(t, result.Resumed)

	cur, _ := c.Session.Current()
	assert.Equal(t, int64(10000), cur.Balance)
}

func TestSettleBackendFailureLeavesCacheUntouched(t *testing.T) {
	svc := NewService(&fakeCrediter{err: errors.New("payment backend down")}, nil, zap.NewNop())
	c := testCore(7000)

	_, err := svc.Settle(context.Background(), c, 3000)
	assert.Error(t, err)

	cur, _ := c.Session.Current()
	assert.Equal(t, int64(7000), cur.Balance)
}

func TestSettleResumesStashedSubmission(t *testing.T) {
	creator := &fakeCreator{created: order.Order{
		ID:        "o1",
		UserID:    "u1",
		Status:    order.StatusPending,
		CreatedAt: time.Now(),
	}}
	orderSvc := orderUsecase.NewService(creator, fakeCatalog{}, time.Second, zap.NewNop())
	svc := NewService(&fakeCrediter{balance: 7000}, orderSvc, zap.NewNop())

	c := testCore(7000)
	in := order.SubmitInput{
		ServiceRef:  "ig-followers",
		TargetURL:   "https://instagram.com/someone",
		Quantity:    3000,
		TotalAmount: 9000,
	}

	// The original submission was blocked on funds.
	_, err := orderSvc.Submit(context.Background(), c, in)
	require.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	result, err := svc.Settle(context.Background(), c, 3000)
	require.NoError(t, err)
	require.NotNil(t, result.Resumed)
	assert.Equal(t, "o1", result.Resumed.OrderID)
	assert.Equal(t, int64(1000), result.Balance) // 7000 + 3000 - 9000

	// The stash is consumed either way.
	_, stashed := c.TakeResume()
	assert.False(t, stashed)
}

func TestSettleReportsResumeFailure(t *testing.T) {
	creator := &fakeCreator{err: apperr.OrderFailed("target url rejected")}
	orderSvc := orderUsecase.NewService(creator, fakeCatalog{}, time.Second, zap.NewNop())
	svc := NewService(&fakeCrediter{balance: 7000}, orderSvc, zap.NewNop())

	c := testCore(7000)
	c.StashResume(order.SubmitInput{
		ServiceRef:  "ig-followers",
		TargetURL:   "https://instagram.com/someone",
		Quantity:    3000,
		TotalAmount: 9000,
	})

	result, err := svc.Settle(context.Background(), c, 3000)
	require.NoError(t, err)
	assert.Nil(t, result.Resumed)
	assert.NotEmpty(t, result.ResumeFailure)
	assert.Equal(t, int64(10000), result.Balance)
}
