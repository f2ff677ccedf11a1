// internal/repository/postgres/order_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"instaup-service/internal/domain/order"
	"instaup-service/internal/pkg/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// OrderRepository is the authoritative order store. Debit-and-create is
// atomic here and nowhere else: the client never assumes success before the
// transaction commits.
type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithDebit debits the user's balance and inserts the order in a
// single transaction. The row lock on the user serializes concurrent
// submissions; a balance short of the amount fails the whole transaction
// with ErrInsufficientFunds and nothing is written.
func (r *OrderRepository) CreateWithDebit(ctx context.Context, userID string, in order.SubmitInput) (order.Order, error) {
	var created order.Order

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return created, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return created, apperr.ErrUnauthenticated
	}
	if err != nil {
		return created, fmt.Errorf("failed to lock balance: %w", err)
	}

	if balance < in.TotalAmount {
		return created, apperr.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance - $2 WHERE id = $1`, userID, in.TotalAmount); err != nil {
		return created, fmt.Errorf("failed to debit balance: %w", err)
	}

	created = order.Order{
		ID:         ulid.Make().String(),
		UserID:     userID,
		ServiceRef: in.ServiceRef,
		TargetURL:  in.TargetURL,
		Quantity:   in.Quantity,
		Amount:     in.TotalAmount,
		Status:     order.StatusPending,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, service_ref, target_url, quantity, amount, status, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		RETURNING created_at, updated_at
	`, created.ID, created.UserID, created.ServiceRef, created.TargetURL,
		created.Quantity, created.Amount, created.Status,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	// The debit is a session mutation too: bump the version token so the
	// next authoritative fetch supersedes older in-flight ones.
	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET last_activity = now() WHERE user_id = $1`, userID); err != nil {
		return order.Order{}, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to commit order: %w", err)
	}

	return created, nil
}

// CreditDeposit applies a confirmed deposit to the authoritative balance and
// records it, returning the new balance.
func (r *OrderRepository) CreditDeposit(ctx context.Context, userID string, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET balance = balance + $2 WHERE id = $1 RETURNING balance`,
		userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.ErrUnauthenticated
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO deposits (id, user_id, amount) VALUES ($1, $2, $3)`,
		ulid.Make().String(), userID, amount); err != nil {
		return 0, fmt.Errorf("failed to record deposit: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET last_activity = now() WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit deposit: %w", err)
	}

	return balance, nil
}

// FetchOrders returns all orders for a user, newest first.
func (r *OrderRepository) FetchOrders(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, service_ref, target_url, quantity, amount, status, progress, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.ServiceRef, &o.TargetURL, &o.Quantity,
			&o.Amount, &o.Status, &o.Progress, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
