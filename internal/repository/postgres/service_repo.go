// internal/repository/postgres/service_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"instaup-service/internal/domain/catalog"
	"instaup-service/internal/pkg/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceRepository reads the static service catalog.
type ServiceRepository struct {
	db *pgxpool.Pool
}

func NewServiceRepository(db *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// ListActive returns all purchasable catalog entries.
func (r *ServiceRepository) ListActive(ctx context.Context) ([]catalog.ServiceItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ref, platform, name, description, price, min_order, max_order,
		       delivery_time, quality, features, is_popular, is_active, created_at
		FROM services
		WHERE is_active
		ORDER BY is_popular DESC, platform, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var items []catalog.ServiceItem
	for rows.Next() {
		var s catalog.ServiceItem
		if err := rows.Scan(
			&s.Ref, &s.Platform, &s.Name, &s.Description, &s.Price, &s.MinOrder,
			&s.MaxOrder, &s.DeliveryTime, &s.Quality, &s.Features, &s.IsPopular,
			&s.IsActive, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		items = append(items, s)
	}

	return items, rows.Err()
}

// FindByRef retrieves a single catalog entry.
func (r *ServiceRepository) FindByRef(ctx context.Context, ref string) (*catalog.ServiceItem, error) {
	var s catalog.ServiceItem
	err := r.db.QueryRow(ctx, `
		SELECT ref, platform, name, description, price, min_order, max_order,
		       delivery_time, quality, features, is_popular, is_active, created_at
		FROM services
		WHERE ref = $1
	`, ref).Scan(
		&s.Ref, &s.Platform, &s.Name, &s.Description, &s.Price, &s.MinOrder,
		&s.MaxOrder, &s.DeliveryTime, &s.Quality, &s.Features, &s.IsPopular,
		&s.IsActive, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service: %w", err)
	}

	return &s, nil
}
