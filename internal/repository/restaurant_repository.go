package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuqr/menuqr/internal/domain"
)

type RestaurantRepository interface {
	Create(ctx context.Context, ownerID string, req *domain.CreateRestaurantRequest) (*domain.Restaurant, error)
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error)
	Delete(ctx context.Context, id string) error
}

type restaurantRepository struct {
	pool *pgxpool.Pool
}

func NewRestaurantRepository(pool *pgxpool.Pool) RestaurantRepository {
	return &restaurantRepository{pool: pool}
}

const restaurantCols = `id, owner_id, name, location, created_at, updated_at`

func scanRestaurant(row pgx.Row) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	err := row.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Location, &rest.CreatedAt, &rest.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *restaurantRepository) Create(ctx context.Context, ownerID string, req *domain.CreateRestaurantRequest) (*domain.Restaurant, error) {
	const q = `
		INSERT INTO restaurants (owner_id, name, location)
		VALUES ($1, $2, $3)
		RETURNING ` + restaurantCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanRestaurant(r.pool.QueryRow(ctx, q, ownerID, req.Name, req.Location))
}

func (r *restaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	const q = `SELECT ` + restaurantCols + ` FROM restaurants WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanRestaurant(r.pool.QueryRow(ctx, q, id))
}

func (r *restaurantRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error) {
	const q = `
		SELECT ` + restaurantCols + `
		FROM restaurants
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []domain.Restaurant
	for rows.Next() {
		var rest domain.Restaurant
		if err := rows.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Location, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, err
		}
		restaurants = append(restaurants, rest)
	}

	return restaurants, rows.Err()
}

func (r *restaurantRepository) Delete(ctx context.Context, id string) error {
	// categories, dishes and dish links cascade at the schema level
	const q = `DELETE FROM restaurants WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		// Lost a race with another delete; the row is gone either way.
		return domain.ErrNotFound
	}

	return nil
}
