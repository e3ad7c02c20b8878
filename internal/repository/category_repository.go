package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuqr/menuqr/internal/domain"
)

type CategoryRepository interface {
	Create(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryCols = `id, restaurant_id, name, created_at, updated_at`

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	const q = `
		INSERT INTO categories (restaurant_id, name)
		VALUES ($1, $2)
		RETURNING ` + categoryCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanCategory(r.pool.QueryRow(ctx, q, req.RestaurantID, req.Name))
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const q = `SELECT ` + categoryCols + ` FROM categories WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanCategory(r.pool.QueryRow(ctx, q, id))
}

func (r *categoryRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Category, error) {
	const q = `
		SELECT ` + categoryCols + `
		FROM categories
		WHERE restaurant_id = $1
		ORDER BY created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM categories WHERE id = $1`
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
