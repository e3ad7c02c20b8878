package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuqr/menuqr/internal/domain"
)

type DishRepository interface {
	Create(ctx context.Context, req *domain.CreateDishRequest) (*domain.Dish, error)
	GetByID(ctx context.Context, id string) (*domain.Dish, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Dish, error)
	Delete(ctx context.Context, id string) error
}

type dishRepository struct {
	pool *pgxpool.Pool
}

func NewDishRepository(pool *pgxpool.Pool) DishRepository {
	return &dishRepository{pool: pool}
}

const dishCols = `d.id, d.restaurant_id, d.name, d.description, d.image, d.spice_level, d.type, d.selling_rate, d.created_at, d.updated_at`

const dishSelect = `
	SELECT ` + dishCols + `,
		COALESCE(array_agg(dc.category_id::text) FILTER (WHERE dc.category_id IS NOT NULL), '{}')
	FROM dishes d
	LEFT JOIN dish_categories dc ON dc.dish_id = d.id`

func scanDish(row pgx.Row) (*domain.Dish, error) {
	var d domain.Dish
	err := row.Scan(
		&d.ID, &d.RestaurantID, &d.Name, &d.Description, &d.Image,
		&d.SpiceLevel, &d.Type, &d.SellingRate, &d.CreatedAt, &d.UpdatedAt,
		&d.CategoryIDs,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dishRepository) Create(ctx context.Context, req *domain.CreateDishRequest) (*domain.Dish, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertDish = `
		INSERT INTO dishes (restaurant_id, name, description, image, spice_level, type, selling_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, restaurant_id, name, description, image, spice_level, type, selling_rate, created_at, updated_at`

	var d domain.Dish
	err = tx.QueryRow(ctx, insertDish,
		req.RestaurantID, req.Name, req.Description, req.Image,
		req.SpiceLevel, req.Type, req.SellingRate,
	).Scan(
		&d.ID, &d.RestaurantID, &d.Name, &d.Description, &d.Image,
		&d.SpiceLevel, &d.Type, &d.SellingRate, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	const linkCategory = `INSERT INTO dish_categories (dish_id, category_id) VALUES ($1, $2)`
	for _, categoryID := range req.Categories {
		if _, err := tx.Exec(ctx, linkCategory, d.ID, categoryID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	d.CategoryIDs = req.Categories
	return &d, nil
}

func (r *dishRepository) GetByID(ctx context.Context, id string) (*domain.Dish, error) {
	const q = dishSelect + `
		WHERE d.id = $1
		GROUP BY d.id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanDish(r.pool.QueryRow(ctx, q, id))
}

func (r *dishRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.Dish, error) {
	const q = dishSelect + `
		WHERE d.restaurant_id = $1
		GROUP BY d.id
		ORDER BY d.created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dishes []domain.Dish
	for rows.Next() {
		var d domain.Dish
		if err := rows.Scan(
			&d.ID, &d.RestaurantID, &d.Name, &d.Description, &d.Image,
			&d.SpiceLevel, &d.Type, &d.SellingRate, &d.CreatedAt, &d.UpdatedAt,
			&d.CategoryIDs,
		); err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}

	return dishes, rows.Err()
}

func (r *dishRepository) Delete(ctx context.Context, id string) error {
	// dish_categories rows cascade at the schema level
	const q = `DELETE FROM dishes WHERE id = $1`
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
