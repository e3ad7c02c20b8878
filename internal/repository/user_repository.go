package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuqr/menuqr/internal/domain"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpsertWithCode creates or refreshes the user row and stores a fresh
	// pending code. Any outstanding code is overwritten (last write wins).
	UpsertWithCode(ctx context.Context, req *domain.RequestCodeRequest, code string, sentAt time.Time) (*domain.User, error)
	// ConsumeCode flips the user to verified and clears the pending code,
	// but only if the stored code still equals the supplied one. The
	// compare-and-swap makes the code single-use even under concurrent
	// confirmations.
	ConsumeCode(ctx context.Context, email, code string) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, email, full_name, country, is_verified, verification_code, code_sent_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Country, &u.IsVerified,
		&u.VerificationCode, &u.CodeSentAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepository) UpsertWithCode(ctx context.Context, req *domain.RequestCodeRequest, code string, sentAt time.Time) (*domain.User, error) {
	const q = `
		INSERT INTO users (email, full_name, country, is_verified, verification_code, code_sent_at)
		VALUES ($1, $2, $3, false, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			country = EXCLUDED.country,
			verification_code = EXCLUDED.verification_code,
			code_sent_at = EXCLUDED.code_sent_at,
			updated_at = now()
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, req.Email, req.FullName, req.Country, code, sentAt))
}

func (r *userRepository) ConsumeCode(ctx context.Context, email, code string) (bool, error) {
	const q = `
		UPDATE users
		SET is_verified = true,
		    verification_code = NULL,
		    code_sent_at = NULL,
		    updated_at = now()
		WHERE email = $1
		  AND verification_code = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email, code)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() == 1, nil
}
