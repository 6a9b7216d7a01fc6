package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, email, name, plan, usage_count, usage_limit, created_at, updated_at FROM users WHERE id = $1`, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Plan, &u.UsageCount, &u.UsageLimit, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUsage reads the usage counter pair without any locking. The pre-check
// built on it is advisory; the commit transaction owns the real increment.
func (r *UserRepositoryPG) GetUsage(ctx context.Context, userID string) (domain.Usage, error) {
	row := r.pool.QueryRow(ctx, `SELECT usage_count, usage_limit FROM users WHERE id = $1`, userID)
	var usage domain.Usage
	if err := row.Scan(&usage.Count, &usage.Limit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Usage{}, domain.ErrNotFound
		}
		return domain.Usage{}, err
	}
	return usage, nil
}
