package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate/internal/domain"
)

// SubjectRepositoryPG implements domain.SubjectRepository backed by PostgreSQL.
type SubjectRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepositoryPG.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepositoryPG {
	return &SubjectRepositoryPG{pool: pool}
}

// GetByID fetches a subject by UUID.
func (r *SubjectRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Subject, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, name, description, created_at, updated_at FROM subjects WHERE id = $1`, id)
	var s domain.Subject
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
