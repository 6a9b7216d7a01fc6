package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate/internal/domain"
)

// LearningToolRepositoryPG implements domain.LearningToolRepository backed
// by PostgreSQL. Its create path is the single place the usage counter is
// incremented, inside the same transaction as the artifact rows.
type LearningToolRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewLearningToolRepository creates a new LearningToolRepositoryPG.
func NewLearningToolRepository(pool *pgxpool.Pool) *LearningToolRepositoryPG {
	return &LearningToolRepositoryPG{pool: pool}
}

// CreateWithUsage writes the artifact row, its junction rows and the usage
// increment as one transaction. On any failure nothing is committed and no
// quota is consumed; a concurrent reader never observes a partial state.
func (r *LearningToolRepositoryPG) CreateWithUsage(ctx context.Context, tool *domain.LearningTool) (*domain.LearningTool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %v: %w", err, domain.ErrPersistence)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
INSERT INTO learning_tools (id, user_id, tool_type, source, subject_id, note_id, generated_content)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at;
`,
		tool.ID,
		tool.UserID,
		tool.Type,
		tool.Source,
		tool.SubjectID,
		tool.NoteID,
		tool.GeneratedContent,
	)
	if err := row.Scan(&tool.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert learning tool: %v: %w", err, domain.ErrPersistence)
	}

	if tool.Source == domain.ToolSourceSubject && len(tool.NoteIDs) > 0 {
		batch := &pgx.Batch{}
		for _, noteID := range tool.NoteIDs {
			batch.Queue(`INSERT INTO learning_tool_notes (learning_tool_id, note_id) VALUES ($1, $2)`, tool.ID, noteID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("insert junction rows: %v: %w", err, domain.ErrPersistence)
		}
	}

	tag, err := tx.Exec(ctx, `UPDATE users SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1`, tool.UserID)
	if err != nil {
		return nil, fmt.Errorf("increment usage: %v: %w", err, domain.ErrPersistence)
	}
	if tag.RowsAffected() != 1 {
		return nil, fmt.Errorf("increment usage: user %s not found: %w", tool.UserID, domain.ErrPersistence)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %v: %w", err, domain.ErrPersistence)
	}

	return r.GetByID(ctx, tool.ID)
}

const toolQuery = `
SELECT lt.id, lt.user_id, lt.tool_type, lt.source, lt.subject_id, lt.note_id, lt.generated_content, lt.created_at,
       COALESCE(array_agg(ltn.note_id) FILTER (WHERE ltn.note_id IS NOT NULL), '{}') AS note_ids
FROM learning_tools lt
LEFT JOIN learning_tool_notes ltn ON ltn.learning_tool_id = lt.id
`

// GetByID fetches one artifact with its contributing note IDs.
func (r *LearningToolRepositoryPG) GetByID(ctx context.Context, id string) (*domain.LearningTool, error) {
	row := r.pool.QueryRow(ctx, toolQuery+`WHERE lt.id = $1 GROUP BY lt.id`, id)
	return scanTool(row)
}

// ListByUser returns the user's artifacts, newest first, optionally
// filtered by subject and type.
func (r *LearningToolRepositoryPG) ListByUser(ctx context.Context, userID string, subjectID *string, toolType *domain.ToolType) ([]domain.LearningTool, error) {
	query := toolQuery + `WHERE lt.user_id = $1`
	args := []any{userID}
	if subjectID != nil {
		args = append(args, *subjectID)
		query += fmt.Sprintf(` AND lt.subject_id = $%d`, len(args))
	}
	if toolType != nil {
		args = append(args, *toolType)
		query += fmt.Sprintf(` AND lt.tool_type = $%d`, len(args))
	}
	query += ` GROUP BY lt.id ORDER BY lt.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []domain.LearningTool
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, *tool)
	}
	return tools, rows.Err()
}

// Delete removes the artifact; junction rows cascade at the schema level.
func (r *LearningToolRepositoryPG) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM learning_tools WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTool(row pgx.Row) (*domain.LearningTool, error) {
	var t domain.LearningTool
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Source, &t.SubjectID, &t.NoteID, &t.GeneratedContent, &t.CreatedAt, &t.NoteIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
