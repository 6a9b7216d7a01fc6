package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate/internal/domain"
)

// NoteRepositoryPG implements domain.NoteRepository backed by PostgreSQL.
type NoteRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new NoteRepositoryPG.
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepositoryPG {
	return &NoteRepositoryPG{pool: pool}
}

const noteColumns = `id, subject_id, user_id, title, raw_content, knowledge_base, ai_processed_content, file_url, file_path, file_type, created_at, updated_at`

// Create inserts a note and backfills the store-assigned timestamps.
func (r *NoteRepositoryPG) Create(ctx context.Context, note *domain.Note) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO notes (id, subject_id, user_id, title, raw_content, knowledge_base, ai_processed_content, file_url, file_path, file_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING created_at, updated_at;
`,
		note.ID,
		note.SubjectID,
		note.UserID,
		note.Title,
		note.RawContent,
		note.KnowledgeBase,
		note.AIProcessedContent,
		note.FileURL,
		note.FilePath,
		note.FileType,
	)
	return row.Scan(&note.CreatedAt, &note.UpdatedAt)
}

// GetByID fetches a note by UUID.
func (r *NoteRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	return scanNote(row)
}

// ListBySubject returns every note under the subject in creation order.
func (r *NoteRepositoryPG) ListBySubject(ctx context.Context, subjectID string) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noteColumns+` FROM notes WHERE subject_id = $1 ORDER BY created_at, id`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotes(rows)
}

// ListByIDsAndSubject returns only the listed notes that belong to the
// subject. Callers compare counts against the request to detect strays.
func (r *NoteRepositoryPG) ListByIDsAndSubject(ctx context.Context, noteIDs []string, subjectID string) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ANY($1) AND subject_id = $2 ORDER BY created_at, id`, noteIDs, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNotes(rows)
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	if err := row.Scan(&n.ID, &n.SubjectID, &n.UserID, &n.Title, &n.RawContent, &n.KnowledgeBase, &n.AIProcessedContent, &n.FileURL, &n.FilePath, &n.FileType, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func collectNotes(rows pgx.Rows) ([]domain.Note, error) {
	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}
