package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// GetUsage reads the current usage counter and limit. This read is the
	// quota pre-check only; the authoritative increment happens inside the
	// learning-tool commit transaction.
	GetUsage(ctx context.Context, userID string) (Usage, error)
}

// SubjectRepository defines access methods for subjects.
type SubjectRepository interface {
	GetByID(ctx context.Context, id string) (*Subject, error)
}

// NoteRepository defines persistence for notes.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id string) (*Note, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Note, error)
	// ListByIDsAndSubject returns only the listed notes that belong to the
	// subject, in store order. Callers compare counts to detect mismatches.
	ListByIDsAndSubject(ctx context.Context, noteIDs []string, subjectID string) ([]Note, error)
}

// LearningToolRepository persists generated artifacts.
type LearningToolRepository interface {
	// CreateWithUsage writes the artifact, its junction rows and the user's
	// usage increment as one atomic unit. On any failure nothing is committed.
	CreateWithUsage(ctx context.Context, tool *LearningTool) (*LearningTool, error)
	GetByID(ctx context.Context, id string) (*LearningTool, error)
	ListByUser(ctx context.Context, userID string, subjectID *string, toolType *ToolType) ([]LearningTool, error)
	Delete(ctx context.Context, id, userID string) error
}
