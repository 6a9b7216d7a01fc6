package learningtool

import (
	"context"
	"fmt"
	"strings"

	"studymate/internal/domain"
)

// noteSeparator joins per-note study text for subject-wide generation.
const noteSeparator = "\n\n---\n\n"

// Aggregator resolves the text a generation request should read from,
// preferring extracted knowledge over raw note content.
type Aggregator struct {
	notes    domain.NoteRepository
	subjects domain.SubjectRepository
}

// NewAggregator constructs an Aggregator.
func NewAggregator(notes domain.NoteRepository, subjects domain.SubjectRepository) *Aggregator {
	return &Aggregator{notes: notes, subjects: subjects}
}

// AggregateInput selects the source for one generation request.
type AggregateInput struct {
	UserID    string
	Source    domain.ToolSource
	SubjectID *string
	NoteID    *string
	NoteIDs   []string
}

// AggregateResult is the resolved content and the notes that contributed to it.
type AggregateResult struct {
	Content string
	NoteIDs []string
}

// Resolve fetches and concatenates the study text for the request. Ownership
// is verified transitively through the note or subject.
func (a *Aggregator) Resolve(ctx context.Context, in AggregateInput) (*AggregateResult, error) {
	switch in.Source {
	case domain.ToolSourceNote:
		return a.resolveNote(ctx, in)
	case domain.ToolSourceSubject:
		return a.resolveSubject(ctx, in)
	default:
		return nil, fmt.Errorf("unknown source %q: %w", in.Source, domain.ErrInvalidInput)
	}
}

func (a *Aggregator) resolveNote(ctx context.Context, in AggregateInput) (*AggregateResult, error) {
	if in.NoteID == nil || *in.NoteID == "" {
		return nil, fmt.Errorf("note_id is required for note-sourced generation: %w", domain.ErrInvalidInput)
	}
	note, err := a.notes.GetByID(ctx, *in.NoteID)
	if err != nil {
		return nil, err
	}
	if note.UserID != in.UserID {
		return nil, fmt.Errorf("note %s: %w", note.ID, domain.ErrForbidden)
	}
	return &AggregateResult{Content: note.StudySource(), NoteIDs: []string{note.ID}}, nil
}

func (a *Aggregator) resolveSubject(ctx context.Context, in AggregateInput) (*AggregateResult, error) {
	if in.SubjectID == nil || *in.SubjectID == "" {
		return nil, fmt.Errorf("subject_id is required for subject-sourced generation: %w", domain.ErrInvalidInput)
	}
	subject, err := a.subjects.GetByID(ctx, *in.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject.UserID != in.UserID {
		return nil, fmt.Errorf("subject %s: %w", subject.ID, domain.ErrForbidden)
	}

	var notes []domain.Note
	if len(in.NoteIDs) > 0 {
		wanted := dedupe(in.NoteIDs)
		notes, err = a.notes.ListByIDsAndSubject(ctx, wanted, subject.ID)
		if err != nil {
			return nil, err
		}
		if len(notes) != len(wanted) {
			return nil, fmt.Errorf("one or more selected notes not found in subject: %w", domain.ErrInvalidInput)
		}
	} else {
		notes, err = a.notes.ListBySubject(ctx, subject.ID)
		if err != nil {
			return nil, err
		}
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("subject has no notes to generate from: %w", domain.ErrInvalidInput)
	}

	// Concatenate in fetch order; the store defines the ordering.
	parts := make([]string, 0, len(notes))
	ids := make([]string, 0, len(notes))
	for _, note := range notes {
		parts = append(parts, note.StudySource())
		ids = append(ids, note.ID)
	}
	return &AggregateResult{Content: strings.Join(parts, noteSeparator), NoteIDs: ids}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
