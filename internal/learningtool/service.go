package learningtool

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studymate/internal/domain"
	"studymate/internal/infra"
	"studymate/internal/toolgen"
)

// Generator produces a serialized artifact from aggregated content.
type Generator interface {
	Generate(ctx context.Context, toolType domain.ToolType, content string, opts toolgen.Options) (string, error)
}

// Service is the top-level learning-tool use case. One request runs the
// stages strictly in order: validate, aggregate, generate, commit. A failure
// at any stage leaves no artifact row and no usage change behind.
type Service struct {
	aggregator *Aggregator
	quota      *QuotaGuard
	generator  Generator
	tools      domain.LearningToolRepository
	timeout    time.Duration
	logger     *infra.Logger
}

// NewService constructs the orchestrator with injected collaborators.
func NewService(aggregator *Aggregator, quota *QuotaGuard, generator Generator, tools domain.LearningToolRepository, timeout time.Duration, logger *infra.Logger) *Service {
	return &Service{
		aggregator: aggregator,
		quota:      quota,
		generator:  generator,
		tools:      tools,
		timeout:    timeout,
		logger:     logger,
	}
}

// GenerateRequest describes one learning-tool generation.
type GenerateRequest struct {
	UserID        string
	Type          domain.ToolType
	Source        domain.ToolSource
	SubjectID     *string
	NoteID        *string
	NoteIDs       []string
	Locale        string
	QuestionCount int
	CardCount     int
}

// Generate runs the full pipeline and returns the committed artifact.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*domain.LearningTool, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.quota.Check(ctx, req.UserID); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	aggregated, err := s.aggregator.Resolve(ctx, AggregateInput{
		UserID:    req.UserID,
		Source:    req.Source,
		SubjectID: req.SubjectID,
		NoteID:    req.NoteID,
		NoteIDs:   req.NoteIDs,
	})
	if err != nil {
		return nil, err
	}

	content, err := s.generator.Generate(ctx, req.Type, aggregated.Content, toolgen.Options{
		Locale:        req.Locale,
		QuestionCount: req.QuestionCount,
		CardCount:     req.CardCount,
	})
	if err != nil {
		return nil, err
	}

	tool := &domain.LearningTool{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		Type:             req.Type,
		Source:           req.Source,
		GeneratedContent: content,
	}
	switch req.Source {
	case domain.ToolSourceNote:
		tool.NoteID = req.NoteID
	case domain.ToolSourceSubject:
		tool.SubjectID = req.SubjectID
		tool.NoteIDs = aggregated.NoteIDs
	}

	created, err := s.tools.CreateWithUsage(ctx, tool)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", req.UserID).
		Str("tool_id", created.ID).
		Str("tool_type", string(req.Type)).
		Str("source", string(req.Source)).
		Int("contributing_notes", len(aggregated.NoteIDs)).
		Msg("learning tool generated")
	return created, nil
}

// validate checks that the type/source/id combination is self-consistent
// before any external call is made.
func (s *Service) validate(req GenerateRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("user is required: %w", domain.ErrInvalidInput)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("unsupported learning tool type %q: %w", req.Type, domain.ErrInvalidInput)
	}
	if !req.Source.Valid() {
		return fmt.Errorf("unsupported source %q: %w", req.Source, domain.ErrInvalidInput)
	}
	switch req.Source {
	case domain.ToolSourceNote:
		if req.NoteID == nil || *req.NoteID == "" {
			return fmt.Errorf("note_id is required for note-sourced generation: %w", domain.ErrInvalidInput)
		}
	case domain.ToolSourceSubject:
		if req.SubjectID == nil || *req.SubjectID == "" {
			return fmt.Errorf("subject_id is required for subject-sourced generation: %w", domain.ErrInvalidInput)
		}
	}
	return nil
}

// Get returns one artifact, enforcing ownership.
func (s *Service) Get(ctx context.Context, id, userID string) (*domain.LearningTool, error) {
	tool, err := s.tools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tool.UserID != userID {
		return nil, fmt.Errorf("learning tool %s: %w", id, domain.ErrForbidden)
	}
	return tool, nil
}

// List returns the user's artifacts, optionally filtered.
func (s *Service) List(ctx context.Context, userID string, subjectID *string, toolType *domain.ToolType) ([]domain.LearningTool, error) {
	if toolType != nil && !toolType.Valid() {
		return nil, fmt.Errorf("unsupported learning tool type %q: %w", *toolType, domain.ErrInvalidInput)
	}
	return s.tools.ListByUser(ctx, userID, subjectID, toolType)
}

// Delete removes one artifact; junction rows go with it.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.tools.Delete(ctx, id, userID)
}

// Usage exposes the current counter pair for the authenticated user.
func (s *Service) Usage(ctx context.Context, userID string) (domain.Usage, error) {
	return s.quota.Usage(ctx, userID)
}
