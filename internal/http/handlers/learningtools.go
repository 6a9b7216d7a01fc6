package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"studymate/internal/domain"
	"studymate/internal/learningtool"
	"studymate/internal/middleware"
	"studymate/pkg/zip"
)

type generateToolRequest struct {
	Type          string   `json:"type"`
	Source        string   `json:"source"`
	SubjectID     *string  `json:"subject_id"`
	NoteID        *string  `json:"note_id"`
	NoteIDs       []string `json:"note_ids"`
	QuestionCount int      `json:"question_count"`
	CardCount     int      `json:"card_count"`
}

func (req generateToolRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Type, validation.Required,
			validation.In("organized_note", "quiz", "flashcards", "summary")),
		validation.Field(&req.Source, validation.Required,
			validation.In("note", "subject")),
		validation.Field(&req.QuestionCount, validation.Min(0), validation.Max(25)),
		validation.Field(&req.CardCount, validation.Min(0), validation.Max(40)),
	)
}

type toolResponse struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Source           string          `json:"source"`
	SubjectID        *string         `json:"subject_id,omitempty"`
	NoteID           *string         `json:"note_id,omitempty"`
	NoteIDs          []string        `json:"note_ids,omitempty"`
	GeneratedContent json.RawMessage `json:"generated_content"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toToolResponse(t *domain.LearningTool) toolResponse {
	return toolResponse{
		ID:               t.ID,
		Type:             string(t.Type),
		Source:           string(t.Source),
		SubjectID:        t.SubjectID,
		NoteID:           t.NoteID,
		NoteIDs:          t.NoteIDs,
		GeneratedContent: json.RawMessage(t.GeneratedContent),
		CreatedAt:        t.CreatedAt,
	}
}

// GenerateLearningTool handles POST /v1/learning-tools.
func (a *App) GenerateLearningTool(w http.ResponseWriter, r *http.Request) {
	var req generateToolRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	tool, err := a.LearningTools.Generate(r.Context(), learningtool.GenerateRequest{
		UserID:        middleware.UserIDFromContext(r.Context()),
		Type:          domain.ToolType(req.Type),
		Source:        domain.ToolSource(req.Source),
		SubjectID:     req.SubjectID,
		NoteID:        req.NoteID,
		NoteIDs:       req.NoteIDs,
		Locale:        middleware.LocaleFromContext(r.Context()),
		QuestionCount: req.QuestionCount,
		CardCount:     req.CardCount,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusCreated, toToolResponse(tool))
}

// GetLearningTool handles GET /v1/learning-tools/{id}.
func (a *App) GetLearningTool(w http.ResponseWriter, r *http.Request) {
	tool, err := a.LearningTools.Get(r.Context(), chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusOK, toToolResponse(tool))
}

// ListLearningTools handles GET /v1/learning-tools with optional subject_id
// and type query filters.
func (a *App) ListLearningTools(w http.ResponseWriter, r *http.Request) {
	var subjectID *string
	if v := r.URL.Query().Get("subject_id"); v != "" {
		subjectID = &v
	}
	var toolType *domain.ToolType
	if v := r.URL.Query().Get("type"); v != "" {
		tt := domain.ToolType(v)
		if !tt.Valid() {
			a.respondError(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("unknown tool type %q", v))
			return
		}
		toolType = &tt
	}

	tools, err := a.LearningTools.List(r.Context(), middleware.UserIDFromContext(r.Context()), subjectID, toolType)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]toolResponse, 0, len(tools))
	for i := range tools {
		out = append(out, toToolResponse(&tools[i]))
	}
	a.respond(w, http.StatusOK, map[string]any{"learning_tools": out})
}

// DeleteLearningTool handles DELETE /v1/learning-tools/{id}.
func (a *App) DeleteLearningTool(w http.ResponseWriter, r *http.Request) {
	if err := a.LearningTools.Delete(r.Context(), chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context())); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportLearningTool handles GET /v1/learning-tools/{id}/export and streams
// the artifact as a zip archive.
func (a *App) ExportLearningTool(w http.ResponseWriter, r *http.Request) {
	tool, err := a.LearningTools.Get(r.Context(), chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	body, err := json.MarshalIndent(toToolResponse(tool), "", "  ")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	archive, err := zip.Archive([]zip.Entry{
		{Name: fmt.Sprintf("%s.json", tool.Type), Data: body},
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.zip"`, tool.Type, tool.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// GetUsage handles GET /v1/usage.
func (a *App) GetUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := a.LearningTools.Usage(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	remaining := usage.Limit - usage.Count
	if remaining < 0 {
		remaining = 0
	}
	a.respond(w, http.StatusOK, map[string]any{
		"usage_count": usage.Count,
		"usage_limit": usage.Limit,
		"remaining":   remaining,
	})
}
