package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"studymate/internal/domain"
	"studymate/internal/ingest"
	"studymate/internal/middleware"
)

type createNoteRequest struct {
	SubjectID  *string `json:"subject_id"`
	Title      string  `json:"title"`
	RawContent string  `json:"raw_content"`
	FileKind   string  `json:"file_kind"`
	FileText   string  `json:"file_text"`
	FileBase64 string  `json:"file_base64"`
	FileName   string  `json:"file_name"`
	FileType   string  `json:"file_type"`
}

func (req createNoteRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.FileKind,
			validation.In("", "pdf_text", "pdf_binary", "image")),
		validation.Field(&req.Title, validation.Length(0, 255)),
	)
}

type noteResponse struct {
	ID                 string    `json:"id"`
	SubjectID          *string   `json:"subject_id,omitempty"`
	Title              string    `json:"title"`
	RawContent         string    `json:"raw_content"`
	KnowledgeBase      *string   `json:"knowledge_base,omitempty"`
	AIProcessedContent *string   `json:"ai_processed_content,omitempty"`
	FileURL            *string   `json:"file_url,omitempty"`
	FileType           *string   `json:"file_type,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toNoteResponse(n *domain.Note) noteResponse {
	return noteResponse{
		ID:                 n.ID,
		SubjectID:          n.SubjectID,
		Title:              n.Title,
		RawContent:         n.RawContent,
		KnowledgeBase:      n.KnowledgeBase,
		AIProcessedContent: n.AIProcessedContent,
		FileURL:            n.FileURL,
		FileType:           n.FileType,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
	}
}

// CreateNote handles POST /v1/notes. Plain notes persist as-is; uploads run
// through the ingestion pipeline first.
func (a *App) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	note, err := a.Ingestor.Ingest(r.Context(), ingest.Input{
		UserID:     middleware.UserIDFromContext(r.Context()),
		SubjectID:  req.SubjectID,
		Title:      req.Title,
		RawContent: req.RawContent,
		Kind:       ingest.Kind(req.FileKind),
		FileText:   req.FileText,
		FileBase64: req.FileBase64,
		FileName:   req.FileName,
		FileType:   req.FileType,
		Locale:     middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.respond(w, http.StatusCreated, toNoteResponse(note))
}

// GetNote handles GET /v1/notes/{id}.
func (a *App) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := a.Notes.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if note.UserID != middleware.UserIDFromContext(r.Context()) {
		a.fail(w, r, domain.ErrForbidden)
		return
	}
	a.respond(w, http.StatusOK, toNoteResponse(note))
}
