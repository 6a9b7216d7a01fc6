package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"studymate/internal/domain"
	"studymate/internal/ingest"
	"studymate/internal/learningtool"
	"studymate/internal/middleware"
)

// App bundles the handler dependencies. Handlers stay thin; everything with
// business meaning lives in the services.
type App struct {
	LearningTools *learningtool.Service
	Ingestor      *ingest.Service
	Notes         domain.NoteRepository
	Logger        zerolog.Logger
}

func NewApp(tools *learningtool.Service, ingestor *ingest.Service, notes domain.NoteRepository, logger zerolog.Logger) *App {
	return &App{
		LearningTools: tools,
		Ingestor:      ingestor,
		Notes:         notes,
		Logger:        logger,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			a.Logger.Error().Err(err).Msg("encode response")
		}
	}
}

func (a *App) respondError(w http.ResponseWriter, status int, slug, message string) {
	a.respond(w, status, errorResponse{Error: slug, Message: message})
}

// fail maps a service error onto the wire contract. Provider detail never
// reaches the client; the request log carries it instead.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		a.respondError(w, http.StatusBadRequest, "invalid_input", verr.Error())
	case errors.Is(err, domain.ErrPayloadTooLarge):
		a.respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		a.respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrQuotaExhausted):
		a.respondError(w, http.StatusForbidden, "quota_exhausted", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		a.respondError(w, http.StatusForbidden, "forbidden", "you do not have access to this resource")
	case errors.Is(err, domain.ErrNotFound):
		a.respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrConfiguration):
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("generation misconfigured")
		a.respondError(w, http.StatusServiceUnavailable, "service_unavailable", "generation service is not configured")
	case errors.Is(err, domain.ErrProvider), errors.Is(err, domain.ErrMalformedResponse):
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("generation failed")
		a.respondError(w, http.StatusBadGateway, "generation_failed", "generation failed")
	default:
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("request failed")
		a.respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", domain.ErrInvalidInput)
	}
	return nil
}
