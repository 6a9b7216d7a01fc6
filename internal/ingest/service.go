package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"studymate/internal/domain"
	"studymate/internal/infra"
	"studymate/internal/toolgen"
)

// Cost ceilings for file ingestion. These are hard limits, not tunables:
// every chunk of extracted text turns into paid provider tokens.
const (
	MaxPDFTextChars = 500_000
	chunkChars      = 100_000
	maxChunks       = 5
)

// Kind selects the ingestion path for an uploaded file.
type Kind string

const (
	KindNone      Kind = ""
	KindPDFText   Kind = "pdf_text"
	KindPDFBinary Kind = "pdf_binary"
	KindImage     Kind = "image"
)

// BlobStore is the slice of object storage the ingestor needs.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, key, mime string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Extractor runs a vision call that transcribes an image to text.
type Extractor interface {
	ExtractFromImage(ctx context.Context, data []byte, mime string) (string, error)
}

// Organizer structures extracted knowledge into an organized note artifact.
type Organizer interface {
	Generate(ctx context.Context, toolType domain.ToolType, content string, opts toolgen.Options) (string, error)
}

// Service converts an uploaded PDF or image into a note carrying both a
// verbatim knowledge base and an AI-organized version. For the extraction
// paths a provider failure fails the whole note creation and nothing is
// persisted; the legacy pdf_binary path stores the binary verbatim even when
// its opportunistic text promotion fails.
type Service struct {
	notes     domain.NoteRepository
	store     BlobStore
	extractor Extractor
	organizer Organizer
	timeout   time.Duration
	logger    *infra.Logger
	pdfText   func(data []byte) (string, error)
}

// NewService constructs the ingestor with injected collaborators.
func NewService(notes domain.NoteRepository, store BlobStore, extractor Extractor, organizer Organizer, timeout time.Duration, logger *infra.Logger) *Service {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Service{
		notes:     notes,
		store:     store,
		extractor: extractor,
		organizer: organizer,
		timeout:   timeout,
		logger:    logger,
		pdfText:   extractPDFText,
	}
}

// Input describes one note creation, with or without a file payload.
type Input struct {
	UserID     string
	SubjectID  *string
	Title      string
	RawContent string
	Kind       Kind
	// FileText carries client-side extracted text for the pdf_text kind.
	FileText string
	// FileBase64 carries the uploaded file for pdf_binary and image kinds.
	FileBase64 string
	// FileName is the client-supplied name, used for the storage key suffix.
	FileName string
	// FileType is an explicit MIME type; when set it wins over sniffing.
	FileType string
	Locale   string
}

// Ingest creates the note. For file-backed kinds it runs extraction and
// structuring first, uploads the original file, and persists the note last,
// deleting the uploaded blob again if persistence fails.
func (s *Service) Ingest(ctx context.Context, in Input) (*domain.Note, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user is required: %w", domain.ErrInvalidInput)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	note := &domain.Note{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		SubjectID:  in.SubjectID,
		Title:      strings.TrimSpace(in.Title),
		RawContent: in.RawContent,
	}

	switch in.Kind {
	case KindNone:
		if strings.TrimSpace(note.RawContent) == "" {
			return nil, fmt.Errorf("raw content is required without a file: %w", domain.ErrInvalidInput)
		}
	case KindPDFText:
		if err := s.ingestPDFText(ctx, note, in.FileText, in.Locale); err != nil {
			return nil, err
		}
	case KindPDFBinary:
		if err := s.ingestPDFBinary(ctx, note, in); err != nil {
			return nil, err
		}
	case KindImage:
		if err := s.ingestImage(ctx, note, in); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported file kind %q: %w", in.Kind, domain.ErrInvalidInput)
	}

	if note.Title == "" {
		note.Title = titleFromText(note.StudySource())
	}

	if err := s.notes.Create(ctx, note); err != nil {
		if note.FilePath != nil {
			_ = s.store.Delete(ctx, *note.FilePath)
		}
		return nil, fmt.Errorf("create note: %v: %w", err, domain.ErrPersistence)
	}
	s.logger.Info().
		Str("note_id", note.ID).
		Str("user_id", note.UserID).
		Str("kind", string(in.Kind)).
		Msg("note ingested")
	return note, nil
}

// ingestPDFText handles text that is already extracted client-side. No
// vision call is needed; one generation call structures the note.
func (s *Service) ingestPDFText(ctx context.Context, note *domain.Note, text, locale string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("pdf text is empty: %w", domain.ErrInvalidInput)
	}
	if len(text) > MaxPDFTextChars {
		return &domain.PayloadTooLargeError{Size: len(text), Max: MaxPDFTextChars}
	}
	s.logChunks(len(text))

	structured, err := s.organizer.Generate(ctx, domain.ToolTypeOrganizedNote, text, toolgen.Options{Locale: locale})
	if err != nil {
		return err
	}
	note.KnowledgeBase = &text
	note.AIProcessedContent = &structured
	if note.RawContent == "" {
		note.RawContent = text
	}
	return nil
}

// ingestPDFBinary is the legacy path: the binary is stored verbatim and no
// provider call is required. When the document carries an extractable text
// layer it is promoted to the text path so legacy uploads still gain a
// knowledge base, but that promotion is best-effort: a provider outage or an
// oversized text layer must never block the verbatim store this path
// guarantees.
func (s *Service) ingestPDFBinary(ctx context.Context, note *domain.Note, in Input) error {
	data, err := decodeFile(stripDataURI(in.FileBase64))
	if err != nil {
		return err
	}
	if text, err := s.pdfText(data); err == nil && text != "" {
		if err := s.ingestPDFText(ctx, note, text, in.Locale); err != nil {
			s.logger.Warn().Err(err).
				Str("note_id", note.ID).
				Msg("ingest: pdf text promotion failed, storing verbatim")
		}
	}
	return s.uploadOriginal(ctx, note, data, in.FileName, "application/pdf")
}

// ingestImage always costs two provider calls: one vision call to extract
// the knowledge text and one generation call to structure it.
func (s *Service) ingestImage(ctx context.Context, note *domain.Note, in Input) error {
	payload := stripDataURI(in.FileBase64)
	data, err := decodeFile(payload)
	if err != nil {
		return err
	}
	mime := strings.TrimSpace(in.FileType)
	if mime == "" {
		mime = sniffImageMIME(payload)
	}

	knowledge, err := s.extractor.ExtractFromImage(ctx, data, mime)
	if err != nil {
		return err
	}
	s.logChunks(len(knowledge))

	structured, err := s.organizer.Generate(ctx, domain.ToolTypeOrganizedNote, knowledge, toolgen.Options{Locale: in.Locale})
	if err != nil {
		return err
	}
	note.KnowledgeBase = &knowledge
	note.AIProcessedContent = &structured
	if note.RawContent == "" {
		note.RawContent = knowledge
	}
	return s.uploadOriginal(ctx, note, data, in.FileName, mime)
}

func (s *Service) uploadOriginal(ctx context.Context, note *domain.Note, data []byte, fileName, mime string) error {
	key := fmt.Sprintf("notes/%s/%s-%s", note.UserID, note.ID, safeFileName(fileName))
	url, err := s.store.Upload(ctx, data, key, mime)
	if err != nil {
		return fmt.Errorf("upload file: %v: %w", err, domain.ErrPersistence)
	}
	note.FileURL = &url
	note.FilePath = &key
	note.FileType = &mime
	return nil
}

// logChunks records the cost-accounting chunk estimate. The character
// ceiling is the only enforcement; this is telemetry.
func (s *Service) logChunks(chars int) {
	chunks := estimateChunks(chars)
	event := s.logger.Debug().Int("chars", chars).Int("chunk_estimate", chunks)
	if chunks > maxChunks {
		event = event.Bool("over_chunk_budget", true)
	}
	event.Msg("ingest: document size")
}

// estimateChunks returns max(1, ceil(chars/chunkChars)).
func estimateChunks(chars int) int {
	if chars <= 0 {
		return 1
	}
	return (chars + chunkChars - 1) / chunkChars
}

// sniffImageMIME guesses the image type from the base64 header prefix.
// This is a heuristic; unrecognized headers default to JPEG.
func sniffImageMIME(fileBase64 string) string {
	switch {
	case strings.HasPrefix(fileBase64, "/9j/"):
		return "image/jpeg"
	case strings.HasPrefix(fileBase64, "iVBOR"):
		return "image/png"
	case strings.HasPrefix(fileBase64, "R0lGOD"):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// stripDataURI tolerates data-URI prefixes from browser clients.
func stripDataURI(fileBase64 string) string {
	fileBase64 = strings.TrimSpace(fileBase64)
	if idx := strings.Index(fileBase64, ";base64,"); idx >= 0 {
		return fileBase64[idx+len(";base64,"):]
	}
	return fileBase64
}

func decodeFile(fileBase64 string) ([]byte, error) {
	if fileBase64 == "" {
		return nil, fmt.Errorf("file payload is required: %w", domain.ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(fileBase64)
	if err != nil {
		return nil, fmt.Errorf("decode file payload: %v: %w", err, domain.ErrInvalidInput)
	}
	return data, nil
}

func safeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" {
		return "upload"
	}
	return name
}

// titleFromText derives a display title from the first line of the content.
func titleFromText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Untitled note"
	}
	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if len(line) > 80 {
		cut := strings.LastIndexByte(line[:80], ' ')
		if cut <= 0 {
			cut = 80
		}
		line = line[:cut]
	}
	// Title-case only fully lowercase words so acronyms and mixed-case
	// terms like DNA or mRNA survive.
	caser := cases.Title(language.Und)
	words := strings.Fields(line)
	for i, w := range words {
		if w == strings.ToLower(w) {
			words[i] = caser.String(w)
		}
	}
	return strings.Join(words, " ")
}
