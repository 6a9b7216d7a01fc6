package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"studymate/internal/domain"
	"studymate/internal/toolgen"
)

type fakeNoteRepo struct {
	created   []domain.Note
	createErr error
}

func (f *fakeNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *note)
	return nil
}

func (f *fakeNoteRepo) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeNoteRepo) ListBySubject(ctx context.Context, subjectID string) ([]domain.Note, error) {
	return nil, nil
}

func (f *fakeNoteRepo) ListByIDsAndSubject(ctx context.Context, noteIDs []string, subjectID string) ([]domain.Note, error) {
	return nil, nil
}

type fakeStore struct {
	uploads   []string
	deletes   []string
	uploadErr error
}

func (f *fakeStore) Upload(ctx context.Context, data []byte, key, mime string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return "http://localhost/static/" + key, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

type fakeExtractor struct {
	calls    int
	lastMIME string
	out      string
	err      error
}

func (f *fakeExtractor) ExtractFromImage(ctx context.Context, data []byte, mime string) (string, error) {
	f.calls++
	f.lastMIME = mime
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakeOrganizer struct {
	calls int
	out   string
	err   error
}

func (f *fakeOrganizer) Generate(ctx context.Context, toolType domain.ToolType, content string, opts toolgen.Options) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type ingestFixture struct {
	notes     *fakeNoteRepo
	store     *fakeStore
	extractor *fakeExtractor
	organizer *fakeOrganizer
	svc       *Service
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		notes:     &fakeNoteRepo{},
		store:     &fakeStore{},
		extractor: &fakeExtractor{out: "extracted knowledge"},
		organizer: &fakeOrganizer{out: `{"title":"T","sections":[],"highlights":[],"summary":"s"}`},
	}
	f.svc = NewService(f.notes, f.store, f.extractor, f.organizer, 0, nil)
	return f
}

func TestIngestPDFTextAtTheCeiling(t *testing.T) {
	f := newIngestFixture()
	text := strings.Repeat("a", MaxPDFTextChars)

	note, err := f.svc.Ingest(context.Background(), Input{
		UserID:   "u1",
		Kind:     KindPDFText,
		FileText: text,
	})
	if err != nil {
		t.Fatalf("exactly %d characters must be accepted: %v", MaxPDFTextChars, err)
	}
	if note.KnowledgeBase == nil || len(*note.KnowledgeBase) != MaxPDFTextChars {
		t.Fatalf("knowledge base not stored verbatim")
	}
	if note.AIProcessedContent == nil {
		t.Fatalf("structured note missing")
	}
	if f.organizer.calls != 1 {
		t.Fatalf("organizer calls = %d, want 1", f.organizer.calls)
	}
	if f.extractor.calls != 0 {
		t.Fatalf("pdf text needs no vision call, got %d", f.extractor.calls)
	}
}

func TestIngestPDFTextOverTheCeiling(t *testing.T) {
	f := newIngestFixture()
	text := strings.Repeat("a", MaxPDFTextChars+1)

	_, err := f.svc.Ingest(context.Background(), Input{
		UserID:   "u1",
		Kind:     KindPDFText,
		FileText: text,
	})
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want payload-too-large", err)
	}
	if !strings.Contains(err.Error(), "500001") || !strings.Contains(err.Error(), "500000") {
		t.Fatalf("message should carry measured and max size: %v", err)
	}
	if f.organizer.calls != 0 {
		t.Fatalf("no provider call for oversized payloads, got %d", f.organizer.calls)
	}
	if len(f.notes.created) != 0 {
		t.Fatalf("nothing must be persisted")
	}
}

func TestIngestImageCostsTwoProviderCalls(t *testing.T) {
	f := newIngestFixture()
	payload := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})

	note, err := f.svc.Ingest(context.Background(), Input{
		UserID:     "u1",
		Kind:       KindImage,
		FileBase64: payload,
		FileName:   "board.png",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if f.extractor.calls != 1 || f.organizer.calls != 1 {
		t.Fatalf("calls = %d vision, %d generation; want 1 and 1", f.extractor.calls, f.organizer.calls)
	}
	if note.KnowledgeBase == nil || *note.KnowledgeBase != "extracted knowledge" {
		t.Fatalf("knowledge base = %v", note.KnowledgeBase)
	}
	if note.FileURL == nil || note.FilePath == nil {
		t.Fatalf("original file should be uploaded")
	}
	if len(f.store.uploads) != 1 {
		t.Fatalf("uploads = %v", f.store.uploads)
	}
}

func TestIngestImageProviderFailurePersistsNothing(t *testing.T) {
	f := newIngestFixture()
	f.extractor.err = fmt.Errorf("status 503: %w", domain.ErrProvider)
	payload := base64.StdEncoding.EncodeToString([]byte{0x01})

	_, err := f.svc.Ingest(context.Background(), Input{
		UserID:     "u1",
		Kind:       KindImage,
		FileBase64: payload,
	})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
	if len(f.notes.created) != 0 {
		t.Fatalf("no note may be created on provider failure")
	}
	if len(f.store.uploads) != 0 {
		t.Fatalf("no blob may be uploaded on provider failure")
	}
}

func TestIngestDeletesBlobWhenPersistenceFails(t *testing.T) {
	f := newIngestFixture()
	f.notes.createErr = errors.New("db down")
	payload := base64.StdEncoding.EncodeToString([]byte{0x01})

	_, err := f.svc.Ingest(context.Background(), Input{
		UserID:     "u1",
		Kind:       KindImage,
		FileBase64: payload,
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if len(f.store.deletes) != 1 {
		t.Fatalf("uploaded blob should be deleted on rollback, deletes = %v", f.store.deletes)
	}
}

func TestIngestExplicitFileTypeWinsOverSniffing(t *testing.T) {
	f := newIngestFixture()
	payload := base64.StdEncoding.EncodeToString([]byte{0x01})

	if _, err := f.svc.Ingest(context.Background(), Input{
		UserID:     "u1",
		Kind:       KindImage,
		FileBase64: payload,
		FileType:   "image/webp",
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if f.extractor.lastMIME != "image/webp" {
		t.Fatalf("mime = %q, want the explicit type", f.extractor.lastMIME)
	}
}

func TestIngestPDFBinaryWithoutTextLayerStoresVerbatim(t *testing.T) {
	f := newIngestFixture()
	payload := base64.StdEncoding.EncodeToString([]byte("not a real pdf"))

	note, err := f.svc.Ingest(context.Background(), Input{
		UserID:     "u1",
		Kind:       KindPDFBinary,
		FileBase64: payload,
		FileName:   "legacy.pdf",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if f.extractor.calls != 0 || f.organizer.calls != 0 {
		t.Fatalf("legacy path must not call the provider")
	}
	if note.KnowledgeBase != nil {
		t.Fatalf("no knowledge base expected for unextractable binaries")
	}
	if note.FileURL == nil {
		t.Fatalf("binary should still be stored")
	}
}

func TestIngestPDFBinaryProviderFailureStillStoresVerbatim(t *testing.T) {
	f := newIngestFixture()
	f.organizer.err = fmt.Errorf("upstream 503: %w", domain.ErrProvider)
	f.svc.pdfText = func(data []byte) (string, error) { return "extractable layer", nil }
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 legacy"))

	note, err := f.svc.Ingest(context.Background(), Input{
		UserID:     "u1",
		Kind:       KindPDFBinary,
		FileBase64: payload,
		FileName:   "legacy.pdf",
	})
	if err != nil {
		t.Fatalf("legacy upload must survive a provider outage: %v", err)
	}
	if f.organizer.calls != 1 {
		t.Fatalf("organizer calls = %d, want 1 attempted promotion", f.organizer.calls)
	}
	if note.KnowledgeBase != nil || note.AIProcessedContent != nil {
		t.Fatalf("failed promotion must leave no partial knowledge base")
	}
	if note.FileURL == nil {
		t.Fatalf("binary should still be stored")
	}
	if len(f.notes.created) != 1 {
		t.Fatalf("created %d notes, want 1", len(f.notes.created))
	}
}

func TestIngestPDFBinaryOversizedTextLayerStoresVerbatim(t *testing.T) {
	f := newIngestFixture()
	f.svc.pdfText = func(data []byte) (string, error) {
		return strings.Repeat("a", MaxPDFTextChars+1), nil
	}
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 legacy"))

	note, err := f.svc.Ingest(context.Background(), Input{
		UserID:     "u1",
		Kind:       KindPDFBinary,
		FileBase64: payload,
		FileName:   "legacy.pdf",
	})
	if err != nil {
		t.Fatalf("oversized text layer must not block the verbatim store: %v", err)
	}
	if f.organizer.calls != 0 {
		t.Fatalf("organizer calls = %d, want 0 for an oversized layer", f.organizer.calls)
	}
	if note.KnowledgeBase != nil {
		t.Fatalf("no knowledge base expected when the layer exceeds the ceiling")
	}
	if note.FileURL == nil {
		t.Fatalf("binary should still be stored")
	}
}

func TestIngestPlainNoteRequiresContent(t *testing.T) {
	f := newIngestFixture()

	if _, err := f.svc.Ingest(context.Background(), Input{UserID: "u1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSniffImageMIME(t *testing.T) {
	cases := map[string]string{
		"/9j/4AAQSkZJRg": "image/jpeg",
		"iVBORw0KGgo":    "image/png",
		"R0lGODdh":       "image/gif",
		"QUJDRA":         "image/jpeg", // unknown header defaults to jpeg
	}
	for prefix, want := range cases {
		if got := sniffImageMIME(prefix); got != want {
			t.Fatalf("sniff(%q) = %q, want %q", prefix, got, want)
		}
	}
}

func TestEstimateChunks(t *testing.T) {
	cases := []struct{ chars, want int }{
		{0, 1},
		{1, 1},
		{chunkChars, 1},
		{chunkChars + 1, 2},
		{MaxPDFTextChars, 5},
	}
	for _, c := range cases {
		if got := estimateChunks(c.chars); got != c.want {
			t.Fatalf("estimateChunks(%d) = %d, want %d", c.chars, got, c.want)
		}
	}
}

func TestTitleFromText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"photosynthesis basics\nmore text", "Photosynthesis Basics"},
		{"DNA basics", "DNA Basics"},
		{"mRNA translation overview", "mRNA Translation Overview"},
		{"", "Untitled note"},
	}
	for _, c := range cases {
		if got := titleFromText(c.in); got != c.want {
			t.Fatalf("titleFromText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
