package toolgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"studymate/internal/domain"
	"studymate/internal/infra"
	"studymate/internal/providers/openrouter"
)

const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 25
	DefaultCardCount     = 15
	MaxCardCount         = 40
)

// Options tunes a single generation.
type Options struct {
	Locale        string
	QuestionCount int
	CardCount     int
}

func (o Options) questionCount() int {
	if o.QuestionCount <= 0 {
		return DefaultQuestionCount
	}
	if o.QuestionCount > MaxQuestionCount {
		return MaxQuestionCount
	}
	return o.QuestionCount
}

func (o Options) cardCount() int {
	if o.CardCount <= 0 {
		return DefaultCardCount
	}
	if o.CardCount > MaxCardCount {
		return MaxCardCount
	}
	return o.CardCount
}

// Generator turns source text into serialized learning-tool artifacts using
// the completion client. It owns the closed dispatch over artifact types.
type Generator struct {
	client *openrouter.Client
	logger *infra.Logger
}

// NewGenerator constructs a Generator with injected dependencies.
func NewGenerator(client *openrouter.Client, logger *infra.Logger) *Generator {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Generator{client: client, logger: logger}
}

// Generate produces the serialized artifact for the given type. The returned
// string is the normalized JSON payload, re-marshalled after validation so
// stored artifacts always parse.
func (g *Generator) Generate(ctx context.Context, toolType domain.ToolType, content string, opts Options) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("nothing to generate from: %w", domain.ErrInvalidInput)
	}

	switch toolType {
	case domain.ToolTypeOrganizedNote:
		return generateInto[*OrganizedNote](ctx, g, organizedNoteInstruction(opts), organizedNoteParams, content,
			func(v *OrganizedNote) error { return v.normalize() })
	case domain.ToolTypeQuiz:
		return generateInto[*Quiz](ctx, g, quizInstruction(opts), quizParams, content,
			func(v *Quiz) error { return v.normalize(opts.questionCount()) })
	case domain.ToolTypeFlashcards:
		return generateInto[*FlashcardSet](ctx, g, flashcardInstruction(opts), flashcardParams, content,
			func(v *FlashcardSet) error { return v.normalize(opts.cardCount()) })
	case domain.ToolTypeSummary:
		return generateInto[*Summary](ctx, g, summaryInstruction(opts), summaryParams, content,
			func(v *Summary) error { return v.normalize() })
	default:
		return "", fmt.Errorf("unsupported learning tool type %q: %w", toolType, domain.ErrInvalidInput)
	}
}

// ExtractFromImage runs one vision call and returns the verbatim text found
// in the image. Used by file ingestion, not by the learning-tool pipeline.
func (g *Generator) ExtractFromImage(ctx context.Context, data []byte, mime string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image payload: %w", domain.ErrInvalidInput)
	}
	out, err := g.client.Complete(ctx, openrouter.CompletionRequest{
		System: extractionInstruction(),
		User:   "Transcribe the study material in this image.",
		Images: []openrouter.ImagePayload{{Data: data, MIME: mime}},
		Params: extractionParams,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(trimCodeFence(out))
	if text == "" {
		return "", fmt.Errorf("vision extraction returned no text: %w", domain.ErrMalformedResponse)
	}
	return text, nil
}

func generateInto[T comparable](ctx context.Context, g *Generator, instruction string, params openrouter.Params, content string, normalize func(T) error) (string, error) {
	raw, err := g.client.Complete(ctx, openrouter.CompletionRequest{
		System: instruction,
		User:   content,
		Params: params,
	})
	if err != nil {
		return "", err
	}
	decoded, err := decodePayload[T](raw)
	if err != nil {
		return "", fmt.Errorf("parse artifact: %v: %w", err, domain.ErrMalformedResponse)
	}
	var zero T
	if decoded == zero {
		return "", fmt.Errorf("parse artifact: empty payload: %w", domain.ErrMalformedResponse)
	}
	if err := normalize(decoded); err != nil {
		return "", err
	}
	out, err := json.Marshal(decoded)
	if err != nil {
		return "", fmt.Errorf("serialize artifact: %w", err)
	}
	g.logger.Debug().
		Int("content_chars", len(content)).
		Int("artifact_bytes", len(out)).
		Msg("toolgen: artifact generated")
	return string(out), nil
}
