package toolgen

import (
	"fmt"
	"strings"

	"studymate/internal/providers/openrouter"
)

// Per-type generation defaults. Summaries are short and should be
// deterministic; quizzes need headroom for many questions.
var (
	organizedNoteParams = openrouter.Params{MaxTokens: 4096, Temperature: 0.3, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1}
	quizParams          = openrouter.Params{MaxTokens: 4096, Temperature: 0.4, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1}
	flashcardParams     = openrouter.Params{MaxTokens: 3072, Temperature: 0.4, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1}
	summaryParams       = openrouter.Params{MaxTokens: 1024, Temperature: 0.2, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1}
	extractionParams    = openrouter.Params{MaxTokens: 8192, Temperature: 0.1, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.05}
)

func organizedNoteInstruction(opts Options) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a study assistant that reorganizes raw study material into a well-structured note. ")
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"title":string,"sections":[{"heading":string,"content":string,"keyPoints":string[]}],"highlights":string[],"summary":string}`)
	sb.WriteString(". Preserve every fact from the source; do not invent content.")
	appendLocale(sb, opts.Locale)
	return sb.String()
}

func quizInstruction(opts Options) string {
	count := opts.questionCount()
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are a study assistant that writes multiple-choice quizzes. Create exactly %d questions from the provided material. ", count)
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"questions":[{"id":number,"question":string,"options":[string,string,string,string],"correctAnswer":number,"explanation":string}]}`)
	sb.WriteString(". Every question has exactly 4 options and correctAnswer is the zero-based index of the right option.")
	appendLocale(sb, opts.Locale)
	return sb.String()
}

func flashcardInstruction(opts Options) string {
	count := opts.cardCount()
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are a study assistant that writes flashcards. Create up to %d cards covering the provided material. ", count)
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"cards":[{"id":number,"front":string,"back":string}]}`)
	sb.WriteString(". The front is a prompt or question, the back is the answer.")
	appendLocale(sb, opts.Locale)
	return sb.String()
}

func summaryInstruction(opts Options) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a study assistant that summarizes study material. ")
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"summary":string,"keyPoints":string[],"mainTopics":string[]}`)
	sb.WriteString(". Keep the summary concise and factual.")
	appendLocale(sb, opts.Locale)
	return sb.String()
}

func extractionInstruction() string {
	return "You transcribe study material from images. Return the verbatim text content of the image, " +
		"preserving headings, lists and formulas as plain text. Return only the transcription, no commentary."
}

func appendLocale(sb *strings.Builder, locale string) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return
	}
	fmt.Fprintf(sb, " Write all natural-language text in the language for locale '%s'.", locale)
}
