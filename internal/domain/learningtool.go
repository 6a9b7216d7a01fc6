package domain

import "time"

// ToolType enumerates the artifact kinds the generator can produce.
type ToolType string

const (
	ToolTypeOrganizedNote ToolType = "organized_note"
	ToolTypeQuiz          ToolType = "quiz"
	ToolTypeFlashcards    ToolType = "flashcards"
	ToolTypeSummary       ToolType = "summary"
)

// ToolTypes lists every supported artifact kind.
var ToolTypes = []ToolType{ToolTypeOrganizedNote, ToolTypeQuiz, ToolTypeFlashcards, ToolTypeSummary}

// Valid reports whether t is a known artifact kind.
func (t ToolType) Valid() bool {
	switch t {
	case ToolTypeOrganizedNote, ToolTypeQuiz, ToolTypeFlashcards, ToolTypeSummary:
		return true
	}
	return false
}

// ToolSource enumerates where the generation content comes from.
type ToolSource string

const (
	ToolSourceNote    ToolSource = "note"
	ToolSourceSubject ToolSource = "subject"
)

// Valid reports whether s is a known source mode.
func (s ToolSource) Valid() bool {
	return s == ToolSourceNote || s == ToolSourceSubject
}

// LearningTool is an immutable generated artifact. Exactly one of SubjectID
// and NoteID is meaningfully set depending on Source; ownership is resolved
// transitively through whichever is set.
type LearningTool struct {
	ID               string
	UserID           string
	Type             ToolType
	Source           ToolSource
	SubjectID        *string
	NoteID           *string
	GeneratedContent string
	NoteIDs          []string // contributing notes, populated for subject-wide tools
	CreatedAt        time.Time
}
