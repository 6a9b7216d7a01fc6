package toolgen

import (
	"fmt"

	"studymate/internal/domain"
)

// OrganizedNote is the artifact contract for organized-note generation.
type OrganizedNote struct {
	Title      string    `json:"title"`
	Sections   []Section `json:"sections"`
	Highlights []string  `json:"highlights"`
	Summary    string    `json:"summary"`
}

// Section is one heading-scoped block of an organized note.
type Section struct {
	Heading   string   `json:"heading"`
	Content   string   `json:"content"`
	KeyPoints []string `json:"keyPoints"`
}

// Quiz is the artifact contract for quiz generation.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// FlashcardSet is the artifact contract for flashcard generation.
type FlashcardSet struct {
	Cards []Flashcard `json:"cards"`
}

// Flashcard is one front/back card.
type Flashcard struct {
	ID    int    `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Summary is the artifact contract for summary generation.
type Summary struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"keyPoints"`
	MainTopics []string `json:"mainTopics"`
}

// normalize enforces the quiz contract on a parsed payload. The model may
// return fewer questions than requested, never more, and every answer index
// must point at an existing option.
func (q *Quiz) normalize(maxQuestions int) error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz has no questions: %w", domain.ErrMalformedResponse)
	}
	if maxQuestions > 0 && len(q.Questions) > maxQuestions {
		q.Questions = q.Questions[:maxQuestions]
	}
	for i := range q.Questions {
		question := &q.Questions[i]
		if question.Question == "" {
			return fmt.Errorf("quiz question %d is empty: %w", i+1, domain.ErrMalformedResponse)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("quiz question %d has %d options: %w", i+1, len(question.Options), domain.ErrMalformedResponse)
		}
		if question.CorrectAnswer < 0 || question.CorrectAnswer >= len(question.Options) {
			return fmt.Errorf("quiz question %d answer index %d out of range: %w", i+1, question.CorrectAnswer, domain.ErrMalformedResponse)
		}
		if question.ID == 0 {
			question.ID = i + 1
		}
	}
	return nil
}

// normalize enforces the flashcard contract on a parsed payload.
func (f *FlashcardSet) normalize(maxCards int) error {
	cards := f.Cards[:0]
	for _, card := range f.Cards {
		if card.Front == "" || card.Back == "" {
			continue
		}
		cards = append(cards, card)
	}
	f.Cards = cards
	if len(f.Cards) == 0 {
		return fmt.Errorf("flashcard set has no usable cards: %w", domain.ErrMalformedResponse)
	}
	if maxCards > 0 && len(f.Cards) > maxCards {
		f.Cards = f.Cards[:maxCards]
	}
	for i := range f.Cards {
		if f.Cards[i].ID == 0 {
			f.Cards[i].ID = i + 1
		}
	}
	return nil
}

// normalize enforces the organized-note contract on a parsed payload.
func (n *OrganizedNote) normalize() error {
	if n.Title == "" && len(n.Sections) == 0 {
		return fmt.Errorf("organized note has neither title nor sections: %w", domain.ErrMalformedResponse)
	}
	return nil
}

// normalize enforces the summary contract on a parsed payload.
func (s *Summary) normalize() error {
	if s.Summary == "" {
		return fmt.Errorf("summary text is empty: %w", domain.ErrMalformedResponse)
	}
	return nil
}
