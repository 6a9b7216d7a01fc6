package domain

import "time"

// Note is a unit of study material. RawContent is always present.
// KnowledgeBase holds verbatim text extracted from an uploaded file and
// AIProcessedContent holds a separately organized version; both are optional.
type Note struct {
	ID                 string
	SubjectID          *string
	UserID             string
	Title              string
	RawContent         string
	KnowledgeBase      *string
	AIProcessedContent *string
	FileURL            *string
	FilePath           *string
	FileType           *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StudySource returns the text generation should read from. Extracted
// knowledge is the higher-fidelity source and wins over raw content.
func (n Note) StudySource() string {
	if n.KnowledgeBase != nil && *n.KnowledgeBase != "" {
		return *n.KnowledgeBase
	}
	return n.RawContent
}
