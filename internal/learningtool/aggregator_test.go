package learningtool

import (
	"context"
	"errors"
	"testing"

	"studymate/internal/domain"
)

func TestResolveSubjectConcatenatesInFetchOrder(t *testing.T) {
	f := newFixture()
	f.addSubject("s1", "u1")
	f.addNote("n1", "s1", "u1", "first", nil)
	f.addNote("n2", "s1", "u1", "raw", strptr("second from knowledge"))

	agg := NewAggregator(f.notes, f.subjects)
	res, err := agg.Resolve(context.Background(), AggregateInput{
		UserID:    "u1",
		Source:    domain.ToolSourceSubject,
		SubjectID: strptr("s1"),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Content != "first\n\n---\n\nsecond from knowledge" {
		t.Fatalf("content = %q", res.Content)
	}
	if len(res.NoteIDs) != 2 {
		t.Fatalf("note ids = %v", res.NoteIDs)
	}
}

func TestResolveSubjectDeduplicatesSelection(t *testing.T) {
	f := newFixture()
	f.addSubject("s1", "u1")
	f.addNote("n1", "s1", "u1", "alpha", nil)

	agg := NewAggregator(f.notes, f.subjects)
	res, err := agg.Resolve(context.Background(), AggregateInput{
		UserID:    "u1",
		Source:    domain.ToolSourceSubject,
		SubjectID: strptr("s1"),
		NoteIDs:   []string{"n1", "n1", ""},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.NoteIDs) != 1 || res.NoteIDs[0] != "n1" {
		t.Fatalf("note ids = %v, want [n1]", res.NoteIDs)
	}
}

func TestResolveSubjectForbidsForeignSubject(t *testing.T) {
	f := newFixture()
	f.addSubject("s1", "someone-else")
	f.addNote("n1", "s1", "someone-else", "alpha", nil)

	agg := NewAggregator(f.notes, f.subjects)
	_, err := agg.Resolve(context.Background(), AggregateInput{
		UserID:    "u1",
		Source:    domain.ToolSourceSubject,
		SubjectID: strptr("s1"),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestResolveNoteNotFound(t *testing.T) {
	f := newFixture()
	agg := NewAggregator(f.notes, f.subjects)

	_, err := agg.Resolve(context.Background(), AggregateInput{
		UserID: "u1",
		Source: domain.ToolSourceNote,
		NoteID: strptr("missing"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
