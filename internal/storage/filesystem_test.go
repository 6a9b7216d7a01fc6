package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestUploadAndDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := store.Upload(context.Background(), []byte("hello"), "notes/u1/file.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "http://localhost:8080/static/notes/u1/file.pdf" {
		t.Fatalf("url = %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes", "u1", "file.pdf")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	if err := store.Delete(context.Background(), "notes/u1/file.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes", "u1", "file.pdf")); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err = %v", err)
	}
	// deleting again is a no-op
	if err := store.Delete(context.Background(), "notes/u1/file.pdf"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestUploadRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost/static")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Upload(context.Background(), []byte("x"), "../escape.txt", "text/plain"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
