package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestNewRejectsMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.md"))
	if !errors.Is(err, ErrPathNotExist) {
		t.Errorf("expected ErrPathNotExist, got %v", err)
	}
}

func TestDetectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.md")
	writeFile(t, path, "before")

	w, err := New(path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	// Give the watcher a moment to register before modifying.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, "after")

	select {
	case ev := <-w.Events():
		if ev.Path != w.Path() {
			t.Errorf("expected event for %s, got %s", w.Path(), ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change event")
	}
}

func TestIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	writeFile(t, path, "watched")

	w, err := New(path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "other.md"), "unwatched")

	select {
	case ev := <-w.Events():
		t.Errorf("expected no event for sibling file, got %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.md")
	writeFile(t, path, "x")

	w, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if _, ok := <-w.Events(); ok {
		t.Error("expected events channel closed")
	}
}
