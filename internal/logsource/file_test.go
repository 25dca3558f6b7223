package logsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileSourceReadsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.log")
	content := "first line\nsecond line\n\nfourth line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewFileSource(context.Background(), path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()

	want := []string{"first line", "second line", "", "fourth line"}
	var got []string
	for env := range src.Lines() {
		if env.Source != "file" {
			t.Errorf("source = %q, want file", env.Source)
		}
		got = append(got, env.Line)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := NewFileSource(context.Background(), "/nonexistent/input.log"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileSourceStopClosesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.log")
	if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewFileSource(context.Background(), path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	src.Stop()

	select {
	case _, ok := <-src.Lines():
		// A line may already be buffered; draining until close is fine.
		for ok {
			_, ok = <-src.Lines()
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lines channel to close")
	}
}
