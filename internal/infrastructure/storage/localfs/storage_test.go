package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "doc-1.pdf", strings.NewReader("%PDF-1.4 data")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := storage.Open(context.Background(), "doc-1.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	if string(data) != "%PDF-1.4 data" {
		t.Fatalf("unexpected blob content: %q", data)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, key := range []string{"", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		if err := storage.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Errorf("Save(%q) expected error", key)
		}
		if _, err := storage.Open(context.Background(), key); err == nil {
			t.Errorf("Open(%q) expected error", key)
		}
	}
}
