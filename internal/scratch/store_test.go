package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndCleanup(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := store.Save("report.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("unexpected content: %q", data)
	}
	if filepath.Base(path) != "report.pdf" {
		t.Fatalf("declared name not preserved: %s", path)
	}

	store.Cleanup(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still present after cleanup: %v", err)
	}
	entries, err := os.ReadDir(store.BaseDir())
	if err != nil {
		t.Fatalf("read base dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("attempt directory left behind: %v", entries)
	}
}

func TestSaveSameNameTwice(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	first, err := store.Save("doc.txt", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := store.Save("doc.txt", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first == second {
		t.Fatalf("same-name saves collided: %s", first)
	}
	if data, _ := os.ReadFile(first); string(data) != "one" {
		t.Fatalf("first save clobbered: %q", data)
	}
	if data, _ := os.ReadFile(second); string(data) != "two" {
		t.Fatalf("unexpected second content: %q", data)
	}
}

func TestSaveStripsPathComponents(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, err := store.Save("../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "passwd" {
		t.Fatalf("unexpected stored name: %s", path)
	}
	if !strings.HasPrefix(path, store.BaseDir()) {
		t.Fatalf("file escaped the scratch root: %s", path)
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Save("   ", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path, err := store.Save("doc.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Cleanup(path)
	store.Cleanup(path)
	store.Cleanup("")
	store.Cleanup(filepath.Join(store.BaseDir(), "never-existed", "doc.txt"))
}
