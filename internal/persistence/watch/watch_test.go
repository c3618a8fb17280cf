package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsSaveFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a/world.topdownworld":     true,
		"world.topdownworld.zst":   true,
		"export.json":              true,
		"notes.txt":                false,
		"world.topdownworld.tmp-1": false,
	} {
		if got := IsSaveFile(path); got != want {
			t.Fatalf("IsSaveFile(%q)=%v want %v", path, got, want)
		}
	}
}

func TestWatcher_ReportsSaveWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "w.topdownworld")
	if err := os.WriteFile(target, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events:
		if got != target {
			t.Fatalf("event for %q want %q", got, target)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no event for %s", target)
	}
}

func TestWatcher_CloseClosesChannels(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Fatalf("Events still open")
	}
	_ = w.Close()
}
