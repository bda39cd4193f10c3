package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

func TestNew_RequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "users.csv")
	if err := os.WriteFile(file, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(Config{Dir: file}, zerolog.Nop()); err == nil {
		t.Error("New() on a file error = nil")
	}
	if _, err := New(Config{Dir: filepath.Join(dir, "missing")}, zerolog.Nop()); err == nil {
		t.Error("New() on a missing directory error = nil")
	}

	fw, err := New(Config{Dir: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer fw.watcher.Close()
	if fw.config.Debounce != 500*time.Millisecond {
		t.Errorf("default debounce = %v", fw.config.Debounce)
	}
}

func TestShouldProcessEvent(t *testing.T) {
	fw := &FileWatcher{config: Config{Extensions: []string{".csv", ".XLSX"}}}

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/in/users.csv", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/in/users.xlsx", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/in/users.CSV", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/in/users.csv", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "/in/users.csv", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/in/users.txt", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/in/.users.csv", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/in/~$users.xlsx", Op: fsnotify.Create}, false},
	}

	for _, tt := range tests {
		if got := fw.shouldProcessEvent(tt.event); got != tt.want {
			t.Errorf("shouldProcessEvent(%v) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestDebouncer_CoalescesPerKey(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var a, b atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger("a", func() { a.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	d.Trigger("b", func() { b.Add(1) })

	if d.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", d.Pending())
	}

	time.Sleep(150 * time.Millisecond)

	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("callbacks ran a=%d b=%d, want 1 each", a.Load(), b.Load())
	}
	if d.Pending() != 0 {
		t.Errorf("Pending() = %d after settling", d.Pending())
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger("a", func() { calls.Add(1) })
	d.Stop()
	d.Trigger("b", func() { calls.Add(1) })

	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("callbacks ran %d times after Stop", calls.Load())
	}
}

func TestFileWatcher_Watch(t *testing.T) {
	dir := t.TempDir()
	fw, err := New(Config{Dir: dir, Debounce: 50 * time.Millisecond, Extensions: []string{".csv"}}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string
	done := make(chan error, 1)
	go func() {
		done <- fw.Watch(ctx, func(path string) {
			mu.Lock()
			seen = append(seen, filepath.Base(path))
			mu.Unlock()
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "users.csv")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("First Name\nVasyl\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "users.csv" {
		t.Errorf("reported files = %v, want [users.csv]", seen)
	}

	if err := fw.Watch(context.Background(), func(string) {}); err == nil {
		t.Error("second Watch() error = nil")
	}
}
