package config

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestWatcherCurrentReflectsInitialLoad(t *testing.T) {
	path := writeTempConfig(t, sampleConfigYAML)

	w, err := NewWatcher(path, slog.Default())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if w.Current().Port != 9090 {
		t.Errorf("Current().Port = %d, want 9090", w.Current().Port)
	}
}

func TestWatcherRejectsInvalidInitialConfig(t *testing.T) {
	path := writeTempConfig(t, "host: [not valid")

	if _, err := NewWatcher(path, slog.Default()); err == nil {
		t.Fatal("expected NewWatcher to fail on an invalid initial file")
	}
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	path := writeTempConfig(t, sampleConfigYAML)

	w, err := NewWatcher(path, slog.Default())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the fsnotify goroutine a moment to register its watch before the
	// write, matching the debounce-driven design in watcher.go.
	time.Sleep(50 * time.Millisecond)

	updated := `
host: "0.0.0.0"
port: 4242
providers:
  - name: anthropic-direct
    protocol: anthropic
    base_url: "https://api.anthropic.com"
    auth: { kind: api-key, value: "sk-test" }
model_routes:
  - pattern: "claude-*"
    candidates:
      - { provider: anthropic-direct, model: claude-opus-4, priority: 0 }
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if w.Current().Port == 4242 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for watcher to pick up the change")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
