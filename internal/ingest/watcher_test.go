package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, slog.Default())
	assert.Error(t, err)
}

func TestStartWatcherInitialScan(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "present.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))
	ignored := filepath.Join(root, "present.exe")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, slog.Default())
	require.NoError(t, err)

	select {
	case path := <-events:
		assert.Equal(t, existing, path)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit the existing file")
	}
}

func TestStartWatcherEmitsNewFiles(t *testing.T) {
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}}, slog.Default())
	require.NoError(t, err)

	created := filepath.Join(root, "dropped.pdf")
	require.NoError(t, os.WriteFile(created, []byte("x"), 0o644))

	select {
	case path := <-events:
		assert.Equal(t, created, path)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not emit the new file")
	}
}

func TestStartWatcherClosesOnCancel(t *testing.T) {
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	events, errs, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}}, slog.Default())
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open, "events channel must close on cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close")
	}
	select {
	case _, open := <-errs:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("errors channel did not close")
	}
}
