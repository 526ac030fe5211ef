package async

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/internal/divider"
	"github.com/docpipe/docpipe/internal/extract"
	"github.com/docpipe/docpipe/internal/pipeline"
)

type passthroughNormalizer struct{}

func (passthroughNormalizer) Normalize(_ context.Context, path string) string { return path }

type identityPlanner struct{}

func (identityPlanner) PlanDivision(path string) (divider.Plan, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return divider.Plan{}, err
	}
	return divider.Plan{
		Source:   path,
		Chunks:   []divider.Chunk{{Path: path, Index: 1, StartPage: -1, EndPage: -1, ByteEnd: fi.Size()}},
		Identity: true,
		Bytes:    fi.Size(),
	}, nil
}

type countingExtractor struct {
	mu    sync.Mutex
	paths []string
}

func (c *countingExtractor) Extract(_ context.Context, path, _ string) extract.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
	return extract.Outcome{Success: true, Text: "text", Method: extract.MethodDirectRead}
}

func (c *countingExtractor) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func TestQueueProcessesJobsAndDrains(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		files = append(files, p)
	}

	ex := &countingExtractor{}
	proc := pipeline.NewProcessor(passthroughNormalizer{}, identityPlanner{}, ex, nil, dir, slog.Default())
	q := NewProcessorQueue(proc, slog.Default(), WithWorkers(2), WithQueueSize(8))

	for _, f := range files {
		require.NoError(t, q.Enqueue(context.Background(), Job{Path: f}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.ElementsMatch(t, files, ex.seen())
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	dir := t.TempDir()
	proc := pipeline.NewProcessor(passthroughNormalizer{}, identityPlanner{}, &countingExtractor{}, nil, dir, slog.Default())
	q := NewProcessorQueue(proc, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	// Enqueue after shutdown is a logged no-op, not a panic.
	assert.NoError(t, q.Enqueue(context.Background(), Job{Path: filepath.Join(dir, "late.pdf")}))

	// Shutdown twice is harmless.
	q.Shutdown(ctx)
}
