package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/internal/extract"
)

func TestBatchPartialSuccess(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.pdf")
	b := writeSource(t, dir, "b.pdf")
	missing := filepath.Join(dir, "missing.pdf")

	ex := &mapExtractor{byBase: map[string]extract.Outcome{
		"a.pdf": {Success: true, Text: "text a"},
		"b.pdf": {Success: true, Text: "text b"},
	}}
	proc := NewProcessor(identityNormalizer{}, &stubPlanner{chunks: 1}, ex, nil, dir, slog.Default())
	batch := NewBatch(proc, slog.Default())

	res := batch.ProcessFiles(context.Background(), []string{a, missing, b}, false)

	assert.True(t, res.Success, "a batch with any successful file is a success")
	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 2, res.SuccessfulFiles)
	assert.Equal(t, 1, res.FailedFiles)
	require.Len(t, res.Results, 3)

	// Strict input order regardless of outcome.
	assert.Equal(t, "a.pdf", res.Results[0].Filename)
	assert.Equal(t, "missing.pdf", res.Results[1].Filename)
	assert.Equal(t, "b.pdf", res.Results[2].Filename)

	// Combined text carries a banner per successful file, numbered by
	// input position.
	assert.Contains(t, res.CombinedText, fmt.Sprintf("\n\n=== FILE 1: %s ===\n\n", "a.pdf"))
	assert.Contains(t, res.CombinedText, fmt.Sprintf("\n\n=== FILE 3: %s ===\n\n", "b.pdf"))
	assert.NotContains(t, res.CombinedText, "missing.pdf")

	assert.False(t, res.Summary.End.Before(res.Summary.Start))
}

func TestBatchAllFailed(t *testing.T) {
	dir := t.TempDir()
	proc := NewProcessor(identityNormalizer{}, &stubPlanner{chunks: 1}, &mapExtractor{}, nil, dir, slog.Default())
	batch := NewBatch(proc, slog.Default())

	res := batch.ProcessFiles(context.Background(), []string{
		filepath.Join(dir, "nope1.pdf"),
		filepath.Join(dir, "nope2.pdf"),
	}, false)

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.FailedFiles)
	assert.Equal(t, 0, res.SuccessfulFiles)
}

func TestBatchEmptyInput(t *testing.T) {
	dir := t.TempDir()
	proc := NewProcessor(identityNormalizer{}, &stubPlanner{chunks: 1}, &mapExtractor{}, nil, dir, slog.Default())
	batch := NewBatch(proc, slog.Default())

	res := batch.ProcessFiles(context.Background(), nil, false)

	assert.True(t, res.Success)
	assert.Equal(t, 0, res.TotalFiles)
	assert.Empty(t, res.CombinedText)
}
