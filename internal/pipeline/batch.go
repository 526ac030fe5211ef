package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// Batch runs the per-file processor across an ordered collection of
// files. Files are processed strictly sequentially, in input order, and
// every file appears in the result regardless of outcome.
type Batch struct {
	proc   *Processor
	logger *slog.Logger
}

func NewBatch(proc *Processor, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{proc: proc, logger: logger}
}

// ProcessFiles processes each path in order and aggregates the results.
// Batch success is partial: true when at least one file succeeded.
func (b *Batch) ProcessFiles(ctx context.Context, paths []string, saveOutput bool) BatchResult {
	start := time.Now()
	res := BatchResult{Success: true, TotalFiles: len(paths)}
	b.logger.Info("batch.start", "total_files", len(paths))

	var combined strings.Builder
	for i, path := range paths {
		b.logger.Info("batch.file", "index", i+1, "total", len(paths), "file", filepath.Base(path))

		fr := b.proc.ProcessFile(ctx, path, saveOutput)
		res.Results = append(res.Results, fr)

		if fr.Success {
			res.SuccessfulFiles++
			if fr.ExtractedText != "" {
				fmt.Fprintf(&combined, "\n\n=== FILE %d: %s ===\n\n", i+1, fr.Filename)
				combined.WriteString(fr.ExtractedText)
			}
		} else {
			res.FailedFiles++
		}
	}

	end := time.Now()
	res.CombinedText = combined.String()
	res.Summary = BatchSummary{Start: start, End: end, Duration: end.Sub(start)}
	if res.FailedFiles > 0 {
		res.Success = res.SuccessfulFiles > 0
	}

	b.logger.Info("batch.done",
		"total_files", res.TotalFiles,
		"successful", res.SuccessfulFiles,
		"failed", res.FailedFiles,
		"duration", res.Summary.Duration.String(),
	)
	return res
}
