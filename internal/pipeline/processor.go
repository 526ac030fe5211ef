package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/docpipe/docpipe/constants"
	"github.com/docpipe/docpipe/internal/divider"
	"github.com/docpipe/docpipe/internal/extract"
	"github.com/docpipe/docpipe/internal/repository"
)

// chunkSeparator marks extraction boundaries in merged text so chunk
// provenance can be reconstructed later.
const chunkSeparator = "\n\n--- CHUNK SEPARATOR ---\n\n"

// chunkFailurePlaceholder stands in for a chunk whose extraction failed.
const chunkFailurePlaceholder = "No text could be extracted from this chunk."

// Normalizer converts an input into a paged (PDF) form, degrading to
// the original path on failure.
type Normalizer interface {
	Normalize(ctx context.Context, path string) string
}

// DivisionPlanner checks constraints and materializes chunk files.
type DivisionPlanner interface {
	PlanDivision(path string) (divider.Plan, error)
}

// Processor runs one file through convert -> divide -> extract -> merge,
// recording step outcomes and cleaning up intermediate artifacts.
type Processor struct {
	converter Normalizer
	planner   DivisionPlanner
	extractor extract.TextExtractor
	records   repository.ProcessingRecordRepository
	outputDir string
	logger    *slog.Logger
}

func NewProcessor(
	converter Normalizer,
	planner DivisionPlanner,
	extractor extract.TextExtractor,
	records repository.ProcessingRecordRepository,
	outputDir string,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if records == nil {
		records = repository.NewNopRecordRepository(logger)
	}
	return &Processor{
		converter: converter,
		planner:   planner,
		extractor: extractor,
		records:   records,
		outputDir: outputDir,
		logger:    logger,
	}
}

// ProcessFile runs the complete per-file workflow. It never returns an
// error: every failure is folded into the returned FileResult so a
// batch can keep going.
func (p *Processor) ProcessFile(ctx context.Context, path string, saveOutput bool) FileResult {
	res := FileResult{FilePath: path, Filename: filepath.Base(path)}
	p.logger.Info("processor.start", "file", res.Filename, "path", path)

	fi, err := os.Stat(path)
	if err != nil {
		res.Error = "file does not exist"
		p.logger.Error("processor.missing_file", "path", path)
		return res
	}

	// Record creation failure is logged, never fatal.
	if id, err := p.records.Create(ctx, repository.FileInfo{Filename: res.Filename, FileSize: fi.Size()}); err != nil {
		p.logger.Warn("processor.record_create_failed", "file", res.Filename, "error", err)
	} else {
		res.RecordID = id
	}

	// Step 1: normalize to PDF. Degrades internally, always proceeds.
	pdfPath := p.converter.Normalize(ctx, path)
	res.Steps = append(res.Steps, Step{
		Name:    StepConversion,
		Success: true,
		Output:  pdfPath,
		Details: fmt.Sprintf("converted to: %s", filepath.Base(pdfPath)),
	})
	defer func() {
		// The converted rendition is intermediate; the original upload is not.
		if pdfPath != path {
			if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
				p.logger.Warn("processor.pdf_cleanup_failed", "path", pdfPath, "error", err)
			}
		}
	}()

	// Step 2: constraint check + division. Degrades to identity plan.
	plan, err := p.planner.PlanDivision(pdfPath)
	if err != nil {
		return p.fail(ctx, res, saveOutput, fmt.Errorf("planning division: %w", err))
	}
	res.Steps = append(res.Steps, Step{
		Name:    StepDivision,
		Success: true,
		Output:  chunkPaths(plan),
		Details: fmt.Sprintf("created %d chunk(s)", len(plan.Chunks)),
	})

	// Step 3: per-chunk extraction with failure isolation. A failed
	// chunk becomes a placeholder; the loop always continues.
	texts := make([]string, 0, len(plan.Chunks))
	outcomes := make([]extract.Outcome, 0, len(plan.Chunks))
	for _, ch := range plan.Chunks {
		p.logger.Info("processor.extract_chunk",
			"file", res.Filename,
			"chunk", ch.Index,
			"total", len(plan.Chunks),
		)
		out := p.extractor.Extract(ctx, ch.Path, "")
		outcomes = append(outcomes, out)
		if out.Success && out.Text != "" {
			texts = append(texts, out.Text)
		} else {
			p.logger.Warn("processor.chunk_failed",
				"file", res.Filename,
				"chunk", ch.Index,
				"error", out.Error,
			)
			texts = append(texts, chunkFailurePlaceholder)
		}
		// Bound temp disk usage: drop each chunk file as soon as it has
		// had its extraction attempt.
		if ch.Path != pdfPath {
			if err := os.Remove(ch.Path); err != nil && !os.IsNotExist(err) {
				p.logger.Warn("processor.chunk_cleanup_failed", "path", ch.Path, "error", err)
			}
		}
	}
	res.Steps = append(res.Steps, Step{
		Name:    StepExtraction,
		Success: true,
		Output:  outcomes,
		Details: fmt.Sprintf("processed %d chunks", len(plan.Chunks)),
	})

	// Step 4: merge in chunk order.
	var finalText string
	switch {
	case len(texts) > 1:
		finalText = strings.Join(texts, chunkSeparator)
	case len(texts) == 1:
		finalText = texts[0]
	default:
		finalText = extract.NoTextSentinel
	}
	res.ExtractedText = finalText
	res.TextLength = len(finalText)
	res.Metadata = Metadata{
		ChunksProcessed:   len(plan.Chunks),
		ExtractionMethods: methods(outcomes),
		TotalBytes:        totalBytes(outcomes),
	}
	p.logger.Info("processor.merged", "file", res.Filename, "chars", res.TextLength, "chunks", len(plan.Chunks))

	// Step 5: persist the output artifact.
	if saveOutput {
		outFile, err := p.writeOutput(path, finalText, res.Metadata)
		if err != nil {
			return p.fail(ctx, res, saveOutput, fmt.Errorf("saving output: %w", err))
		}
		res.OutputFile = outFile
		p.logger.Info("processor.output_saved", "file", res.Filename, "output", filepath.Base(outFile))
	}

	res.Success = true
	if res.RecordID != uuid.Nil {
		if err := p.records.UpdateStatus(ctx, res.RecordID, constants.RecordStatusCompleted, ""); err != nil {
			p.logger.Warn("processor.record_update_failed", "record_id", res.RecordID, "error", err)
		}
	}
	p.logger.Info("processor.ok", "file", res.Filename, "chars", res.TextLength)
	return res
}

// fail finalizes a result after an unexpected error: record goes to
// failed, an error artifact is written when output saving was requested,
// and the error text is attached to the result.
func (p *Processor) fail(ctx context.Context, res FileResult, saveOutput bool, err error) FileResult {
	res.Success = false
	res.Error = fmt.Sprintf("error processing %s: %v", res.Filename, err)
	p.logger.Error("processor.failed", "file", res.Filename, "error", err)

	if res.RecordID != uuid.Nil {
		if uerr := p.records.UpdateStatus(ctx, res.RecordID, constants.RecordStatusFailed, err.Error()); uerr != nil {
			p.logger.Warn("processor.record_update_failed", "record_id", res.RecordID, "error", uerr)
		}
	}
	if saveOutput {
		if _, werr := p.writeErrorArtifact(res.FilePath, err); werr != nil {
			p.logger.Warn("processor.error_artifact_failed", "file", res.Filename, "error", werr)
		}
	}
	return res
}

func chunkPaths(plan divider.Plan) []string {
	out := make([]string, len(plan.Chunks))
	for i, ch := range plan.Chunks {
		out[i] = ch.Path
	}
	return out
}

func methods(outcomes []extract.Outcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Method
	}
	return out
}

func totalBytes(outcomes []extract.Outcome) int64 {
	var n int64
	for _, o := range outcomes {
		n += o.ByteSize
	}
	return n
}
