package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// StepName identifies a stage of the per-file pipeline.
type StepName string

const (
	StepConversion StepName = "conversion"
	StepDivision   StepName = "division"
	StepExtraction StepName = "extraction"
)

// Step is one audit entry in a file's processing history. The list is
// append-only and owned by the file result being built.
type Step struct {
	Name    StepName
	Success bool
	Output  any
	Details string
}

// Metadata aggregates chunk-level bookkeeping for a file.
type Metadata struct {
	ChunksProcessed   int
	ExtractionMethods []string
	TotalBytes        int64
}

// FileResult is the per-file aggregate. It is mutated only by the
// processor run that owns it and is final once that run returns.
type FileResult struct {
	Success       bool
	FilePath      string
	Filename      string
	ExtractedText string
	TextLength    int
	OutputFile    string
	Steps         []Step
	Metadata      Metadata
	Error         string
	RecordID      uuid.UUID
}

// BatchSummary carries batch timing.
type BatchSummary struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// BatchResult aggregates a whole batch invocation. Success is partial:
// true when at least one file succeeded.
type BatchResult struct {
	Success         bool
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	Results         []FileResult
	CombinedText    string
	Summary         BatchSummary
}
