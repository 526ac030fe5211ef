package export

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/docpipe/docpipe/internal/pipeline"
)

func sampleBatch() pipeline.BatchResult {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Second)
	return pipeline.BatchResult{
		Success:         true,
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		Results: []pipeline.FileResult{
			{
				Success:    true,
				Filename:   "a.pdf",
				TextLength: 120,
				OutputFile: "/out/a_extracted.txt",
				Metadata: pipeline.Metadata{
					ChunksProcessed:   2,
					ExtractionMethods: []string{"direct_text", "chunked_text"},
				},
			},
			{
				Success:  false,
				Filename: "b.docx",
				Error:    "error processing b.docx: conversion failed",
			},
		},
		Summary: pipeline.BatchSummary{Start: start, End: end, Duration: end.Sub(start)},
	}
}

func TestBatchReportXLSX(t *testing.T) {
	svc := NewService(slog.Default())

	data, err := svc.BatchReportXLSX(sampleBatch())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Files"}, f.GetSheetList())

	total, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	failed, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", failed)

	name, err := f.GetCellValue("Files", "A2")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", name)
	status, err := f.GetCellValue("Files", "B2")
	require.NoError(t, err)
	assert.Equal(t, "completed", status)
	methods, err := f.GetCellValue("Files", "E2")
	require.NoError(t, err)
	assert.Equal(t, "direct_text, chunked_text", methods)

	status, err = f.GetCellValue("Files", "B3")
	require.NoError(t, err)
	assert.Equal(t, "failed", status)
	errMsg, err := f.GetCellValue("Files", "G3")
	require.NoError(t, err)
	assert.Contains(t, errMsg, "conversion failed")
}

func TestBatchReportEmptyBatch(t *testing.T) {
	svc := NewService(slog.Default())

	data, err := svc.BatchReportXLSX(pipeline.BatchResult{Success: true})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
