package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/docpipe/docpipe/internal/common"
	"github.com/docpipe/docpipe/internal/convert"
	"github.com/docpipe/docpipe/internal/divider"
	"github.com/docpipe/docpipe/internal/export"
	"github.com/docpipe/docpipe/internal/extract"
	"github.com/docpipe/docpipe/internal/housekeeping"
	"github.com/docpipe/docpipe/internal/ingest"
	"github.com/docpipe/docpipe/internal/manifest"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		manifestPath = flag.String("manifest", "", "JSON batch manifest ({\"files\": [...], \"save_output\": bool})")
		dir          = flag.String("dir", "", "directory to process documents from")
		report       = flag.String("report", "", "XLSX batch report output path (optional)")
		noSave       = flag.Bool("no-save", false, "do not write extracted text files")
		inmem        = flag.Bool("inmem", false, "use an in-memory SQLite record store")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Resolve the file list: manifest, directory, or positional args.
	saveOutput := !*noSave
	var files []string
	switch {
	case *manifestPath != "":
		m, err := manifest.Load(*manifestPath)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		files = m.Files
		if *noSave {
			saveOutput = false
		} else {
			saveOutput = m.SaveOutput
		}
	case *dir != "":
		var err error
		files, err = ingest.CollectFiles(*dir, true)
		if err != nil {
			printError("Error: scanning %s: %v\n", *dir, err)
			os.Exit(1)
		}
	default:
		files = flag.Args()
	}
	if len(files) == 0 {
		printError("Error: no input files; use -manifest, -dir, or positional paths\n")
		os.Exit(1)
	}

	// Record store: in-memory sqlite, configured DSN, or none at all.
	var records repository.ProcessingRecordRepository
	dbCfg := cfg.Database
	if *inmem {
		dbCfg.DSN = ":memory:"
	}
	if dbCfg.DSN != "" {
		db, err := repository.Open(ctx, dbCfg, logger)
		if err != nil {
			logger.Error("failed to open record store", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		records = repository.NewProcessingRecordRepository(db, repository.IsPostgresDSN(dbCfg.DSN), logger)
	}

	converter := convert.NewConverter(convert.Config{
		LibreOffice: cfg.Convert.LibreOffice,
		Timeout:     cfg.Convert.Timeout,
	}, logger)

	planner := divider.NewPlanner(divider.Constraints{
		MaxBytes: int64(cfg.Limits.MaxFileSizeMB) * 1024 * 1024,
		MaxPages: cfg.Limits.MaxPDFPages,
	}, logger)

	// Remote extraction is optional; text files still work without it.
	var remote extract.TextExtractor
	if cfg.DocAI.ProjectID != "" && cfg.DocAI.ProcessorID != "" {
		docai, err := extract.NewDocAI(ctx, extract.DocAIConfig{
			ProjectID:        cfg.DocAI.ProjectID,
			Location:         cfg.DocAI.Location,
			ProcessorID:      cfg.DocAI.ProcessorID,
			ProcessorVersion: cfg.DocAI.ProcessorVersion,
			ChunkSize:        cfg.DocAI.ChunkSize,
		}, logger)
		if err != nil {
			logger.Error("failed to create extraction client", "error", err)
			os.Exit(1)
		}
		defer docai.Close()
		remote = docai
	} else {
		logger.Warn("extraction service not configured, only plain text files will extract")
	}
	extractor := extract.NewService(remote, logger)

	// Retention sweep runs before the batch so stale artifacts from
	// earlier runs cannot collide with this one's outputs.
	if err := housekeeping.NewSweeper(cfg.Directories, cfg.Retention, logger).Sweep(ctx); err != nil {
		logger.Warn("housekeeping sweep failed", "error", err)
	}

	proc := pipeline.NewProcessor(converter, planner, extractor, records, cfg.Directories.OutputDir, logger)
	batch := pipeline.NewBatch(proc, logger)

	res := batch.ProcessFiles(ctx, files, saveOutput)

	if *report != "" {
		xlsxBytes, err := export.NewService(logger).BatchReportXLSX(res)
		if err != nil {
			logger.Error("failed to build batch report", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*report, xlsxBytes, 0o644); err != nil {
			logger.Error("failed to write batch report", "error", err)
			os.Exit(1)
		}
		logger.Info("batch report written", "path", *report)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", res.TotalFiles)
	fmt.Printf("- Successful: %d\n", res.SuccessfulFiles)
	fmt.Printf("- Failed: %d\n", res.FailedFiles)
	fmt.Printf("- Duration: %s\n", res.Summary.Duration)

	if res.SuccessfulFiles == 0 && res.TotalFiles > 0 {
		os.Exit(1)
	}
}
