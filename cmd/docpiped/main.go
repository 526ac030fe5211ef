package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/docpipe/docpipe/internal/async"
	"github.com/docpipe/docpipe/internal/common"
	"github.com/docpipe/docpipe/internal/convert"
	"github.com/docpipe/docpipe/internal/divider"
	"github.com/docpipe/docpipe/internal/extract"
	"github.com/docpipe/docpipe/internal/housekeeping"
	"github.com/docpipe/docpipe/internal/ingest"
	"github.com/docpipe/docpipe/internal/pipeline"
	"github.com/docpipe/docpipe/internal/repository"
)

func main() {
	var (
		watch       = flag.String("watch", "", "comma-separated directories to watch (defaults to UPLOAD_DIR)")
		workers     = flag.Int("workers", 1, "number of pipeline workers")
		initialScan = flag.Bool("initial-scan", true, "process files already present at startup")
		sweepEvery  = flag.Duration("sweep-interval", 10*time.Minute, "housekeeping interval")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var records repository.ProcessingRecordRepository
	if cfg.Database.DSN != "" {
		db, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to open record store", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		records = repository.NewProcessingRecordRepository(db, repository.IsPostgresDSN(cfg.Database.DSN), logger)
	}

	converter := convert.NewConverter(convert.Config{
		LibreOffice: cfg.Convert.LibreOffice,
		Timeout:     cfg.Convert.Timeout,
	}, logger)

	planner := divider.NewPlanner(divider.Constraints{
		MaxBytes: int64(cfg.Limits.MaxFileSizeMB) * 1024 * 1024,
		MaxPages: cfg.Limits.MaxPDFPages,
	}, logger)

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

	proc := pipeline.NewProcessor(converter, planner, extractor, records, cfg.Directories.OutputDir, logger)

	queue := async.NewProcessorQueue(proc, logger, async.WithWorkers(*workers))

	roots := []string{cfg.Directories.UploadDir}
	if *watch != "" {
		roots = strings.Split(*watch, ",")
	}
	for _, r := range roots {
		if err := os.MkdirAll(r, 0o755); err != nil {
			logger.Error("failed to create watch root", "root", r, "error", err)
			os.Exit(1)
		}
	}

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       roots,
		InitialScan: *initialScan,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("watching for documents", "roots", roots, "workers", *workers)

	sweeper := housekeeping.NewSweeper(cfg.Directories, cfg.Retention, logger)
	go sweeper.Run(ctx, *sweepEvery)

	// Files found outside the upload dir are staged into it before
	// processing, so the daemon never works directly on a file a
	// producer may still be writing or move. Files already in the
	// upload dir are the staged copies themselves.
	stager := ingest.NewStager(cfg.Directories, cfg.Limits, logger)
	uploadDir, _ := filepath.Abs(cfg.Directories.UploadDir)
	seen := make(map[string]struct{})

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err, ok := <-watchErrs:
			if !ok {
				break loop
			}
			logger.Warn("watcher error", "error", err)
		case path, ok := <-events:
			if !ok {
				break loop
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				continue
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}

			jobPath := abs
			if filepath.Dir(abs) != uploadDir {
				staged, err := stager.Stage(abs)
				if err != nil {
					logger.Warn("skipping file", "path", path, "error", err)
					continue
				}
				jobPath = staged.Path
				seen[jobPath] = struct{}{}
			}
			_ = queue.Enqueue(ctx, async.Job{Path: jobPath, SaveOutput: true})
		}
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
