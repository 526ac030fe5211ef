package housekeeping

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docpipe/docpipe/internal/common"
)

// Sweeper removes stale files from the upload and output directories.
// Uploads age out fast (staged copies the pipeline is done with);
// outputs are kept longer so callers have a chance to collect them.
type Sweeper struct {
	uploadDir    string
	outputDir    string
	uploadMaxAge time.Duration
	outputMaxAge time.Duration
	logger       *slog.Logger
}

func NewSweeper(dirs common.DirectoryConfig, retention common.RetentionConfig, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		uploadDir:    dirs.UploadDir,
		outputDir:    dirs.OutputDir,
		uploadMaxAge: retention.UploadMaxAge,
		outputMaxAge: retention.OutputMaxAge,
		logger:       logger,
	}
}

// Sweep removes files older than the retention thresholds from both
// directories. The two directories are swept concurrently; the first
// error wins but does not stop the sibling sweep mid-directory.
func (s *Sweeper) Sweep(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.sweepDir(ctx, s.uploadDir, s.uploadMaxAge) })
	g.Go(func() error { return s.sweepDir(ctx, s.outputDir, s.outputMaxAge) })
	return g.Wait()
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Warn("housekeeping.sweep_failed", "error", err)
			}
		}
	}
}

func (s *Sweeper) sweepDir(ctx context.Context, dir string, maxAge time.Duration) error {
	if dir == "" || maxAge <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("housekeeping.remove_failed", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("housekeeping.swept", "dir", dir, "removed", removed)
	}
	return nil
}
