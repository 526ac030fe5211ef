package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/docpipe/docpipe/constants"
	"github.com/docpipe/docpipe/internal/common"
)

// StagedFile points at a private copy of an upload inside the staging
// directory. The copy is what the pipeline works on; the caller's
// original is never touched.
type StagedFile struct {
	Path         string
	OriginalName string
	Size         int64
}

// Stager copies incoming files into the upload directory under
// collision-free names and validates them against the configured
// extension and size limits.
type Stager struct {
	uploadDir string
	maxBytes  int64
	logger    *slog.Logger
}

func NewStager(dirs common.DirectoryConfig, limits common.LimitsConfig, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{
		uploadDir: dirs.UploadDir,
		maxBytes:  int64(limits.MaxFileSizeMB) * 1024 * 1024,
		logger:    logger,
	}
}

// Stage validates srcPath and copies it into the upload directory as
// <uuid>_<original name>. Size over the configured limit is not an
// error here: oversized files are staged and left for the divider.
func (s *Stager) Stage(srcPath string) (StagedFile, error) {
	var out StagedFile

	abs, err := filepath.Abs(srcPath)
	if err != nil {
		return out, fmt.Errorf("resolving path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return out, common.NewAppError("FILE_NOT_FOUND", fmt.Sprintf("file does not exist: %s", srcPath), err)
	}
	if fi.IsDir() {
		return out, common.NewAppError("INVALID_FILE", fmt.Sprintf("not a regular file: %s", srcPath), common.ErrInvalidInput)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if !AllowedExt(ext) {
		return out, common.NewAppError("UNSUPPORTED_TYPE", fmt.Sprintf("unsupported extension: %q", ext), common.ErrInvalidInput)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return out, fmt.Errorf("create upload dir: %w", err)
	}

	name := filepath.Base(abs)
	dst := filepath.Join(s.uploadDir, uuid.New().String()+"_"+name)
	if err := copyFile(abs, dst); err != nil {
		return out, fmt.Errorf("staging copy: %w", err)
	}

	if s.maxBytes > 0 && fi.Size() > s.maxBytes {
		s.logger.Info("ingest.oversize", "file", name, "bytes", fi.Size(), "limit", s.maxBytes)
	}
	s.logger.Info("ingest.staged", "file", name, "staged", filepath.Base(dst), "bytes", fi.Size())

	return StagedFile{Path: dst, OriginalName: name, Size: fi.Size()}, nil
}

// Discard removes a staged copy. Missing files are fine; the pipeline
// may have cleaned up already.
func (s *Stager) Discard(staged StagedFile) {
	if staged.Path == "" {
		return
	}
	if err := os.Remove(staged.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("ingest.discard_failed", "path", staged.Path, "error", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
