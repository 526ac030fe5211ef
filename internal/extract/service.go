package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/docpipe/docpipe/constants"
)

// Service routes a chunk to the right extractor: plain text is read
// locally, everything else goes to the remote service. A nil remote
// yields clean per-chunk failures instead of a crash, so the pipeline
// still works for text-only batches without any service configured.
type Service struct {
	direct *DirectReader
	remote TextExtractor
	logger *slog.Logger
}

func NewService(remote TextExtractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{direct: NewDirectReader(logger), remote: remote, logger: logger}
}

func (s *Service) Extract(ctx context.Context, path, mimeType string) Outcome {
	if mimeType == "" {
		mimeType = constants.MIMEType(path)
	}
	s.logger.Debug("extract.route", "path", filepath.Base(path), "mime_type", mimeType)

	if mimeType == "text/plain" || strings.HasSuffix(strings.ToLower(path), ".txt") {
		return s.direct.Extract(ctx, path, mimeType)
	}
	if s.remote == nil {
		s.logger.Error("extract.no_remote", "path", path)
		return Outcome{Success: false, Error: "extraction service not configured"}
	}
	return s.remote.Extract(ctx, path, mimeType)
}
