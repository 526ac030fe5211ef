package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/docpipe/docpipe/constants"
)

type Config struct {
	LibreOffice string        // binary name or absolute path; if empty -> "libreoffice"
	Timeout     time.Duration // ceiling on a single conversion subprocess; default 2m
}

// Converter normalizes inputs into a paged (PDF) form. It never fails
// past its boundary: any conversion problem degrades to returning the
// original path, and downstream extraction copes or fails per file.
type Converter struct {
	cfg     Config
	runner  Runner
	pdfConf *model.Configuration
	logger  *slog.Logger
}

func NewConverter(cfg Config, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LibreOffice == "" {
		cfg.LibreOffice = "libreoffice"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Converter{cfg: cfg, runner: execRunner{}, pdfConf: conf, logger: logger}
}

// Normalize returns a path to a PDF rendition of path, or path itself
// when it is already normalized (PDF), is plain text (read directly at
// extraction), or when conversion fails.
func (c *Converter) Normalize(ctx context.Context, path string) string {
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)

	switch format {
	case constants.PDF:
		c.logger.Debug("convert.already_pdf", "path", path)
		return path
	case constants.TEXT:
		// Plain text bypasses the remote service entirely; no rendition needed.
		c.logger.Debug("convert.text_passthrough", "path", path)
		return path
	}

	out := convertedPath(path)
	var err error
	switch format {
	case constants.IMAGE:
		err = c.imageToPDF(path, out)
	default: // OFFICE and OTHER both go through libreoffice
		err = c.officeToPDF(ctx, path, out)
	}
	if err != nil {
		c.logger.Warn("convert.failed, using original file", "path", path, "format", format, "error", err)
		_ = os.Remove(out)
		return path
	}
	c.logger.Info("convert.ok", "path", path, "pdf", filepath.Base(out))
	return out
}

func convertedPath(path string) string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + "_converted.pdf"
}

func (c *Converter) imageToPDF(path, out string) error {
	if err := api.ImportImagesFile([]string{path}, out, nil, c.pdfConf); err != nil {
		return fmt.Errorf("import image: %w", err)
	}
	return nil
}

// officeToPDF shells out to libreoffice. The input is staged into a
// temp dir under a plain name first; upload filenames routinely carry
// characters libreoffice's output naming mangles.
func (c *Converter) officeToPDF(ctx context.Context, path, out string) error {
	tmpDir, err := os.MkdirTemp("", "docpipe-convert-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			c.logger.Warn("convert.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	tmpIn := filepath.Join(tmpDir, "input"+filepath.Ext(path))
	if err := copyFile(path, tmpIn); err != nil {
		return fmt.Errorf("stage input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	_, errb, err := c.runner.Run(runCtx, c.cfg.LibreOffice,
		"--headless", "--convert-to", "pdf", "--outdir", tmpDir, tmpIn)
	if err != nil {
		if runCtx.Err() != nil {
			return fmt.Errorf("libreoffice timed out after %s", c.cfg.Timeout)
		}
		return fmt.Errorf("libreoffice: %w: %s", err, truncate(string(errb), 512))
	}

	tmpOut := filepath.Join(tmpDir, "input.pdf")
	if _, err := os.Stat(tmpOut); err != nil {
		return errors.New("libreoffice produced no pdf")
	}
	if err := copyFile(tmpOut, out); err != nil {
		return fmt.Errorf("copy rendition: %w", err)
	}
	return nil
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
		return err
	}
	return out.Close()
}
