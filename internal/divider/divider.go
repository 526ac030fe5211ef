package divider

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docpipe/docpipe/constants"
)

// Constraints are the ceilings a file must satisfy to be processed as a
// single unit. Both must be positive.
type Constraints struct {
	MaxBytes int64
	MaxPages int
}

// Chunk describes one materialized piece of a divided file. Page ranges
// are 0-based and half-open; byte ranges likewise. A paged chunk has
// ByteStart/ByteEnd == -1, a byte-window chunk has StartPage/EndPage == -1,
// and an identity chunk carries the source ranges of whichever kind apply.
type Chunk struct {
	Path      string
	Index     int // 1-based, contiguous
	StartPage int
	EndPage   int
	ByteStart int64
	ByteEnd   int64
}

// Plan is the ordered division of a source file. Ranges partition the
// source exactly once, in order, with no gaps or overlaps.
type Plan struct {
	Source   string
	Chunks   []Chunk
	Identity bool // single chunk equal to the source
	Paged    bool
	Pages    int // 0 when unknown
	Bytes    int64
}

// Engine abstracts paged-document operations so tests can stub them.
type Engine interface {
	// PageCount returns the number of pages in a paged document.
	PageCount(path string) (int, error)
	// ExtractPages writes pages [start, end) of inPath to outPath as a
	// self-contained document. Pages are 0-based.
	ExtractPages(inPath, outPath string, start, end int) error
}

// Planner checks files against constraints and materializes chunk files
// when a file violates them. Division failures are non-fatal: the
// planner degrades to an identity plan over the original file.
type Planner struct {
	constraints Constraints
	engine      Engine
	logger      *slog.Logger
}

func NewPlanner(c Constraints, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{constraints: c, engine: newPDFEngine(), logger: logger}
}

// PlanDivision decides whether path fits within the constraints and, if
// not, writes chunk files next to the source and returns the plan over
// them. The only error returned is a failure to stat the source; every
// failure past that point degrades to the identity plan.
func (p *Planner) PlanDivision(path string) (Plan, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Plan{}, fmt.Errorf("stat source: %w", err)
	}
	size := fi.Size()
	ext := constants.NormalizeExt(filepath.Ext(path))
	p.logger.Debug("divider.check", "path", path, "bytes", size, "ext", ext)

	if ext == "pdf" {
		return p.planPDF(path, size), nil
	}
	if size <= p.constraints.MaxBytes {
		p.logger.Debug("divider.within_limits", "path", path)
		return p.identity(path, size, false, 0), nil
	}
	p.logger.Info("divider.bytes_exceeded", "path", path, "bytes", size, "max_bytes", p.constraints.MaxBytes)
	return p.divideByBytes(path, size), nil
}

func (p *Planner) planPDF(path string, size int64) Plan {
	pages, err := p.engine.PageCount(path)
	if err != nil {
		// Unreadable as a paged document: fall back to byte-size-only policy.
		p.logger.Warn("divider.page_count_failed", "path", path, "error", err)
		if size <= p.constraints.MaxBytes {
			return p.identity(path, size, false, 0)
		}
		return p.divideByBytes(path, size)
	}

	if size <= p.constraints.MaxBytes && pages <= p.constraints.MaxPages {
		p.logger.Debug("divider.within_limits", "path", path, "pages", pages)
		return p.identity(path, size, true, pages)
	}

	perChunk := p.constraints.MaxPages
	estimated := false
	if pages <= p.constraints.MaxPages {
		// Page count is fine but the file is too large. Estimate pages per
		// chunk assuming roughly uniform per-page byte density.
		perChunk = int(int64(p.constraints.MaxPages) * p.constraints.MaxBytes / size)
		if perChunk < 1 {
			perChunk = 1
		}
		estimated = true
	}
	p.logger.Info("divider.pages_plan",
		"path", path,
		"pages", pages,
		"bytes", size,
		"pages_per_chunk", perChunk,
		"estimated", estimated,
	)
	return p.divideByPages(path, size, pages, perChunk, estimated)
}

type span struct{ start, end int }

func (p *Planner) divideByPages(path string, size int64, pages, perChunk int, revalidate bool) Plan {
	stem := strings.TrimSuffix(path, filepath.Ext(path))

	var spans []span
	for start := 0; start < pages; start += perChunk {
		end := start + perChunk
		if end > pages {
			end = pages
		}
		spans = append(spans, span{start, end})
	}

	var chunks []Chunk
	var written []string
	fail := func(err error) Plan {
		p.logger.Warn("divider.divide_failed", "path", path, "error", err)
		removeAll(written)
		return p.identity(path, size, true, pages)
	}

	num := 1
	for i := 0; i < len(spans); i++ {
		s := spans[i]
		out := fmt.Sprintf("%s_chunk_%d.pdf", stem, num)
		if err := p.engine.ExtractPages(path, out, s.start, s.end); err != nil {
			return fail(err)
		}
		// The density estimate is approximate; a skewed page can still push
		// a chunk over the byte ceiling. Split the offending range and try
		// again so numbering stays contiguous.
		if revalidate && s.end-s.start > 1 {
			if fi, err := os.Stat(out); err == nil && fi.Size() > p.constraints.MaxBytes {
				p.logger.Info("divider.chunk_resplit",
					"chunk", out,
					"bytes", fi.Size(),
					"pages", s.end-s.start,
				)
				_ = os.Remove(out)
				mid := s.start + (s.end-s.start)/2
				rest := append([]span{{s.start, mid}, {mid, s.end}}, spans[i+1:]...)
				spans = append(spans[:i], rest...)
				i--
				continue
			}
		}
		chunks = append(chunks, Chunk{
			Path:      out,
			Index:     num,
			StartPage: s.start,
			EndPage:   s.end,
			ByteStart: -1,
			ByteEnd:   -1,
		})
		written = append(written, out)
		p.logger.Info("divider.chunk_created",
			"chunk", num,
			"first_page", s.start+1,
			"last_page", s.end,
			"path", filepath.Base(out),
		)
		num++
	}
	return Plan{Source: path, Chunks: chunks, Paged: true, Pages: pages, Bytes: size}
}

func (p *Planner) divideByBytes(path string, size int64) Plan {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	in, err := os.Open(path)
	if err != nil {
		p.logger.Warn("divider.divide_failed", "path", path, "error", err)
		return p.identity(path, size, false, 0)
	}
	defer in.Close()

	var chunks []Chunk
	var written []string
	var offset int64
	buf := make([]byte, p.constraints.MaxBytes)
	num := 1
	for {
		n, err := io.ReadFull(in, buf)
		if n == 0 {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			p.logger.Warn("divider.divide_failed", "path", path, "error", err)
			removeAll(written)
			return p.identity(path, size, false, 0)
		}
		out := fmt.Sprintf("%s_chunk_%d%s", stem, num, ext)
		if werr := os.WriteFile(out, buf[:n], 0o644); werr != nil {
			p.logger.Warn("divider.divide_failed", "path", path, "error", werr)
			removeAll(written)
			return p.identity(path, size, false, 0)
		}
		chunks = append(chunks, Chunk{
			Path:      out,
			Index:     num,
			StartPage: -1,
			EndPage:   -1,
			ByteStart: offset,
			ByteEnd:   offset + int64(n),
		})
		written = append(written, out)
		p.logger.Info("divider.chunk_created", "chunk", num, "bytes", n, "path", filepath.Base(out))
		offset += int64(n)
		num++
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
	}
	if len(chunks) == 0 {
		return p.identity(path, size, false, 0)
	}
	return Plan{Source: path, Chunks: chunks, Bytes: size}
}

func (p *Planner) identity(path string, size int64, paged bool, pages int) Plan {
	c := Chunk{Path: path, Index: 1, StartPage: -1, EndPage: -1, ByteStart: 0, ByteEnd: size}
	if paged {
		c.StartPage = 0
		c.EndPage = pages
		c.ByteStart = -1
		c.ByteEnd = -1
	}
	return Plan{
		Source:   path,
		Chunks:   []Chunk{c},
		Identity: true,
		Paged:    paged,
		Pages:    pages,
		Bytes:    size,
	}
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
