package extract

import "context"

// Extraction methods, recorded per chunk so merged results stay traceable.
const (
	MethodDirectText   = "direct_text"   // service returned whole-document text
	MethodChunkedText  = "chunked_text"  // concatenated service content chunks
	MethodLayoutBlocks = "layout_blocks" // concatenated layout block text
	MethodDirectRead   = "direct_read"   // plain text read locally
	MethodNone         = "none"          // nothing recoverable
)

// NoTextSentinel is emitted when no extraction method recovered text.
const NoTextSentinel = "No text could be extracted from the document."

// Outcome is the per-chunk extraction result. Error is non-empty
// whenever Success is false.
type Outcome struct {
	Success   bool
	Text      string
	Method    string
	Error     string
	ByteSize  int64
	PageCount int
}

// TextExtractor turns a chunk file into text. Implementations report
// failures through the Outcome rather than panicking or returning
// errors; a chunk failure must never abort the file it belongs to.
type TextExtractor interface {
	Extract(ctx context.Context, path, mimeType string) Outcome
}
