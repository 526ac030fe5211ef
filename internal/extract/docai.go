package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// processClient is the slice of the Document AI client the adapter
// needs; tests stub it.
type processClient interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
}

type DocAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	ChunkSize        int // layout chunking size; default 1000
}

// DocAI sends chunk files to the Document AI layout processor and
// recovers text from whichever response fields the service populated.
type DocAI struct {
	cfg     DocAIConfig
	client  processClient
	closeFn func() error
	logger  *slog.Logger
}

func NewDocAI(ctx context.Context, cfg DocAIConfig, logger *slog.Logger) (*DocAI, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("documentai: project and processor IDs are required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	logger.Info("extract.docai_ready", "location", cfg.Location, "processor", cfg.ProcessorID)
	return &DocAI{cfg: cfg, client: client, closeFn: client.Close, logger: logger}, nil
}

func (d *DocAI) Close() error {
	if d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

func (d *DocAI) processorName() string {
	if d.cfg.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			d.cfg.ProjectID, d.cfg.Location, d.cfg.ProcessorID, d.cfg.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		d.cfg.ProjectID, d.cfg.Location, d.cfg.ProcessorID)
}

func (d *DocAI) Extract(ctx context.Context, path, mimeType string) Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{Success: false, Error: fmt.Sprintf("reading chunk: %v", err)}
	}

	req := &documentaipb.ProcessRequest{
		Name: d.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
		ProcessOptions: &documentaipb.ProcessOptions{
			LayoutConfig: &documentaipb.ProcessOptions_LayoutConfig{
				ChunkingConfig: &documentaipb.ProcessOptions_LayoutConfig_ChunkingConfig{
					ChunkSize:               int32(d.cfg.ChunkSize),
					IncludeAncestorHeadings: true,
				},
			},
		},
	}

	d.logger.Debug("extract.docai_request", "path", path, "mime_type", mimeType, "bytes", len(data))
	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		code := "unknown"
		if st, ok := status.FromError(err); ok {
			code = st.Code().String()
		}
		d.logger.Error("extract.docai_failed", "path", path, "grpc_code", code, "error", err)
		return Outcome{
			Success:  false,
			Error:    fmt.Sprintf("processing document: %v", err),
			ByteSize: int64(len(data)),
		}
	}

	doc := resp.GetDocument()
	text, method := textFromDocument(doc)
	d.logger.Info("extract.docai_ok",
		"path", path,
		"method", method,
		"chars", len(text),
		"pages", len(doc.GetPages()),
	)
	return Outcome{
		Success:   true,
		Text:      text,
		Method:    method,
		ByteSize:  int64(len(data)),
		PageCount: len(doc.GetPages()),
	}
}

// textFromDocument applies the fixed preference order over the response:
// whole-document text, then content chunks, then layout block text.
// The service populates different subsets of these depending on the
// document type, so all three are tried before giving up.
func textFromDocument(doc *documentaipb.Document) (string, string) {
	if doc == nil {
		return NoTextSentinel, MethodNone
	}

	if t := doc.GetText(); strings.TrimSpace(t) != "" {
		return t, MethodDirectText
	}

	if chunks := doc.GetChunkedDocument().GetChunks(); len(chunks) > 0 {
		var b strings.Builder
		for _, ch := range chunks {
			b.WriteString(ch.GetContent())
			b.WriteString("\n")
		}
		if strings.TrimSpace(b.String()) != "" {
			return b.String(), MethodChunkedText
		}
	}

	if blocks := doc.GetDocumentLayout().GetBlocks(); len(blocks) > 0 {
		var b strings.Builder
		for _, blk := range blocks {
			if tb := blk.GetTextBlock(); tb != nil {
				b.WriteString(tb.GetText())
				b.WriteString("\n")
			}
		}
		if strings.TrimSpace(b.String()) != "" {
			return b.String(), MethodLayoutBlocks
		}
	}

	return NoTextSentinel, MethodNone
}
