package convert

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner fakes the libreoffice subprocess. When it "succeeds" it
// drops an input.pdf into the outdir the converter asked for, the way
// the real binary does.
type stubRunner struct {
	err    error
	stderr string
	calls  [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.err != nil {
		return nil, []byte(s.stderr), s.err
	}
	outDir := ""
	for i, a := range args {
		if a == "--outdir" && i+1 < len(args) {
			outDir = args[i+1]
		}
	}
	if outDir != "" {
		if err := os.WriteFile(filepath.Join(outDir, "input.pdf"), []byte("%PDF-1.4 stub"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func newTestConverter(r Runner) *Converter {
	c := NewConverter(Config{}, slog.Default())
	c.runner = r
	return c
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizePDFPassthrough(t *testing.T) {
	path := writeTemp(t, "doc.pdf", "%PDF-1.4")
	r := &stubRunner{}
	c := newTestConverter(r)

	out := c.Normalize(context.Background(), path)

	assert.Equal(t, path, out)
	assert.Empty(t, r.calls, "pdf input must not spawn a conversion")
}

func TestNormalizeTextPassthrough(t *testing.T) {
	path := writeTemp(t, "notes.txt", "hello")
	r := &stubRunner{}
	c := newTestConverter(r)

	out := c.Normalize(context.Background(), path)

	assert.Equal(t, path, out)
	assert.Empty(t, r.calls)
}

func TestNormalizeOfficeDocument(t *testing.T) {
	path := writeTemp(t, "report.docx", "not really a docx")
	r := &stubRunner{}
	c := newTestConverter(r)

	out := c.Normalize(context.Background(), path)

	want := path[:len(path)-len(".docx")] + "_converted.pdf"
	assert.Equal(t, want, out)
	assert.FileExists(t, out)
	require.Len(t, r.calls, 1)
	assert.Contains(t, r.calls[0], "--headless")
	assert.Contains(t, r.calls[0], "--convert-to")
}

func TestNormalizeFailureReturnsOriginal(t *testing.T) {
	path := writeTemp(t, "report.docx", "contents")
	r := &stubRunner{err: errors.New("exit status 77"), stderr: "soffice crashed"}
	c := newTestConverter(r)

	out := c.Normalize(context.Background(), path)

	assert.Equal(t, path, out)
	assert.NoFileExists(t, path[:len(path)-len(".docx")]+"_converted.pdf")
}

func TestNormalizeUnknownExtensionGoesThroughOffice(t *testing.T) {
	path := writeTemp(t, "data.xyz", "contents")
	r := &stubRunner{}
	c := newTestConverter(r)

	out := c.Normalize(context.Background(), path)

	assert.Equal(t, path[:len(path)-len(".xyz")]+"_converted.pdf", out)
	require.Len(t, r.calls, 1)
}
