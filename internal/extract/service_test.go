package extract

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExtractor struct {
	calls []string
	out   Outcome
}

func (r *recordingExtractor) Extract(_ context.Context, path, _ string) Outcome {
	r.calls = append(r.calls, path)
	return r.out
}

func TestServiceRoutesTextLocally(t *testing.T) {
	remote := &recordingExtractor{}
	s := NewService(remote, slog.Default())
	path := writeTemp(t, "notes.txt", []byte("local text"))

	out := s.Extract(context.Background(), path, "")

	require.True(t, out.Success)
	assert.Equal(t, "local text", out.Text)
	assert.Empty(t, remote.calls, "text files must not reach the remote service")
}

func TestServiceRoutesPDFToRemote(t *testing.T) {
	remote := &recordingExtractor{out: Outcome{Success: true, Text: "remote text", Method: MethodDirectText}}
	s := NewService(remote, slog.Default())
	path := writeTemp(t, "doc.pdf", []byte("%PDF-1.4"))

	out := s.Extract(context.Background(), path, "")

	require.True(t, out.Success)
	assert.Equal(t, "remote text", out.Text)
	assert.Equal(t, []string{path}, remote.calls)
}

func TestServiceWithoutRemoteFailsCleanly(t *testing.T) {
	s := NewService(nil, slog.Default())
	path := writeTemp(t, "doc.pdf", []byte("%PDF-1.4"))

	out := s.Extract(context.Background(), path, "")

	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}
