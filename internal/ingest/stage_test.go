package ingest

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/internal/common"
)

func newTestStager(t *testing.T) (*Stager, string) {
	t.Helper()
	uploadDir := t.TempDir()
	s := NewStager(
		common.DirectoryConfig{UploadDir: uploadDir, OutputDir: t.TempDir()},
		common.LimitsConfig{MaxFileSizeMB: 1, MaxPDFPages: 15},
		slog.Default(),
	)
	return s, uploadDir
}

func TestStageCopiesWithUniqueName(t *testing.T) {
	s, uploadDir := newTestStager(t)
	src := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 payload"), 0o644))

	staged, err := s.Stage(src)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", staged.OriginalName)
	assert.Equal(t, int64(16), staged.Size)
	assert.Equal(t, uploadDir, filepath.Dir(staged.Path))
	assert.True(t, strings.HasSuffix(staged.Path, "_report.pdf"))

	copied, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 payload", string(copied))
	// Original untouched.
	assert.FileExists(t, src)
}

func TestStageTwiceYieldsDistinctCopies(t *testing.T) {
	s, _ := newTestStager(t)
	src := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	first, err := s.Stage(src)
	require.NoError(t, err)
	second, err := s.Stage(src)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
}

func TestStageRejectsUnsupportedExtension(t *testing.T) {
	s, _ := newTestStager(t)
	src := filepath.Join(t.TempDir(), "malware.exe")
	require.NoError(t, os.WriteFile(src, []byte("MZ"), 0o644))

	_, err := s.Stage(src)
	assert.Error(t, err)
}

func TestStageRejectsMissingFile(t *testing.T) {
	s, _ := newTestStager(t)

	_, err := s.Stage(filepath.Join(t.TempDir(), "ghost.pdf"))
	assert.Error(t, err)
}

func TestDiscardRemovesStagedCopy(t *testing.T) {
	s, _ := newTestStager(t)
	src := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	staged, err := s.Stage(src)
	require.NoError(t, err)

	s.Discard(staged)
	assert.NoFileExists(t, staged.Path)

	// Discarding twice is harmless.
	s.Discard(staged)
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "nested")
	hidden := filepath.Join(root, ".hidden")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.MkdirAll(hidden, 0o755))

	for _, p := range []string{
		filepath.Join(root, "b.pdf"),
		filepath.Join(root, "a.docx"),
		filepath.Join(root, "skip.exe"),
		filepath.Join(sub, "c.txt"),
		filepath.Join(hidden, "d.pdf"),
	} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	files, err := CollectFiles(root, true)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(root, "a.docx"), files[0])
	assert.Equal(t, filepath.Join(root, "b.pdf"), files[1])
	assert.Equal(t, filepath.Join(sub, "c.txt"), files[2])
}

func TestCollectFilesEmptyRoot(t *testing.T) {
	_, err := CollectFiles("  ", true)
	assert.Error(t, err)
}
