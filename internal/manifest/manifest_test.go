package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidManifest(t *testing.T) {
	path := writeManifest(t, `{"files": ["/data/a.pdf", "/data/b.docx"], "save_output": true}`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/a.pdf", "/data/b.docx"}, m.Files)
	assert.True(t, m.SaveOutput)
}

func TestLoadDefaultsSaveOutputToFalse(t *testing.T) {
	path := writeManifest(t, `{"files": ["/data/a.pdf"]}`)

	m, err := Load(path)
	require.NoError(t, err)
	assert.False(t, m.SaveOutput)
}

func TestLoadRejectsEmptyFileList(t *testing.T) {
	path := writeManifest(t, `{"files": []}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFilesKey(t *testing.T) {
	path := writeManifest(t, `{"save_output": true}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeManifest(t, `{"files": ["/a.pdf"], "parallel": 4}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := writeManifest(t, `{"files": [`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
