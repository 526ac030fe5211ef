package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// writeOutput persists extracted text with a deterministic header and a
// collision-avoiding numeric suffix. Returns the path written.
func (p *Processor) writeOutput(originalPath, text string, md Metadata) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(originalPath), filepath.Ext(originalPath))
	outFile := dedupePath(filepath.Join(p.outputDir, stem+"_extracted.txt"))

	header := fmt.Sprintf(`Extracted Text from: %s
Source: %s
Date: %s
Characters: %d
Lines: %d
Chunks Processed: %d
%s

`,
		filepath.Base(originalPath),
		originalPath,
		time.Now().Format("2006-01-02 15:04:05"),
		len(text),
		len(strings.Split(strings.TrimRight(text, "\n"), "\n")),
		md.ChunksProcessed,
		strings.Repeat("=", 60),
	)

	if err := os.WriteFile(outFile, []byte(header+text), 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}
	return outFile, nil
}

// writeErrorArtifact persists failure details next to where the output
// would have gone.
func (p *Processor) writeErrorArtifact(originalPath string, cause error) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(originalPath), filepath.Ext(originalPath))
	errFile := filepath.Join(p.outputDir, stem+"_extraction_error.txt")

	content := fmt.Sprintf("Error extracting text from: %s\nError: %v\nDate: %s\n",
		originalPath, cause, time.Now().Format("2006-01-02 15:04:05"))
	if err := os.WriteFile(errFile, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write error file: %w", err)
	}
	return errFile, nil
}

// dedupePath appends _1, _2, ... before the extension until the name is
// free. Two files with the same stem processed in one batch must not
// clobber each other's outputs.
func dedupePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
