package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// emptyTextPlaceholder stands in for files that decode to nothing.
const emptyTextPlaceholder = "The text file appears to be empty or contains no readable content."

// DirectReader extracts plain-text files locally, bypassing the remote
// service. This path cannot fail due to remote unavailability.
type DirectReader struct {
	logger *slog.Logger
}

func NewDirectReader(logger *slog.Logger) *DirectReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectReader{logger: logger}
}

func (r *DirectReader) Extract(_ context.Context, path, _ string) Outcome {
	raw, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error("extract.direct_read_failed", "path", path, "error", err)
		return Outcome{
			Success: false,
			Method:  MethodDirectRead,
			Error:   fmt.Sprintf("reading text file: %v", err),
		}
	}

	text, enc := decodeText(raw)
	r.logger.Debug("extract.direct_read", "path", path, "encoding", enc, "chars", len(text))
	if strings.TrimSpace(text) == "" {
		text = emptyTextPlaceholder
	}
	return Outcome{
		Success:  true,
		Text:     text,
		Method:   MethodDirectRead,
		ByteSize: int64(len(raw)),
	}
}

type legacyDecoder struct {
	name string
	enc  encoding.Encoding
}

// Tried in order after UTF-8 and UTF-16; ordering mirrors how uploads
// from Windows and Greek-locale systems tend to be encoded.
var legacyDecoders = []legacyDecoder{
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
	{"windows-1253", charmap.Windows1253},
}

// decodeText runs the tolerant decoding ladder and reports which
// encoding succeeded. The last resort strips invalid bytes rather than
// failing: a garbled extract beats no extract.
func decodeText(raw []byte) (string, string) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}

	utf16Dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	if out, err := utf16Dec.Bytes(raw); err == nil {
		return string(out), "utf-16"
	}

	for _, d := range legacyDecoders {
		out, err := d.enc.NewDecoder().Bytes(raw)
		if err != nil || strings.ContainsRune(string(out), utf8.RuneError) {
			continue
		}
		return string(out), d.name
	}

	return strings.ToValidUTF8(string(raw), ""), "utf-8-lossy"
}
