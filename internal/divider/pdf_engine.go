package divider

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfEngine implements Engine on pdfcpu with relaxed validation, since
// uploads frequently carry slightly malformed PDFs that are still usable.
type pdfEngine struct {
	conf *model.Configuration
}

func newPDFEngine() Engine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfEngine{conf: conf}
}

func (e *pdfEngine) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

func (e *pdfEngine) ExtractPages(inPath, outPath string, start, end int) error {
	if start < 0 || end <= start {
		return fmt.Errorf("invalid page range [%d, %d)", start, end)
	}
	sel := []string{fmt.Sprintf("%d-%d", start+1, end)}
	if err := api.TrimFile(inPath, outPath, sel, e.conf); err != nil {
		return fmt.Errorf("extract pages %d-%d: %w", start+1, end, err)
	}
	return nil
}
