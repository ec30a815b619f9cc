package documents

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageCount reads the PDF structure with pdfcpu and returns its page count.
// Unreadable documents return an error; zero pages return ErrNoPages.
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if pdfCtx.PageCount == 0 {
		return 0, ErrNoPages
	}
	return pdfCtx.PageCount, nil
}
