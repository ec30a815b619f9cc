package documents

import "errors"

var (
	// ErrRasterizerUnavailable is returned when the configured PDF backend cannot run
	ErrRasterizerUnavailable = errors.New("pdf rasterizer unavailable")
	// ErrNoPages is returned for PDFs with zero pages
	ErrNoPages = errors.New("PDF has no pages")
	// ErrNotDocx is returned when the bytes are not a Word document
	ErrNotDocx = errors.New("not a docx document")
)
