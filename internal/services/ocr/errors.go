// Package ocr turns page images into text for the offline extraction path.
//
// The Tesseract engine is only compiled in with the "ocr" build tag, since
// gosseract needs cgo and the Tesseract headers:
//
//	go build -tags ocr ./...
package ocr

import "errors"

// ErrOCRNotEnabled is returned by builds without the "ocr" tag
var ErrOCRNotEnabled = errors.New("OCR support not compiled in (build with -tags ocr)")
