package extraction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks failures that abort the whole call and are not worth retrying
	ErrConfiguration = errors.New("extraction configuration error")
	// ErrMissingAPIKey is a configuration error for calls without a model API key
	ErrMissingAPIKey = fmt.Errorf("%w: missing API key", ErrConfiguration)
	// ErrUnsupportedDocument is a configuration error for document types other than pdf and docx
	ErrUnsupportedDocument = fmt.Errorf("%w: unsupported document type", ErrConfiguration)
	// ErrInvalidResponse is recorded when a model response holds no usable JSON
	ErrInvalidResponse = errors.New("invalid model response")
)

// BatchError records why one batch produced nothing
type BatchError struct {
	Batch     int // 1-based
	FirstPage int // 1-based, inclusive
	LastPage  int
	Err       error
}

func (e BatchError) Error() string {
	if e.FirstPage == e.LastPage {
		return fmt.Sprintf("batch %d (page %d): %v", e.Batch, e.FirstPage, e.Err)
	}
	return fmt.Sprintf("batch %d (pages %d-%d): %v", e.Batch, e.FirstPage, e.LastPage, e.Err)
}

func (e BatchError) Unwrap() error {
	return e.Err
}

// AggregateError is returned when no candidate survived and at least one batch failed
type AggregateError struct {
	Errors []BatchError
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, be := range e.Errors {
		msgs[i] = be.Error()
	}
	return fmt.Sprintf("extraction failed in %d batch(es): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every batch error to errors.Is / errors.As
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, be := range e.Errors {
		errs[i] = be
	}
	return errs
}
