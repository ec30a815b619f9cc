package llm

import "errors"

var (
	// ErrEmptyResponse is returned when a model answers with no text
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrBlocked is returned when the provider's safety filter withheld the answer
	ErrBlocked = errors.New("response blocked by safety filter")
	// ErrAllModelsFailed wraps the last error once every model in a chain failed
	ErrAllModelsFailed = errors.New("all models failed")
	// ErrNoModels is returned by a chain with nothing configured
	ErrNoModels = errors.New("no models configured")
)
