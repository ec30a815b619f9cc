package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/extraction"
)

// extractOutput is the JSON document written by extract and segment, and read back by save
type extractOutput struct {
	File        string                     `json:"file,omitempty"`
	Pages       int                        `json:"pages"`
	Candidates  []models.QuestionCandidate `json:"candidates"`
	BatchErrors []string                   `json:"batch_errors,omitempty"`
	Discards    []extraction.Discard       `json:"discards,omitempty"`
}

func newExtractOutput(file string, result *extraction.Result) *extractOutput {
	out := &extractOutput{
		File:       file,
		Pages:      result.Pages,
		Candidates: result.Candidates,
		Discards:   result.Discards,
	}
	if out.Candidates == nil {
		out.Candidates = []models.QuestionCandidate{}
	}
	for _, be := range result.BatchErrors {
		out.BatchErrors = append(out.BatchErrors, be.Error())
	}
	return out
}

// writeJSON writes v to path, or stdout when path is empty
func writeJSON(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// readInput reads path, or stdin for "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
