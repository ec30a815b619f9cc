package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/app"
	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/extraction"
)

func runExtract(args []string) error {
	fs, g := newFlagSet("extract", "[flags] <exam.pdf|exam.docx>")
	apiKey := fs.String("api-key", "", "Gemini API key (default: QBANK_GEMINI_API_KEY, GEMINI_API_KEY, GOOGLE_API_KEY, then config)")
	offline := fs.Bool("offline", false, "Segment DOCX or OCR text by keyword instead of calling a model")
	output := fs.String("o", "", "Write the candidates JSON to this file (default: stdout)")
	save := fs.Bool("save", false, "Store physics-likely candidates in the question bank")
	source := fs.String("source", "", "Source label for saved questions (default: file name)")
	fs.IntVar(&g.batchSize, "batch-size", 0, "Pages per model request (overrides config)")
	fs.StringVar(&g.rasterizer, "rasterizer", "", "PDF rasterizer: pdftoppm or embedded (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one document path")
	}
	path := fs.Arg(0)

	docType, err := extraction.DetectDocumentType(path)
	if err != nil {
		return err
	}
	data, err := readInput(path)
	if err != nil {
		return err
	}

	config, logger, err := g.setup(*output == "")
	if err != nil {
		return err
	}

	var opts []app.Option
	if !*save {
		opts = append(opts, app.WithoutStorage())
	}
	application, err := app.New(config, logger, opts...)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info().Str("file", path).Str("type", string(docType)).Bool("offline", *offline).Msg("Starting extraction")

	var result *extraction.Result
	if *offline {
		result, err = application.Offline.Extract(ctx, data, docType)
	} else {
		key := common.ResolveGeminiAPIKey(*apiKey, config)
		result, err = application.Extraction.Extract(ctx, extraction.Request{Document: data, Type: docType, APIKey: key})
	}
	if err != nil {
		logExtractionError(logger, err)
		return err
	}

	for _, be := range result.BatchErrors {
		logger.Warn().Int("batch", be.Batch).Err(be.Err).Msg("Batch failed, its pages were skipped")
	}

	if *save {
		label := *source
		if label == "" {
			label = filepath.Base(path)
		}
		saved, err := saveCandidates(ctx, application.Questions(), result.Candidates, label, false, logger)
		if err != nil {
			return err
		}
		logger.Info().Int("saved", saved).Str("source", label).Msg("Candidates stored")
	}

	if err := writeJSON(*output, newExtractOutput(filepath.Base(path), result)); err != nil {
		return err
	}
	if *output != "" {
		logger.Info().
			Str("output", *output).
			Int("candidates", len(result.Candidates)).
			Int("batch_errors", len(result.BatchErrors)).
			Msg("Extraction written")
	}
	return nil
}

func logExtractionError(logger arbor.ILogger, err error) {
	var agg *extraction.AggregateError
	switch {
	case errors.As(err, &agg):
		for _, be := range agg.Errors {
			logger.Error().Int("batch", be.Batch).Err(be.Err).Msg("Batch failed")
		}
	case extraction.IsConfigurationError(err):
		logger.Error().Err(err).Msg("Extraction is not configured")
	default:
		logger.Error().Err(err).Msg("Extraction failed")
	}
}

// saveCandidates converts candidates to records and stores them.
// Unless all is set, candidates not flagged as physics are skipped.
func saveCandidates(ctx context.Context, store interfaces.QuestionStorage, candidates []models.QuestionCandidate, source string, all bool, logger arbor.ILogger) (int, error) {
	saved := 0
	for _, c := range candidates {
		if !all && !c.IsPhysicsLikely {
			logger.Debug().Int("number", c.Number).Str("reason", c.StatusReason).Msg("Skipping non-physics candidate")
			continue
		}
		q := models.NewQuestionFromCandidate(c, source)
		if err := store.SaveQuestion(ctx, &q); err != nil {
			return saved, fmt.Errorf("failed to save question %d: %w", c.Number, err)
		}
		saved++
	}
	return saved, nil
}
