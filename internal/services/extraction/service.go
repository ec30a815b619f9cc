// Package extraction turns exam documents into reviewable question candidates,
// either through a vision model (Service) or offline via OCR and segmentation
// (OfflineService).
package extraction

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/classifier"
	"github.com/ternarybob/qbank/internal/services/documents"
	"github.com/ternarybob/qbank/internal/services/imaging"
	"github.com/ternarybob/qbank/internal/services/llm"
)

// DocumentType is the kind of input document
type DocumentType string

const (
	DocumentPDF  DocumentType = "pdf"
	DocumentDOCX DocumentType = "docx"
)

// DetectDocumentType maps a file name to a DocumentType by extension
func DetectDocumentType(filename string) (DocumentType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return DocumentPDF, nil
	case ".docx":
		return DocumentDOCX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDocument, filepath.Ext(filename))
}

// Request is one extraction call
type Request struct {
	Document []byte
	Type     DocumentType
	APIKey   string
}

// Discard records an item dropped during reconciliation
type Discard struct {
	Batch  int    `json:"batch"`
	Number int    `json:"number"`
	Reason string `json:"reason"`
}

// Result holds every candidate, sorted by question number, and the batches that failed
type Result struct {
	Candidates  []models.QuestionCandidate
	BatchErrors []BatchError
	Discards    []Discard
	Pages       int
}

// Config holds the extraction knobs
type Config struct {
	BatchSize       int
	BatchDelay      time.Duration
	JPEGQuality     int
	MaxPageEdge     int
	DiagramPadding  int
	QuestionPadding int
}

// NewConfig converts the file configuration
func NewConfig(c *common.Config) (Config, error) {
	delay, err := c.BatchDelay()
	if err != nil {
		return Config{}, err
	}
	return Config{
		BatchSize:       c.Extraction.BatchSize,
		BatchDelay:      delay,
		JPEGQuality:     c.Extraction.JPEGQuality,
		MaxPageEdge:     c.Extraction.MaxPageEdge,
		DiagramPadding:  c.Extraction.DiagramPadding,
		QuestionPadding: c.Extraction.QuestionPadding,
	}, nil
}

// ModelFactory builds the vision model (usually a fallback chain) for an API key
type ModelFactory func(ctx context.Context, apiKey string) (interfaces.VisionModel, error)

// RasterizerFactory builds the PDF backend; errors mean the backend is unavailable
type RasterizerFactory func() (interfaces.Rasterizer, error)

// Service runs the vision-model extraction pipeline
type Service struct {
	config     Config
	models     ModelFactory
	rasterizer RasterizerFactory
	classifier *classifier.Classifier
	logger     arbor.ILogger
}

// NewService creates an extraction service
func NewService(config Config, models ModelFactory, rasterizer RasterizerFactory, cls *classifier.Classifier, logger arbor.ILogger) *Service {
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = imaging.DefaultQuality
	}
	return &Service{
		config:     config,
		models:     models,
		rasterizer: rasterizer,
		classifier: cls,
		logger:     logger,
	}
}

// Extract runs the whole pipeline. Configuration problems abort with an error
// wrapping ErrConfiguration; failed batches are recorded and skipped. When
// nothing was extracted and some batch failed the error is an *AggregateError.
func (s *Service) Extract(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if req.Type != DocumentPDF && req.Type != DocumentDOCX {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDocument, req.Type)
	}

	model, err := s.models(ctx, req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	batches, pageCount, err := s.prepareBatches(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("type", string(req.Type)).
		Int("pages", pageCount).
		Int("batches", len(batches)).
		Str("models", model.Name()).
		Msg("Starting extraction")

	result := &Result{Pages: pageCount}
	limiter := newBatchLimiter(s.config.BatchDelay)
	prompt := BuildPrompt(req.Type)

	for _, b := range batches {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		candidates, discards, err := s.processBatch(ctx, model, prompt, b)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			batchErr := BatchError{Batch: b.number, FirstPage: b.firstPage(), LastPage: b.lastPage(), Err: err}
			s.logger.Warn().Err(err).Int("batch", b.number).Msg("Batch failed, continuing")
			result.BatchErrors = append(result.BatchErrors, batchErr)
			continue
		}

		result.Candidates = append(result.Candidates, candidates...)
		result.Discards = append(result.Discards, discards...)
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].Number < result.Candidates[j].Number
	})

	if len(result.Candidates) == 0 && len(result.BatchErrors) > 0 {
		return nil, &AggregateError{Errors: result.BatchErrors}
	}

	s.logger.Info().
		Int("candidates", len(result.Candidates)).
		Int("failed_batches", len(result.BatchErrors)).
		Int("discarded", len(result.Discards)).
		Msg("Extraction completed")
	return result, nil
}

func (s *Service) processBatch(ctx context.Context, model interfaces.VisionModel, prompt string, b *batch) ([]models.QuestionCandidate, []Discard, error) {
	req := &interfaces.VisionRequest{
		Prompt: prompt,
		Images: make([]interfaces.ImagePart, len(b.pages)),
		JSON:   true,
	}
	for i, p := range b.pages {
		req.Images[i] = interfaces.ImagePart{MIMEType: "image/jpeg", Data: p.jpeg}
	}

	start := time.Now()
	text, err := model.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, llm.ErrEmptyResponse
	}

	items, err := decodeResponse(text)
	if err != nil {
		return nil, nil, err
	}

	r := &reconciler{config: s.config, classifier: s.classifier, batch: b}
	var candidates []models.QuestionCandidate
	var discards []Discard
	for _, raw := range items {
		outcome := r.reconcile(raw)
		if outcome.candidate == nil {
			discards = append(discards, Discard{Batch: b.number, Number: outcome.number, Reason: outcome.discard})
			s.logger.Debug().
				Int("batch", b.number).
				Int("number", outcome.number).
				Str("reason", outcome.discard).
				Msg("Discarded extracted item")
			continue
		}
		candidates = append(candidates, *outcome.candidate)
	}

	s.logger.Debug().
		Int("batch", b.number).
		Int("items", len(items)).
		Int("candidates", len(candidates)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch processed")
	return candidates, discards, nil
}

// prepareBatches loads page images and groups them. DOCX images form one batch.
func (s *Service) prepareBatches(ctx context.Context, req Request) ([]*batch, int, error) {
	var pages []page
	var err error

	switch req.Type {
	case DocumentPDF:
		pages, err = s.pdfPages(ctx, req.Document)
	case DocumentDOCX:
		pages, err = s.docxPages(req.Document)
	}
	if err != nil {
		return nil, 0, err
	}
	if len(pages) == 0 {
		return nil, 0, nil
	}

	if req.Type == DocumentDOCX {
		return []*batch{{number: 1, start: 0, pages: pages, docType: req.Type}}, len(pages), nil
	}

	var batches []*batch
	for start := 0; start < len(pages); start += s.config.BatchSize {
		end := min(start+s.config.BatchSize, len(pages))
		batches = append(batches, &batch{
			number:  len(batches) + 1,
			start:   start,
			pages:   pages[start:end],
			docType: req.Type,
		})
	}
	return batches, len(pages), nil
}

func (s *Service) pdfPages(ctx context.Context, data []byte) ([]page, error) {
	if _, err := documents.PageCount(data); err != nil {
		return nil, err
	}

	rasterizer, err := s.rasterizer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	images, err := rasterizer.Rasterize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize PDF with %s: %w", rasterizer.Name(), err)
	}

	pages := make([]page, len(images))
	for i, img := range images {
		encoded, err := imaging.EncodeJPEG(imaging.FitWithin(img, s.config.MaxPageEdge), s.config.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages[i] = page{image: img, jpeg: encoded}
	}
	return pages, nil
}

func (s *Service) docxPages(data []byte) ([]page, error) {
	doc, err := documents.ReadDocx(data)
	if err != nil {
		return nil, err
	}

	images, skipped := doc.JPEGImages(s.config.JPEGQuality)
	if skipped > 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("Skipped embedded images in unsupported formats")
	}
	if len(images) == 0 {
		s.logger.Warn().Msg("Word document has no embedded images to extract from")
	}

	pages := make([]page, len(images))
	for i, img := range images {
		pages[i] = page{jpeg: img}
	}
	return pages, nil
}

// newBatchLimiter paces model calls; the first batch goes immediately
func newBatchLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// IsConfigurationError reports whether err aborted the call before any batch ran
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
