package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/classifier"
	"github.com/ternarybob/qbank/internal/services/documents"
	"github.com/ternarybob/qbank/internal/services/imaging"
	"github.com/ternarybob/qbank/internal/services/segmenter"
)

// ErrOCRUnavailable is a configuration error for scanned PDFs without an OCR engine
var ErrOCRUnavailable = fmt.Errorf("%w: no OCR engine available", ErrConfiguration)

// OfflineService extracts candidates without a model: document text is
// recovered (DOCX text or OCR of rendered PDF pages), split at numbered
// anchors and classified by keyword.
type OfflineService struct {
	rasterizer RasterizerFactory
	ocr        interfaces.OCREngine
	classifier *classifier.Classifier
	logger     arbor.ILogger
}

// NewOfflineService creates the no-model pipeline. ocr may be nil when only DOCX input is expected.
func NewOfflineService(rasterizer RasterizerFactory, ocr interfaces.OCREngine, cls *classifier.Classifier, logger arbor.ILogger) *OfflineService {
	return &OfflineService{
		rasterizer: rasterizer,
		ocr:        ocr,
		classifier: cls,
		logger:     logger,
	}
}

// Extract never fails on odd text: no anchors simply means no candidates
func (s *OfflineService) Extract(ctx context.Context, data []byte, docType DocumentType) (*Result, error) {
	var text string
	var pages int
	var err error

	switch docType {
	case DocumentPDF:
		text, pages, err = s.pdfText(ctx, data)
	case DocumentDOCX:
		var doc *documents.DocxDocument
		doc, err = documents.ReadDocx(data)
		if err == nil {
			text = doc.Text()
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDocument, docType)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{
		Candidates: s.Candidates(text),
		Pages:      pages,
	}
	s.logger.Info().
		Str("type", string(docType)).
		Int("candidates", len(result.Candidates)).
		Msg("Offline extraction completed")
	return result, nil
}

// Candidates segments plain text and classifies every chunk
func (s *OfflineService) Candidates(text string) []models.QuestionCandidate {
	chunks := segmenter.Segment(text)
	candidates := make([]models.QuestionCandidate, 0, len(chunks))

	for _, chunk := range chunks {
		stem, options := segmenter.SplitOptions(chunk.Text)
		cls := s.classifier.Classify(stem, options)

		answerType := models.AnswerSingle
		if hasMultiSelectCue(stem) {
			answerType = models.AnswerMulti
		}
		if len(options) == 0 {
			answerType = models.AnswerFill
		}

		if options == nil {
			options = []string{}
		}
		candidates = append(candidates, models.QuestionCandidate{
			Number:           chunk.Number,
			Content:          stem,
			Options:          options,
			AnswerType:       answerType,
			PredictedChapter: cls.Chapter,
			Subject:          models.SubjectPhysics,
			IsPhysicsLikely:  cls.IsPhysicsLikely,
			StatusReason:     cls.Reason,
		})
	}
	return candidates
}

func (s *OfflineService) pdfText(ctx context.Context, data []byte) (string, int, error) {
	if _, err := documents.PageCount(data); err != nil {
		return "", 0, err
	}
	if s.ocr == nil {
		return "", 0, ErrOCRUnavailable
	}

	rasterizer, err := s.rasterizer()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	images, err := rasterizer.Rasterize(ctx, data)
	if err != nil {
		return "", 0, fmt.Errorf("failed to rasterize PDF with %s: %w", rasterizer.Name(), err)
	}

	var texts []string
	var failed []error
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		encoded, err := imaging.EncodeJPEG(img, 95)
		if err != nil {
			failed = append(failed, fmt.Errorf("page %d: %w", i+1, err))
			continue
		}
		pageText, err := s.ocr.Recognize(ctx, encoded)
		if err != nil {
			failed = append(failed, fmt.Errorf("page %d: %w", i+1, err))
			s.logger.Warn().Err(err).Int("page", i+1).Msg("OCR failed for page")
			continue
		}
		texts = append(texts, pageText)
	}

	if len(texts) == 0 && len(failed) > 0 {
		return "", 0, fmt.Errorf("OCR failed on every page: %w", errors.Join(failed...))
	}
	return strings.Join(texts, "\n"), len(images), nil
}
