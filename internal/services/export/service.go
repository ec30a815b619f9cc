// Package export renders stored questions as printable exam and answer sheets
package export

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/models"
)

const unicodeFont = "qbank"

// Service builds exam and answer sheet PDFs
type Service struct {
	config *common.ExportConfig
	logger arbor.ILogger
}

// NewService creates a new export service
func NewService(config *common.ExportConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// ExamSheet renders the questions with their options and images
func (s *Service) ExamSheet(questions []*models.Question) ([]byte, error) {
	markdown, images := ExamMarkdown(s.title(), questions)
	return s.render(markdown, images)
}

// AnswerSheet renders a question number to answer table
func (s *Service) AnswerSheet(questions []*models.Question) ([]byte, error) {
	return s.render(AnswerMarkdown(s.title()+" 解答", questions), nil)
}

func (s *Service) title() string {
	if s.config.Title == "" {
		return "Exam"
	}
	return s.config.Title
}

func (s *Service) render(markdown string, images map[string][]byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)

	font := "Arial"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if s.config.FontPath != "" {
		pdf.AddUTF8Font(unicodeFont, "", s.config.FontPath)
		pdf.AddUTF8Font(unicodeFont, "B", s.config.FontPath)
		if pdf.Err() {
			return nil, fmt.Errorf("failed to load font %s: %w", s.config.FontPath, pdf.Error())
		}
		font = unicodeFont
		translate = func(s string) string { return s }
	} else if needsUnicodeFont(markdown) {
		s.logger.Warn().Msg("No export.font_path configured, CJK text will not render")
	}

	pdf.AddPage()
	pdf.SetFont(font, "", 11)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:       pdf,
		source:    source,
		images:    images,
		logger:    s.logger,
		font:      font,
		size:      11,
		translate: translate,
	}
	if err := renderer.render(doc); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render PDF")
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Int("images", renderer.imageSeq).Msg("PDF generated")
	return buf.Bytes(), nil
}

func needsUnicodeFont(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return true
		}
	}
	return false
}
