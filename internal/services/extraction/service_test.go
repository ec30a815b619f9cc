package extraction

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/llm"
)

func newTestService(model interfaces.VisionModel, pages int) *Service {
	return NewService(Config{
		BatchSize:       2,
		JPEGQuality:     80,
		DiagramPadding:  5,
		QuestionPadding: 150,
	}, modelFactory(model), rasterizerFor(pages), testClassifier(), testLogger())
}

func TestExtract_BatchErrorIsolation(t *testing.T) {
	model := &scriptedModel{replies: []reply{
		{text: `[{"number": 2, "type": "Single", "content": "一物體的速度為何？", "options": ["(A) 1 m/s", "(B) 2 m/s"],
			"chapter": "第二章.物體的運動", "page_index": 1,
			"box_2d": [100, 100, 300, 500], "full_question_box_2d": [50, 0, 400, 1000]}]`},
		{err: errors.New("simulated model outage")},
		{text: "```json\n[{\"number\": 1, \"type\": \"Single\", \"content\": \"電流的單位\", \"options\": [\"(A) 安培\", \"(B) 伏特\"], \"chapter\": \"電磁學\"}]\n```"},
	}}
	svc := newTestService(model, 6)

	result, err := svc.Extract(context.Background(), Request{Document: testPDF(t, 6), Type: DocumentPDF, APIKey: "key"})
	require.NoError(t, err)

	require.Len(t, model.requests, 3)
	for _, req := range model.requests {
		assert.Len(t, req.Images, 2)
		assert.True(t, req.JSON)
		assert.Contains(t, req.Prompt, "page_index")
	}

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, 1, result.Candidates[0].Number, "sorted by number across batches")
	assert.Equal(t, 2, result.Candidates[1].Number)

	require.Len(t, result.BatchErrors, 1)
	assert.Equal(t, 2, result.BatchErrors[0].Batch)
	assert.Contains(t, result.BatchErrors[0].Error(), "batch 2 (pages 3-4)")
	assert.Contains(t, result.BatchErrors[0].Error(), "simulated model outage")

	first := result.Candidates[1]
	assert.Equal(t, "batch 1", first.StatusReason)
	assert.Equal(t, 1, first.PageIndex)
	assert.Equal(t, models.ChapterMotion, first.PredictedChapter)
	assert.Equal(t, []string{"1 m/s", "2 m/s"}, first.Options)
	assert.NotNil(t, first.FullPageImage)
	assert.NotNil(t, first.DiagramImage)
	assert.NotNil(t, first.ReferenceImage)
	assert.False(t, bytes.Equal(first.ReferenceImage, first.FullPageImage))

	third := result.Candidates[0]
	assert.Equal(t, "batch 3", third.StatusReason)
	assert.Equal(t, 4, third.PageIndex, "missing page_index resolves to the batch's first page")
	assert.Equal(t, models.ChapterUnclassified, third.PredictedChapter)
	assert.Nil(t, third.DiagramImage)
	assert.Equal(t, third.FullPageImage, third.ReferenceImage, "no question box falls back to the full page")
}

func TestExtract_AllBatchesFail(t *testing.T) {
	model := &scriptedModel{replies: []reply{
		{text: "I cannot help with that."},
		{text: ""},
	}}
	svc := newTestService(model, 3)

	result, err := svc.Extract(context.Background(), Request{Document: testPDF(t, 3), Type: DocumentPDF, APIKey: "key"})
	assert.Nil(t, result)

	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	assert.Contains(t, err.Error(), "batch 1 (pages 1-2)")
	assert.Contains(t, err.Error(), "batch 2 (page 3)")
	assert.False(t, IsConfigurationError(err))
}

func TestExtract_NothingFound(t *testing.T) {
	model := &scriptedModel{replies: []reply{
		{text: `[{"number": 1, "content": "DNA 的雙股螺旋結構", "options": ["(A) a", "(B) b"]}]`},
	}}
	svc := newTestService(model, 1)

	result, err := svc.Extract(context.Background(), Request{Document: testPDF(t, 1), Type: DocumentPDF, APIKey: "key"})
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.BatchErrors)
	require.Len(t, result.Discards, 1)
	assert.Equal(t, 1, result.Discards[0].Number)
	assert.Contains(t, result.Discards[0].Reason, "dna")
}

func TestExtract_Docx(t *testing.T) {
	model := &scriptedModel{replies: []reply{
		{text: `{"number": 7, "type": "Single", "content": "透鏡成像", "options": []}`},
	}}
	svc := newTestService(model, 0)

	result, err := svc.Extract(context.Background(), Request{Document: testDocx(t, nil, 3), Type: DocumentDOCX, APIKey: "key"})
	require.NoError(t, err)

	require.Len(t, model.requests, 1, "docx images form one batch")
	assert.Len(t, model.requests[0].Images, 3)
	assert.NotContains(t, model.requests[0].Prompt, "page_index")

	require.Len(t, result.Candidates, 1)
	c := result.Candidates[0]
	assert.Equal(t, 7, c.Number)
	assert.Equal(t, models.AnswerFill, c.AnswerType)
	assert.Nil(t, c.FullPageImage)
	assert.Nil(t, c.ReferenceImage)
}

func TestExtract_ConfigurationErrors(t *testing.T) {
	model := &scriptedModel{}
	pdf := testPDF(t, 1)

	svc := newTestService(model, 1)
	_, err := svc.Extract(context.Background(), Request{Document: pdf, Type: DocumentPDF})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.True(t, IsConfigurationError(err))

	_, err = svc.Extract(context.Background(), Request{Document: pdf, Type: "xlsx", APIKey: "key"})
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
	assert.True(t, IsConfigurationError(err))

	noRasterizer := NewService(Config{}, modelFactory(model), func() (interfaces.Rasterizer, error) {
		return nil, errors.New("pdftoppm not found")
	}, testClassifier(), testLogger())
	_, err = noRasterizer.Extract(context.Background(), Request{Document: pdf, Type: DocumentPDF, APIKey: "key"})
	assert.True(t, IsConfigurationError(err))

	noModels := NewService(Config{}, func(ctx context.Context, apiKey string) (interfaces.VisionModel, error) {
		return nil, llm.ErrNoModels
	}, rasterizerFor(1), testClassifier(), testLogger())
	_, err = noModels.Extract(context.Background(), Request{Document: pdf, Type: DocumentPDF, APIKey: "key"})
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, llm.ErrNoModels)

	_, err = svc.Extract(context.Background(), Request{Document: []byte("not a pdf"), Type: DocumentPDF, APIKey: "key"})
	assert.Error(t, err)
	assert.False(t, IsConfigurationError(err))

	assert.Empty(t, model.requests)
}

func TestExtract_Cancelled(t *testing.T) {
	model := &scriptedModel{}
	svc := newTestService(model, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Extract(ctx, Request{Document: testPDF(t, 2), Type: DocumentPDF, APIKey: "key"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, model.requests)
}

func TestDetectDocumentType(t *testing.T) {
	got, err := DetectDocumentType("exam.PDF")
	require.NoError(t, err)
	assert.Equal(t, DocumentPDF, got)

	got, err = DetectDocumentType("/tmp/quiz.docx")
	require.NoError(t, err)
	assert.Equal(t, DocumentDOCX, got)

	_, err = DetectDocumentType("notes.doc")
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
}
