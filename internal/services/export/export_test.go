package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/documents"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleQuestions(t *testing.T) []*models.Question {
	return []*models.Question{
		{
			Content: "A ball is thrown upward.\nWhat is its speed at the top?",
			Options: []string{"0 m/s", "9.8 m/s", "*depends*"},
			Answer:  "A",
			Chapter: models.ChapterMotion,
		},
		{
			Content:   "Refer to the circuit.",
			ImageData: pngBytes(t, 40, 20),
			Chapter:   models.ChapterElectromag,
			SubQuestions: []models.Question{
				{Content: "Find the current.", Answer: "2 A"},
				{Content: "Find the power.", Answer: "8 W"},
			},
		},
	}
}

func TestExamMarkdown(t *testing.T) {
	md, images := ExamMarkdown("Unit Test", sampleQuestions(t))

	assert.Contains(t, md, "# Unit Test")
	assert.Contains(t, md, "**1.** A ball is thrown upward.  \nWhat is its speed at the top?")
	assert.Contains(t, md, "(A) 0 m/s  \n(B) 9.8 m/s  \n(C) \\*depends\\*")
	assert.Contains(t, md, "![](qimg:2)")
	assert.Contains(t, md, "**(2)** Find the power.")
	require.Len(t, images, 1)
	assert.NotEmpty(t, images["2"])
}

func TestAnswerMarkdown(t *testing.T) {
	md := AnswerMarkdown("Answers", sampleQuestions(t))

	assert.Contains(t, md, "| 1 | A | 第二章.物體的運動 |")
	assert.Contains(t, md, "| 2 | - | 第四章.電與磁的統一 |")
	assert.Contains(t, md, "| 2-1 | 2 A | |")
	assert.Contains(t, md, "| 2-2 | 8 W | |")
}

func TestEscapeLine(t *testing.T) {
	assert.Equal(t, `\- minus`, escapeLine("- minus"))
	assert.Equal(t, `12\. not a list`, escapeLine("12. not a list"))
	assert.Equal(t, `3\) also not`, escapeLine("3) also not"))
	assert.Equal(t, "12 apples", escapeLine("12 apples"))
	assert.Equal(t, `a \| b`, escapeLine("a | b"))
}

func TestExamSheet(t *testing.T) {
	svc := NewService(&common.ExportConfig{Title: "Physics"}, arbor.NewLogger())

	data, err := svc.ExamSheet(sampleQuestions(t))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))

	pages, err := documents.PageCount(data)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, 1)
}

func TestExamSheet_SkipsUnreadableImage(t *testing.T) {
	svc := NewService(&common.ExportConfig{}, arbor.NewLogger())
	questions := []*models.Question{{Content: "broken", ImageData: []byte("not an image")}}

	data, err := svc.ExamSheet(questions)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExamSheet_ManyImagesPaginate(t *testing.T) {
	svc := NewService(&common.ExportConfig{}, arbor.NewLogger())
	var questions []*models.Question
	for i := 0; i < 12; i++ {
		questions = append(questions, &models.Question{Content: "diagram", ImageData: pngBytes(t, 400, 300)})
	}

	data, err := svc.ExamSheet(questions)
	require.NoError(t, err)

	pages, err := documents.PageCount(data)
	require.NoError(t, err)
	assert.Greater(t, pages, 1)
}

func TestAnswerSheet(t *testing.T) {
	svc := NewService(&common.ExportConfig{}, arbor.NewLogger())

	data, err := svc.AnswerSheet(sampleQuestions(t))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExamSheet_MissingFont(t *testing.T) {
	svc := NewService(&common.ExportConfig{FontPath: "/nonexistent/font.ttf"}, arbor.NewLogger())

	_, err := svc.ExamSheet(sampleQuestions(t))
	assert.Error(t, err)
}
