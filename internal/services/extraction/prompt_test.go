package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/qbank/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	pdf := BuildPrompt(DocumentPDF)
	docx := BuildPrompt(DocumentDOCX)

	for _, ch := range models.ClassifiedChapters() {
		assert.Contains(t, pdf, ch.String())
		assert.Contains(t, docx, ch.String())
	}
	assert.NotContains(t, pdf, "%!", "no formatting verbs left over")

	assert.Contains(t, pdf, "full_question_box_2d")
	assert.Contains(t, pdf, "page_index")
	assert.NotContains(t, docx, "box_2d")
	assert.NotContains(t, docx, "page_index")
	assert.Contains(t, docx, "sub_questions")
}
