package extraction

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/classifier"
	"github.com/ternarybob/qbank/internal/services/imaging"
	"github.com/ternarybob/qbank/internal/services/segmenter"
)

// page is a source page: the decoded image for cropping and the JPEG sent to the model
type page struct {
	image image.Image
	jpeg  []byte
}

// batch is a contiguous run of pages sent in one model call
type batch struct {
	number  int // 1-based
	start   int // absolute index of the first page
	pages   []page
	docType DocumentType
}

func (b *batch) firstPage() int { return b.start + 1 }
func (b *batch) lastPage() int  { return b.start + len(b.pages) }

// itemOutcome is either a candidate or the reason the item was dropped
type itemOutcome struct {
	candidate *models.QuestionCandidate
	number    int
	discard   string
}

func discarded(number int, format string, args ...any) itemOutcome {
	return itemOutcome{number: number, discard: fmt.Sprintf(format, args...)}
}

// reconciler turns raw model items into candidates for one batch
type reconciler struct {
	config     Config
	classifier *classifier.Classifier
	batch      *batch
}

func (r *reconciler) reconcile(raw json.RawMessage) itemOutcome {
	var dto itemDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return discarded(0, "unparseable item: %v", err)
	}

	content := dto.Content.String()
	options := cleanOptions(dto.Options.values)

	var subs []models.QuestionCandidate
	for _, rawSub := range dto.SubQuestions {
		if sub, ok := r.subQuestion(rawSub); ok {
			subs = append(subs, sub)
		}
	}

	if content == "" && len(subs) == 0 {
		return discarded(dto.Number.value, "item has no content")
	}

	if hit, ok := r.classifier.Excluded(classifier.CombineText(content, options)); ok {
		return discarded(dto.Number.value, "non-physics keyword %q", hit)
	}

	fields := dto.validated()
	candidate := &models.QuestionCandidate{
		Number:           fields.Number,
		Content:          content,
		Options:          options,
		Answer:           dto.Answer.String(),
		AnswerType:       inferAnswerType(dto.Type.String(), content, options, len(subs) > 0),
		PredictedChapter: models.NormalizeChapter(dto.Chapter.String()),
		Subject:          models.SubjectPhysics,
		IsPhysicsLikely:  true,
		StatusReason:     fmt.Sprintf("batch %d", r.batch.number),
		SubQuestions:     subs,
	}

	if r.batch.docType == DocumentPDF {
		r.attachImages(candidate, &dto, fields)
	}
	return itemOutcome{candidate: candidate, number: candidate.Number}
}

// subQuestion decodes a group member: same rules, no crops, nesting dropped
func (r *reconciler) subQuestion(raw json.RawMessage) (models.QuestionCandidate, bool) {
	var dto itemDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.QuestionCandidate{}, false
	}
	content := dto.Content.String()
	options := cleanOptions(dto.Options.values)
	if content == "" && len(options) == 0 {
		return models.QuestionCandidate{}, false
	}

	answerType := inferAnswerType(dto.Type.String(), content, options, false)
	if answerType == models.AnswerGroup {
		answerType = models.AnswerSingle
		if len(options) == 0 {
			answerType = models.AnswerFill
		}
	}

	return models.QuestionCandidate{
		Number:           dto.validated().Number,
		Content:          content,
		Options:          options,
		Answer:           dto.Answer.String(),
		AnswerType:       answerType,
		PredictedChapter: models.NormalizeChapter(dto.Chapter.String()),
		Subject:          models.SubjectPhysics,
		IsPhysicsLikely:  true,
	}, true
}

// attachImages resolves the batch-local page index and crops the page
func (r *reconciler) attachImages(c *models.QuestionCandidate, dto *itemDTO, fields itemFields) {
	local, ok := dto.PageIndex.integer()
	if !ok || local < 0 || local >= len(r.batch.pages) {
		local = 0
	}
	if len(r.batch.pages) == 0 {
		return
	}
	src := r.batch.pages[local]
	c.PageIndex = r.batch.start + local
	c.FullPageImage = src.jpeg

	if box, ok := imaging.BoxFromSlice(fields.DiagramBox); ok {
		if data, ok := imaging.Crop(src.image, box, imaging.CropOptions{
			PaddingY: r.config.DiagramPadding,
			Quality:  r.config.JPEGQuality,
		}); ok {
			c.DiagramImage = data
		}
	}

	c.ReferenceImage = src.jpeg
	if box, ok := imaging.BoxFromSlice(fields.QuestionBox); ok {
		if data, ok := imaging.Crop(src.image, box, imaging.CropOptions{
			FullWidth: true,
			PaddingY:  r.config.QuestionPadding,
			Quality:   r.config.JPEGQuality,
		}); ok {
			c.ReferenceImage = data
		}
	}
}

// inferAnswerType corrects the model's label: sub-questions make a group,
// 應選…項 cues make a multi-select, and no options make a fill-in
func inferAnswerType(label, stem string, options []string, hasSubs bool) models.AnswerType {
	answerType, ok := models.ParseAnswerType(label)
	if !ok {
		answerType = models.AnswerSingle
	}
	if hasSubs {
		return models.AnswerGroup
	}
	if answerType == models.AnswerGroup {
		return answerType
	}
	if hasMultiSelectCue(stem) {
		answerType = models.AnswerMulti
	}
	if len(options) == 0 {
		answerType = models.AnswerFill
	}
	return answerType
}

func hasMultiSelectCue(stem string) bool {
	idx := strings.Index(stem, "應選")
	if idx < 0 {
		return false
	}
	rest := stem[idx+len("應選"):]
	return strings.ContainsAny(rest, "項二三兩")
}

func cleanOptions(raw []string) []string {
	options := make([]string, 0, len(raw))
	for _, o := range raw {
		if o = segmenter.StripOptionMarker(o); o != "" {
			options = append(options, o)
		}
	}
	return options
}
