package documents

import (
	"strings"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/models"
	"github.com/ternarybob/qbank/internal/services/segmenter"
)

type importState int

const (
	stateNone importState = iota
	stateQuestion
	stateOptions
	stateAnswer
)

// ParseTaggedDocx imports questions from a Word file written with bracket tags:
//
//	[Src:112學測] [Chap:第二章.物體的運動] [Unit:直線運動]
//	[Type:Single]
//	[Q]
//	stem lines...
//	[Opt]
//	(A) option
//	[Ans] B
//
// Src, Chap, Unit (and the older Cat) stay in effect for later questions.
func ParseTaggedDocx(data []byte) ([]models.Question, error) {
	doc, err := ReadDocx(data)
	if err != nil {
		return nil, err
	}
	return parseTagged(doc), nil
}

func parseTagged(doc *DocxDocument) []models.Question {
	var (
		questions []models.Question
		current   *models.Question
		content   []string
		state     = stateNone
		source    = models.DefaultSource
		chapter   string
		unit      string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.Join(content, "\n")
		current.HasImage = len(current.ImageData) > 0
		questions = append(questions, *current)
		current = nil
		content = nil
	}

	for _, p := range doc.Paragraphs {
		text := strings.TrimSpace(p.Text)

		if value, ok := tagValue(text, "[Src:"); ok {
			source = value
			continue
		}
		if value, ok := tagValue(text, "[Chap:"); ok {
			chapter = value
			continue
		}
		if value, ok := tagValue(text, "[Unit:"); ok {
			unit = value
			continue
		}
		if value, ok := tagValue(text, "[Cat:"); ok {
			unit = value
			continue
		}

		if value, ok := tagValue(text, "[Type:"); ok {
			flush()
			qType, known := models.ParseAnswerType(value)
			if !known {
				qType = models.AnswerSingle
			}
			if source == "" {
				source = models.DefaultSource
			}
			current = &models.Question{
				ID:      common.NewQuestionID(),
				Type:    qType,
				Source:  source,
				Chapter: models.NormalizeChapter(chapter),
				Unit:    unit,
				Subject: models.SubjectPhysics,
				Options: []string{},
			}
			state = stateNone
			continue
		}

		switch {
		case strings.HasPrefix(text, "[Q]"):
			state = stateQuestion
			continue
		case strings.HasPrefix(text, "[Opt]"):
			state = stateOptions
			continue
		case strings.HasPrefix(text, "[Ans]"):
			if rest := strings.TrimSpace(strings.TrimPrefix(text, "[Ans]")); rest != "" && current != nil {
				current.Answer = rest
			}
			state = stateAnswer
			continue
		}

		if current == nil {
			continue
		}

		if state == stateQuestion && current.ImageData == nil {
			for _, id := range p.ImageIDs {
				if img, ok := doc.Image(id); ok {
					current.ImageData = img
					break
				}
			}
		}

		if text == "" {
			continue
		}
		switch state {
		case stateQuestion:
			content = append(content, text)
		case stateOptions:
			current.Options = append(current.Options, segmenter.StripOptionMarker(text))
		case stateAnswer:
			current.Answer += text
		}
	}
	flush()

	return questions
}

// tagValue reads "[Name:value]" style header lines
func tagValue(text, prefix string) (string, bool) {
	if !strings.HasPrefix(text, prefix) {
		return "", false
	}
	value := strings.TrimPrefix(text, prefix)
	value = strings.ReplaceAll(value, "]", "")
	return strings.TrimSpace(value), true
}
