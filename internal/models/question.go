package models

import (
	"strings"
	"time"
)

// AnswerType is the inferred shape of a question
type AnswerType string

const (
	AnswerSingle AnswerType = "Single"
	AnswerMulti  AnswerType = "Multi"
	AnswerFill   AnswerType = "Fill"
	AnswerGroup  AnswerType = "Group"
)

// ParseAnswerType maps model and importer spellings onto an AnswerType.
// The boolean is false for unrecognised values.
func ParseAnswerType(s string) (AnswerType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "單選", "单选":
		return AnswerSingle, true
	case "multi", "multiple", "多選", "多选":
		return AnswerMulti, true
	case "fill", "填充", "填空", "非選", "calculation", "計算":
		return AnswerFill, true
	case "group", "題組", "题组":
		return AnswerGroup, true
	}
	return "", false
}

// SubjectPhysics is the only subject candidates are produced for
const SubjectPhysics = "Physics"

// DefaultSource labels questions without an explicit source
const DefaultSource = "一般試題"

// QuestionCandidate is an extracted question pending human review.
// Image fields are independent optionals; nil means absent.
type QuestionCandidate struct {
	Number           int                 `json:"number"`
	Content          string              `json:"content"`
	Options          []string            `json:"options"`
	Answer           string              `json:"answer,omitempty"`
	AnswerType       AnswerType          `json:"answer_type"`
	PredictedChapter Chapter             `json:"predicted_chapter"`
	Subject          string              `json:"subject"`
	IsPhysicsLikely  bool                `json:"is_physics_likely"`
	StatusReason     string              `json:"status_reason,omitempty"`
	DiagramImage     []byte              `json:"diagram_image,omitempty"`
	ReferenceImage   []byte              `json:"reference_image,omitempty"`
	FullPageImage    []byte              `json:"full_page_image,omitempty"`
	SubQuestions     []QuestionCandidate `json:"sub_questions,omitempty"`
	PageIndex        int                 `json:"page_index"` // Absolute source page, 0-based
}

// Question is the persisted question-bank record
type Question struct {
	ID           string     `json:"id"` // q_{uuid}
	Type         AnswerType `json:"type"`
	Source       string     `json:"source" badgerhold:"index"`
	Chapter      Chapter    `json:"chapter" badgerhold:"index"`
	Unit         string     `json:"unit,omitempty"`
	Subject      string     `json:"subject"`
	Number       int        `json:"number"`
	Content      string     `json:"content"`
	Options      []string   `json:"options"`
	Answer       string     `json:"answer"`
	ImageData    []byte     `json:"image_data,omitempty"`
	HasImage     bool       `json:"has_image"`
	SubQuestions []Question `json:"sub_questions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewQuestionFromCandidate converts a reviewed candidate into a storable record.
// The diagram crop is preferred over the reference crop; the full page is never stored.
// ID and timestamps are left for the storage layer.
func NewQuestionFromCandidate(c QuestionCandidate, source string) Question {
	if strings.TrimSpace(source) == "" {
		source = DefaultSource
	}
	subject := c.Subject
	if subject == "" {
		subject = SubjectPhysics
	}

	q := Question{
		Type:    c.AnswerType,
		Source:  source,
		Chapter: NormalizeChapter(string(c.PredictedChapter)),
		Subject: subject,
		Number:  c.Number,
		Content: c.Content,
		Options: append([]string(nil), c.Options...),
		Answer:  c.Answer,
	}

	switch {
	case len(c.DiagramImage) > 0:
		q.ImageData = c.DiagramImage
	case len(c.ReferenceImage) > 0:
		q.ImageData = c.ReferenceImage
	}
	q.HasImage = len(q.ImageData) > 0

	for _, sub := range c.SubQuestions {
		sq := NewQuestionFromCandidate(sub, source)
		sq.SubQuestions = nil
		q.SubQuestions = append(q.SubQuestions, sq)
	}

	return q
}
