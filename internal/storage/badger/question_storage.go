package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
	"github.com/ternarybob/qbank/internal/models"
)

// ErrQuestionNotFound is returned by Get and Delete for unknown ids
var ErrQuestionNotFound = errors.New("question not found")

// QuestionStorage implements interfaces.QuestionStorage on badgerhold
type QuestionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQuestionStorage creates a new QuestionStorage instance
func NewQuestionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QuestionStorage {
	return &QuestionStorage{
		db:     db,
		logger: logger,
	}
}

// SaveQuestion inserts or replaces a question. A missing id is generated;
// CreatedAt is kept from the first save.
func (s *QuestionStorage) SaveQuestion(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = common.NewQuestionID()
	}
	if !q.Chapter.IsValid() {
		q.Chapter = models.NormalizeChapter(q.Chapter.String())
	}
	if q.Source == "" {
		q.Source = models.DefaultSource
	}
	q.HasImage = len(q.ImageData) > 0

	now := time.Now()
	if q.CreatedAt.IsZero() {
		var existing models.Question
		if err := s.db.Store().Get(q.ID, &existing); err == nil {
			q.CreatedAt = existing.CreatedAt
		} else {
			q.CreatedAt = now
		}
	}
	q.UpdatedAt = now

	if err := s.db.Store().Upsert(q.ID, q); err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}

	s.logger.Debug().Str("id", q.ID).Str("chapter", q.Chapter.String()).Msg("Question saved")
	return nil
}

func (s *QuestionStorage) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	if err := s.db.Store().Get(id, &q); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &q, nil
}

// ListQuestions returns questions ordered by source then number
func (s *QuestionStorage) ListQuestions(ctx context.Context, filter *interfaces.QuestionFilter) ([]*models.Question, error) {
	query := badgerhold.Where("ID").Ne("")

	if filter != nil {
		if filter.Chapter != "" {
			query = query.And("Chapter").Eq(filter.Chapter)
		}
		if filter.Source != "" {
			query = query.And("Source").Eq(filter.Source)
		}
	}
	query = query.SortBy("Source", "Number")
	if filter != nil {
		if filter.Offset > 0 {
			query = query.Skip(filter.Offset)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	}

	var questions []models.Question
	if err := s.db.Store().Find(&questions, query); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	result := make([]*models.Question, len(questions))
	for i := range questions {
		result[i] = &questions[i]
	}
	return result, nil
}

func (s *QuestionStorage) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Question{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.logger.Debug().Str("id", id).Msg("Question deleted")
	return nil
}

func (s *QuestionStorage) CountQuestions(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Question{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return int(count), nil
}
