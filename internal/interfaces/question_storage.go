package interfaces

import (
	"context"

	"github.com/ternarybob/qbank/internal/models"
)

// QuestionFilter narrows List results; zero values match everything
type QuestionFilter struct {
	Chapter models.Chapter
	Source  string
	Limit   int
	Offset  int
}

// QuestionStorage persists reviewed questions
type QuestionStorage interface {
	SaveQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, filter *QuestionFilter) ([]*models.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	CountQuestions(ctx context.Context) (int, error)
}

// StorageManager owns the database and hands out the typed stores
type StorageManager interface {
	QuestionStorage() QuestionStorage
	Close() error
}
