package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/interfaces"
)

// Manager implements interfaces.StorageManager for Badger
type Manager struct {
	db        *BadgerDB
	questions interfaces.QuestionStorage
	logger    arbor.ILogger
}

// NewManager opens the database and wires the stores
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:        db,
		questions: NewQuestionStorage(db, logger),
		logger:    logger,
	}, nil
}

// QuestionStorage returns the question store
func (m *Manager) QuestionStorage() interfaces.QuestionStorage {
	return m.questions
}

// Close closes the database
func (m *Manager) Close() error {
	return m.db.Close()
}
