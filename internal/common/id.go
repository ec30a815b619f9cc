package common

import (
	"github.com/google/uuid"
)

// NewQuestionID generates a unique question ID with the "q_" prefix
// Format: q_<uuid>
func NewQuestionID() string {
	return "q_" + uuid.New().String()
}
