package review

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed     = errors.New("review session is closed")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrWrongQuestionType = errors.New("operation not supported by question type")
	ErrInvalidTask       = errors.New("invalid task data")
)

// QuestionError names the question an API call was made for.
type QuestionError struct {
	QuestionID string
	Operation  string
	Err        error
}

func (e *QuestionError) Error() string {
	return fmt.Sprintf("%s on question %q: %v", e.Operation, e.QuestionID, e.Err)
}

func (e *QuestionError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuestionNotFound)
}

// IsClosed checks if error was caused by using a discarded session
func IsClosed(err error) bool {
	return errors.Is(err, ErrSessionClosed)
}
