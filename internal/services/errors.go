package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound means the entity does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// ValidationError is malformed input rejected before any work is done.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateIdentifierError is a create or update that would give the user two
// books with the same ISBN-13.
type DuplicateIdentifierError struct {
	ISBN13         string
	ExistingBookID string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("book with ISBN %s already exists (%s)", e.ISBN13, e.ExistingBookID)
}

// RateLimitedError is an action refused until RetryAfter has passed.
type RateLimitedError struct {
	Action     string
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s rate limited, retry in %s", e.Action, e.RetryAfter.Round(time.Second))
}

// notFound maps the store's missing-record error to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
