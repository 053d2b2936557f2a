package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// AccountStore removes a user with everything they own.
type AccountStore interface {
	DeleteWithData(ctx context.Context, userID string) error
}

type AccountService struct {
	store AccountStore
}

func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store}
}

// Delete removes the user's books, authors, rate limit counters, run
// progress and finally the user, all or nothing.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	err := s.store.DeleteWithData(ctx, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("delete account: %w", err)
	}
}
