// Package users provides database operations for user identities.
//
// Credentials are issued outside this service; a user row only carries the
// API token the auth middleware resolves.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByToken(ctx, token)
package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sjohnston82/tome-tracker1/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create creates a new user with a generated token.
func (r *Repository) Create(ctx context.Context, username, email string) (*entities.User, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user := &entities.User{
		Username: username,
		Email:    email,
		Token:    token,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// EnsureUser returns the user with this username, creating it when absent.
func (r *Repository) EnsureUser(ctx context.Context, username string) (*entities.User, error) {
	user, err := r.GetByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.Create(ctx, username, "")
}

// GetByToken retrieves a user by their token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteWithData removes the user and everything they own in one transaction:
// books, authors, rate limit counters, background run progress, then the user.
func (r *Repository) DeleteWithData(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entities.Book{}).Error; err != nil {
			return fmt.Errorf("delete books: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&entities.Author{}).Error; err != nil {
			return fmt.Errorf("delete authors: %w", err)
		}
		if err := tx.Where("key LIKE ?", "%:"+userID).Delete(&entities.RateLimitCounter{}).Error; err != nil {
			return fmt.Errorf("delete rate limit counters: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&entities.SyncProgress{}).Error; err != nil {
			return fmt.Errorf("delete sync progress: %w", err)
		}
		result := tx.Where("id = ?", userID).Delete(&entities.User{})
		if result.Error != nil {
			return fmt.Errorf("delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
