// Package repository provides data access layer for the user module.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	userModel "github.com/gitbounty/gitbounty/internal/user/model"
)

// Repository defines the interface for user data access operations.
type Repository interface {
	// GetByLogin finds a user by GitHub login.
	GetByLogin(ctx context.Context, login string) (*userModel.User, error)

	// GetByGithubID finds a user by GitHub numeric id.
	GetByGithubID(ctx context.Context, githubID int64) (*userModel.User, error)

	// GetByDiscordID finds a user by linked Discord id.
	GetByDiscordID(ctx context.Context, discordID string) (*userModel.User, error)

	// Save persists a user record (created by the account-linking flow).
	Save(ctx context.Context, user *userModel.User) error

	// UpdateTotalEarned writes a recomputed personal reward total.
	UpdateTotalEarned(ctx context.Context, githubLogin string, total int) error
}

type repository struct {
	db *gorm.DB
}

// New creates a new user repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// GetByLogin finds a user by GitHub login.
func (r *repository) GetByLogin(ctx context.Context, login string) (*userModel.User, error) {
	var user userModel.User
	err := r.db.WithContext(ctx).
		Where("login = ?", login).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userModel.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetByGithubID finds a user by GitHub numeric id.
func (r *repository) GetByGithubID(ctx context.Context, githubID int64) (*userModel.User, error) {
	var user userModel.User
	err := r.db.WithContext(ctx).
		Where("github_id = ?", githubID).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userModel.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// GetByDiscordID finds a user by linked Discord id.
func (r *repository) GetByDiscordID(ctx context.Context, discordID string) (*userModel.User, error) {
	var user userModel.User
	err := r.db.WithContext(ctx).
		Where("discord_id = ?", discordID).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userModel.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Save persists a user record.
func (r *repository) Save(ctx context.Context, user *userModel.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateTotalEarned writes a recomputed personal reward total.
func (r *repository) UpdateTotalEarned(ctx context.Context, githubLogin string, total int) error {
	result := r.db.WithContext(ctx).
		Model(&userModel.User{}).
		Where("login = ?", githubLogin).
		Update("total_earned", total)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return userModel.ErrUserNotFound
	}
	return nil
}
