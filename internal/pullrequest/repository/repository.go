// Package repository provides data access layer for the pullrequest module.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	prModel "github.com/gitbounty/gitbounty/internal/pullrequest/model"
)

// Repository defines the interface for pullrequest data access operations.
type Repository interface {
	// CreateOrUpdate upserts a pull request keyed by its external id.
	CreateOrUpdate(ctx context.Context, body *prModel.PullRequestBody) (*prModel.PullRequest, error)

	// GetByPullRequestID finds a pull request by its external id.
	GetByPullRequestID(ctx context.Context, pullRequestID string) (*prModel.PullRequest, error)

	// ListByRepository returns all pull requests of a repository.
	ListByRepository(ctx context.Context, repositoryID string) ([]prModel.PullRequest, error)
}

type repository struct {
	db *gorm.DB
}

// New creates a new pullrequest repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateOrUpdate upserts a pull request keyed by its external id.
func (r *repository) CreateOrUpdate(ctx context.Context, body *prModel.PullRequestBody) (*prModel.PullRequest, error) {
	if body == nil || body.PullRequestID == "" {
		return nil, prModel.ErrInvalidPullRequestID
	}

	existing, err := r.GetByPullRequestID(ctx, body.PullRequestID)
	if err != nil {
		if !errors.Is(err, prModel.ErrPullRequestNotFound) {
			return nil, err
		}
		pr := prModel.NewPullRequest(body)
		if createErr := r.db.WithContext(ctx).Create(pr).Error; createErr == nil {
			return pr, nil
		}
		existing, err = r.GetByPullRequestID(ctx, body.PullRequestID)
		if err != nil {
			return nil, err
		}
	}

	existing.Apply(body)
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// GetByPullRequestID finds a pull request by its external id.
func (r *repository) GetByPullRequestID(ctx context.Context, pullRequestID string) (*prModel.PullRequest, error) {
	var pr prModel.PullRequest
	err := r.db.WithContext(ctx).
		Where("pull_request_id = ?", pullRequestID).
		First(&pr).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prModel.ErrPullRequestNotFound
		}
		return nil, err
	}

	return &pr, nil
}

// ListByRepository returns all pull requests of a repository.
func (r *repository) ListByRepository(ctx context.Context, repositoryID string) ([]prModel.PullRequest, error) {
	var prs []prModel.PullRequest
	err := r.db.WithContext(ctx).
		Where("repository_id = ?", repositoryID).
		Order("number ASC").
		Find(&prs).Error
	if err != nil {
		return nil, err
	}
	return prs, nil
}
