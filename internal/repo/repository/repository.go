// Package repository provides data access layer for the repo module.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
)

// Repository defines the interface for repository-mirror data access operations.
type Repository interface {
	// CreateOrUpdate upserts a repository keyed by its external repository_id.
	CreateOrUpdate(ctx context.Context, body *repoModel.RepositoryBody) (*repoModel.Repository, error)

	// GetByRepositoryID finds a repository by its external id.
	GetByRepositoryID(ctx context.Context, repositoryID string) (*repoModel.Repository, error)

	// ListByOwner returns all repositories under an owner login.
	ListByOwner(ctx context.Context, ownerLogin string) ([]repoModel.Repository, error)

	// UpdateTotals writes recomputed aggregate bounty counters.
	UpdateTotals(ctx context.Context, repositoryID string, totalIssues, totalRewarded, totalAvailable int) error
}

type repository struct {
	db *gorm.DB
}

// New creates a new repo repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateOrUpdate upserts a repository keyed by its external repository_id.
func (r *repository) CreateOrUpdate(ctx context.Context, body *repoModel.RepositoryBody) (*repoModel.Repository, error) {
	if body == nil || body.RepositoryID == "" {
		return nil, repoModel.ErrInvalidRepositoryID
	}

	existing, err := r.GetByRepositoryID(ctx, body.RepositoryID)
	if err != nil {
		if !errors.Is(err, repoModel.ErrRepositoryNotFound) {
			return nil, err
		}
		repo := repoModel.NewRepository(body)
		if createErr := r.db.WithContext(ctx).Create(repo).Error; createErr == nil {
			return repo, nil
		}
		existing, err = r.GetByRepositoryID(ctx, body.RepositoryID)
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

// GetByRepositoryID finds a repository by its external id.
func (r *repository) GetByRepositoryID(ctx context.Context, repositoryID string) (*repoModel.Repository, error) {
	var repo repoModel.Repository
	err := r.db.WithContext(ctx).
		Where("repository_id = ?", repositoryID).
		First(&repo).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repoModel.ErrRepositoryNotFound
		}
		return nil, err
	}

	return &repo, nil
}

// ListByOwner returns all repositories under an owner login.
func (r *repository) ListByOwner(ctx context.Context, ownerLogin string) ([]repoModel.Repository, error) {
	var repos []repoModel.Repository
	err := r.db.WithContext(ctx).
		Where("owner_login = ?", ownerLogin).
		Order("name ASC").
		Find(&repos).Error
	if err != nil {
		return nil, err
	}
	return repos, nil
}

// UpdateTotals writes recomputed aggregate bounty counters.
func (r *repository) UpdateTotals(ctx context.Context, repositoryID string, totalIssues, totalRewarded, totalAvailable int) error {
	result := r.db.WithContext(ctx).
		Model(&repoModel.Repository{}).
		Where("repository_id = ?", repositoryID).
		Updates(map[string]interface{}{
			"total_issues":    totalIssues,
			"total_rewarded":  totalRewarded,
			"total_available": totalAvailable,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repoModel.ErrRepositoryNotFound
	}
	return nil
}
