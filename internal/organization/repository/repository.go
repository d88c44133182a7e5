// Package repository provides data access layer for the organization module.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
)

// Repository defines the interface for organization data access operations.
type Repository interface {
	// CreateOrUpdate upserts an organization keyed by its external id.
	CreateOrUpdate(ctx context.Context, body *orgModel.OrganizationBody) (*orgModel.Organization, error)

	// GetByOrganizationID finds an organization by its external id.
	GetByOrganizationID(ctx context.Context, organizationID string) (*orgModel.Organization, error)

	// GetByTitle finds an organization by its login/title.
	GetByTitle(ctx context.Context, title string) (*orgModel.Organization, error)

	// UpdateTotals writes recomputed aggregate bounty counters.
	UpdateTotals(ctx context.Context, organizationID string, totalIssues, totalRewarded, totalAvailable int) error
}

type repository struct {
	db *gorm.DB
}

// New creates a new organization repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateOrUpdate upserts an organization keyed by its external id.
func (r *repository) CreateOrUpdate(ctx context.Context, body *orgModel.OrganizationBody) (*orgModel.Organization, error) {
	if body == nil || body.OrganizationID == "" {
		return nil, orgModel.ErrInvalidOrganizationID
	}

	existing, err := r.GetByOrganizationID(ctx, body.OrganizationID)
	if err != nil {
		if !errors.Is(err, orgModel.ErrOrganizationNotFound) {
			return nil, err
		}
		org := orgModel.NewOrganization(body)
		if createErr := r.db.WithContext(ctx).Create(org).Error; createErr == nil {
			return org, nil
		}
		existing, err = r.GetByOrganizationID(ctx, body.OrganizationID)
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

// GetByOrganizationID finds an organization by its external id.
func (r *repository) GetByOrganizationID(ctx context.Context, organizationID string) (*orgModel.Organization, error) {
	var org orgModel.Organization
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		First(&org).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orgModel.ErrOrganizationNotFound
		}
		return nil, err
	}

	return &org, nil
}

// GetByTitle finds an organization by its login/title.
func (r *repository) GetByTitle(ctx context.Context, title string) (*orgModel.Organization, error) {
	var org orgModel.Organization
	err := r.db.WithContext(ctx).
		Where("title = ?", title).
		First(&org).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orgModel.ErrOrganizationNotFound
		}
		return nil, err
	}

	return &org, nil
}

// UpdateTotals writes recomputed aggregate bounty counters.
func (r *repository) UpdateTotals(ctx context.Context, organizationID string, totalIssues, totalRewarded, totalAvailable int) error {
	result := r.db.WithContext(ctx).
		Model(&orgModel.Organization{}).
		Where("organization_id = ?", organizationID).
		Updates(map[string]interface{}{
			"total_issues":    totalIssues,
			"total_rewarded":  totalRewarded,
			"total_available": totalAvailable,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return orgModel.ErrOrganizationNotFound
	}
	return nil
}
