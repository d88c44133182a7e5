// Package repository provides data access layer for the issue module.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
)

// Repository defines the interface for issue data access operations.
type Repository interface {
	// CreateOrUpdate upserts an issue keyed by its external issue_id.
	// Absent body fields leave the stored record untouched.
	CreateOrUpdate(ctx context.Context, body *issueModel.IssueBody) (*issueModel.Issue, error)

	// GetByIssueID finds an issue by its external id.
	GetByIssueID(ctx context.Context, issueID string) (*issueModel.Issue, error)

	// GetByNumberAndRepository finds an issue by number within a repository.
	GetByNumberAndRepository(ctx context.Context, number int, repositoryID string) (*issueModel.Issue, error)

	// ListByRepository returns all issues of a repository.
	ListByRepository(ctx context.Context, repositoryID string) ([]issueModel.Issue, error)

	// ListByOwner returns all issues under an owner login (org or user).
	ListByOwner(ctx context.Context, ownerLogin string) ([]issueModel.Issue, error)

	// ListByAssignee returns all issues a login is assigned to.
	ListByAssignee(ctx context.Context, login string) ([]issueModel.Issue, error)

	// ListByManager returns all issues a login manages.
	ListByManager(ctx context.Context, login string) ([]issueModel.Issue, error)

	// SetPrivateByRepository updates the denormalized privacy flag of every
	// issue in a repository.
	SetPrivateByRepository(ctx context.Context, repositoryID string, private bool) error

	// DeleteByIssueID removes an issue by its external id.
	DeleteByIssueID(ctx context.Context, issueID string) error
}

type repository struct {
	db *gorm.DB
}

// New creates a new issue repository instance.
func New(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateOrUpdate upserts an issue keyed by its external issue_id.
func (r *repository) CreateOrUpdate(ctx context.Context, body *issueModel.IssueBody) (*issueModel.Issue, error) {
	if body == nil || body.IssueID == "" {
		return nil, issueModel.ErrInvalidIssueID
	}

	existing, err := r.GetByIssueID(ctx, body.IssueID)
	if err != nil {
		if !errors.Is(err, issueModel.ErrIssueNotFound) {
			return nil, err
		}
		issue := issueModel.NewIssue(body)
		if createErr := r.db.WithContext(ctx).Create(issue).Error; createErr != nil {
			// A concurrent delivery may have created the record between the
			// lookup and the insert; fall through to the update path.
			if !isDuplicateError(createErr) {
				return nil, createErr
			}
			existing, err = r.GetByIssueID(ctx, body.IssueID)
			if err != nil {
				return nil, err
			}
		} else {
			return issue, nil
		}
	}

	existing.Apply(body)
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// isDuplicateError checks if error is a unique constraint violation.
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return containsAny(msg, "duplicate key", "UNIQUE constraint")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if len(sub) > 0 && indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// GetByIssueID finds an issue by its external id.
func (r *repository) GetByIssueID(ctx context.Context, issueID string) (*issueModel.Issue, error) {
	var issue issueModel.Issue
	err := r.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		First(&issue).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, issueModel.ErrIssueNotFound
		}
		return nil, err
	}

	return &issue, nil
}

// GetByNumberAndRepository finds an issue by number within a repository.
func (r *repository) GetByNumberAndRepository(ctx context.Context, number int, repositoryID string) (*issueModel.Issue, error) {
	var issue issueModel.Issue
	err := r.db.WithContext(ctx).
		Where("number = ? AND repository_id = ?", number, repositoryID).
		First(&issue).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, issueModel.ErrIssueNotFound
		}
		return nil, err
	}

	return &issue, nil
}

// ListByRepository returns all issues of a repository.
func (r *repository) ListByRepository(ctx context.Context, repositoryID string) ([]issueModel.Issue, error) {
	var issues []issueModel.Issue
	err := r.db.WithContext(ctx).
		Where("repository_id = ?", repositoryID).
		Order("number ASC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

// ListByOwner returns all issues under an owner login.
func (r *repository) ListByOwner(ctx context.Context, ownerLogin string) ([]issueModel.Issue, error) {
	var issues []issueModel.Issue
	err := r.db.WithContext(ctx).
		Where("owner_login = ?", ownerLogin).
		Order("number ASC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

// ListByAssignee returns all issues a login is assigned to. The assignee
// list is stored as a JSON text column, so the match is a containment scan
// that works on both postgres and sqlite.
func (r *repository) ListByAssignee(ctx context.Context, login string) ([]issueModel.Issue, error) {
	var issues []issueModel.Issue
	pattern := `%"login":"` + login + `"%`
	err := r.db.WithContext(ctx).
		Where("assignees LIKE ?", pattern).
		Find(&issues).Error
	if err != nil {
		return nil, err
	}

	// The LIKE pattern can also match manager entries in adjacent columns or
	// escaped fragments; filter precisely in memory.
	matched := make([]issueModel.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.HasAssignee(login) {
			matched = append(matched, issue)
		}
	}
	return matched, nil
}

// ListByManager returns all issues a login manages, with the same
// containment-scan approach as ListByAssignee.
func (r *repository) ListByManager(ctx context.Context, login string) ([]issueModel.Issue, error) {
	var issues []issueModel.Issue
	pattern := `%"login":"` + login + `"%`
	err := r.db.WithContext(ctx).
		Where("managers LIKE ?", pattern).
		Find(&issues).Error
	if err != nil {
		return nil, err
	}

	matched := make([]issueModel.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.HasManager(login) {
			matched = append(matched, issue)
		}
	}
	return matched, nil
}

// SetPrivateByRepository updates the denormalized privacy flag of every
// issue in a repository.
func (r *repository) SetPrivateByRepository(ctx context.Context, repositoryID string, private bool) error {
	return r.db.WithContext(ctx).
		Model(&issueModel.Issue{}).
		Where("repository_id = ?", repositoryID).
		Update("private", private).Error
}

// DeleteByIssueID removes an issue by its external id.
func (r *repository) DeleteByIssueID(ctx context.Context, issueID string) error {
	result := r.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Delete(&issueModel.Issue{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return issueModel.ErrIssueNotFound
	}
	return nil
}
