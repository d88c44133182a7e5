// Package service provides business logic layer for the issue module.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	"github.com/gitbounty/gitbounty/internal/issue/repository"
)

// Recalculator schedules aggregate recomputation after an issue mutation.
// Recomputation is detached: it carries no ordering guarantee relative to
// the mutating call's return.
type Recalculator interface {
	Enqueue(issue *issueModel.Issue)
}

// Service defines the interface for issue business logic operations.
type Service interface {
	// CreateOrUpdate upserts an issue and schedules aggregate recomputation.
	CreateOrUpdate(ctx context.Context, body *issueModel.IssueBody) (*issueModel.Issue, error)

	// GetByIssueID finds an issue by its external id.
	GetByIssueID(ctx context.Context, issueID string) (*issueModel.Issue, error)

	// GetByNumberAndRepository finds an issue by number within a repository.
	GetByNumberAndRepository(ctx context.Context, number int, repositoryID string) (*issueModel.Issue, error)

	// SetPrice updates the bounty price of an existing issue and records the
	// setter as a manager.
	SetPrice(ctx context.Context, issueID string, price int, manager issueModel.UserRef) (*issueModel.Issue, error)

	// AttachThread persists the Discord thread identity onto an issue.
	AttachThread(ctx context.Context, issueID string, thread *issueModel.Thread) (*issueModel.Issue, error)

	// MarkSolved marks an issue solved. Idempotent: returns changed=false
	// when the issue was already solved.
	MarkSolved(ctx context.Context, issueID string, solvedAt time.Time) (issue *issueModel.Issue, changed bool, err error)

	// MarkAssigneeRewarded marks one assignee's reward as confirmed. When
	// every assignee has confirmed, the issue-level rewarded flag is set.
	MarkAssigneeRewarded(ctx context.Context, issueID, login string) (*issueModel.Issue, error)

	// SetPrivateByRepository updates the denormalized privacy flag of every
	// issue in a repository.
	SetPrivateByRepository(ctx context.Context, repositoryID string, private bool) error

	// Delete removes an issue (issue transferred or repository removed).
	Delete(ctx context.Context, issueID string) error
}

type service struct {
	repo   repository.Repository
	stats  Recalculator
	logger *zap.SugaredLogger
}

// New creates a new issue service instance.
func New(repo repository.Repository, stats Recalculator, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		stats:  stats,
		logger: logger,
	}
}

// CreateOrUpdate upserts an issue and schedules aggregate recomputation.
func (s *service) CreateOrUpdate(ctx context.Context, body *issueModel.IssueBody) (*issueModel.Issue, error) {
	issue, err := s.repo.CreateOrUpdate(ctx, body)
	if err != nil {
		s.logger.Errorw("issue upsert failed", "issue_id", body.IssueID, "error", err)
		return nil, err
	}

	s.recalculate(issue)
	return issue, nil
}

// GetByIssueID finds an issue by its external id.
func (s *service) GetByIssueID(ctx context.Context, issueID string) (*issueModel.Issue, error) {
	return s.repo.GetByIssueID(ctx, issueID)
}

// GetByNumberAndRepository finds an issue by number within a repository.
func (s *service) GetByNumberAndRepository(ctx context.Context, number int, repositoryID string) (*issueModel.Issue, error) {
	return s.repo.GetByNumberAndRepository(ctx, number, repositoryID)
}

// SetPrice updates the bounty price of an existing issue and records the
// setter as a manager (idempotent append).
func (s *service) SetPrice(ctx context.Context, issueID string, price int, manager issueModel.UserRef) (*issueModel.Issue, error) {
	if price < 0 {
		return nil, issueModel.ErrNegativePrice
	}

	// SetPrice is an update, never a create: a /price comment on an issue
	// the mirror has not seen yet is a not-found condition for the caller.
	if _, err := s.repo.GetByIssueID(ctx, issueID); err != nil {
		return nil, err
	}

	issue, err := s.repo.CreateOrUpdate(ctx, &issueModel.IssueBody{
		IssueID:  issueID,
		Price:    &price,
		Managers: []issueModel.UserRef{manager},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("issue price updated",
		"issue_id", issueID,
		"price", price,
		"manager", manager.Login,
	)

	s.recalculate(issue)
	return issue, nil
}

// AttachThread persists the Discord thread identity onto an issue.
func (s *service) AttachThread(ctx context.Context, issueID string, thread *issueModel.Thread) (*issueModel.Issue, error) {
	if _, err := s.repo.GetByIssueID(ctx, issueID); err != nil {
		return nil, err
	}
	return s.repo.CreateOrUpdate(ctx, &issueModel.IssueBody{
		IssueID: issueID,
		Thread:  thread,
	})
}

// MarkSolved marks an issue solved.
func (s *service) MarkSolved(ctx context.Context, issueID string, solvedAt time.Time) (*issueModel.Issue, bool, error) {
	issue, err := s.repo.GetByIssueID(ctx, issueID)
	if err != nil {
		return nil, false, err
	}
	if issue.Solved {
		return issue, false, nil
	}

	solved := true
	closed := "closed"
	issue, err = s.repo.CreateOrUpdate(ctx, &issueModel.IssueBody{
		IssueID:  issueID,
		Solved:   &solved,
		State:    &closed,
		SolvedAt: &solvedAt,
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Infow("issue marked solved", "issue_id", issueID, "number", issue.Number)
	s.recalculate(issue)
	return issue, true, nil
}

// MarkAssigneeRewarded marks one assignee's reward as confirmed.
func (s *service) MarkAssigneeRewarded(ctx context.Context, issueID, login string) (*issueModel.Issue, error) {
	issue, err := s.repo.GetByIssueID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if !issue.Solved {
		return nil, issueModel.ErrIssueNotSolved
	}

	found := false
	assignees := make([]issueModel.Assignee, len(issue.Assignees))
	copy(assignees, issue.Assignees)
	for idx := range assignees {
		if assignees[idx].Login != login {
			continue
		}
		if assignees[idx].Rewarded {
			return nil, issueModel.ErrAlreadyRewarded
		}
		assignees[idx].Rewarded = true
		found = true
	}
	if !found {
		return nil, issueModel.ErrNotAnAssignee
	}

	body := &issueModel.IssueBody{
		IssueID:   issueID,
		Assignees: assignees,
	}
	if (&issueModel.Issue{Assignees: assignees}).AllAssigneesRewarded() {
		rewarded := true
		body.Rewarded = &rewarded
	}

	issue, err = s.repo.CreateOrUpdate(ctx, body)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("assignee reward confirmed",
		"issue_id", issueID,
		"assignee", login,
		"issue_rewarded", issue.Rewarded,
	)

	s.recalculate(issue)
	return issue, nil
}

// SetPrivateByRepository updates the denormalized privacy flag of every
// issue in a repository.
func (s *service) SetPrivateByRepository(ctx context.Context, repositoryID string, private bool) error {
	return s.repo.SetPrivateByRepository(ctx, repositoryID, private)
}

// Delete removes an issue.
func (s *service) Delete(ctx context.Context, issueID string) error {
	return s.repo.DeleteByIssueID(ctx, issueID)
}

func (s *service) recalculate(issue *issueModel.Issue) {
	if s.stats == nil {
		return
	}
	s.stats.Enqueue(issue)
}
