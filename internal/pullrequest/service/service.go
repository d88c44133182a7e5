// Package service provides business logic layer for the pullrequest module.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	prModel "github.com/gitbounty/gitbounty/internal/pullrequest/model"
	"github.com/gitbounty/gitbounty/internal/pullrequest/repository"
)

// SolvedNotifier announces a solved bounty issue to its Discord thread and
// posts the reward-confirmation control.
type SolvedNotifier interface {
	AnnounceSolved(ctx context.Context, issue *issueModel.Issue) error
}

// Service defines the interface for pullrequest business logic operations.
type Service interface {
	// CreateOrUpdate upserts a pull request.
	CreateOrUpdate(ctx context.Context, body *prModel.PullRequestBody) (*prModel.PullRequest, error)

	// GetByPullRequestID finds a pull request by its external id.
	GetByPullRequestID(ctx context.Context, pullRequestID string) (*prModel.PullRequest, error)

	// HandleMerge marks every issue linked to a merged pull request as
	// solved, exactly once, and announces each newly-solved issue.
	HandleMerge(ctx context.Context, pr *prModel.PullRequest) error
}

type service struct {
	repo     repository.Repository
	issues   issueService.Service
	notifier SolvedNotifier
	logger   *zap.SugaredLogger
}

// New creates a new pullrequest service instance.
func New(repo repository.Repository, issues issueService.Service, notifier SolvedNotifier, logger *zap.SugaredLogger) Service {
	return &service{
		repo:     repo,
		issues:   issues,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateOrUpdate upserts a pull request.
func (s *service) CreateOrUpdate(ctx context.Context, body *prModel.PullRequestBody) (*prModel.PullRequest, error) {
	pr, err := s.repo.CreateOrUpdate(ctx, body)
	if err != nil {
		s.logger.Errorw("pull request upsert failed", "pull_request_id", body.PullRequestID, "error", err)
		return nil, err
	}
	return pr, nil
}

// GetByPullRequestID finds a pull request by its external id.
func (s *service) GetByPullRequestID(ctx context.Context, pullRequestID string) (*prModel.PullRequest, error) {
	return s.repo.GetByPullRequestID(ctx, pullRequestID)
}

// HandleMerge marks every issue linked to a merged pull request as solved.
// An issue already solved by an earlier delivery of the same merge event is
// left untouched and not re-announced.
func (s *service) HandleMerge(ctx context.Context, pr *prModel.PullRequest) error {
	if !pr.Merged {
		return nil
	}

	solvedAt := time.Now().UTC()
	if pr.MergedAt != nil {
		solvedAt = *pr.MergedAt
	}

	for _, number := range pr.LinkedIssues {
		issue, err := s.issues.GetByNumberAndRepository(ctx, number, pr.RepositoryID)
		if err != nil {
			if errors.Is(err, issueModel.ErrIssueNotFound) {
				s.logger.Debugw("merged PR links unknown issue",
					"pull_request_id", pr.PullRequestID,
					"issue_number", number,
				)
				continue
			}
			return err
		}

		issue, changed, err := s.issues.MarkSolved(ctx, issue.IssueID, solvedAt)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}

		if s.notifier != nil {
			if notifyErr := s.notifier.AnnounceSolved(ctx, issue); notifyErr != nil {
				// The mirror is the source of truth; the announcement is
				// best-effort and must not undo the solve.
				s.logger.Errorw("solved announcement failed",
					"issue_id", issue.IssueID,
					"error", notifyErr,
				)
			}
		}
	}

	return nil
}
