// Package stats recomputes denormalized bounty aggregates.
//
// Recomputation runs as a detached background task after an issue mutation;
// callers get no ordering guarantee relative to the triggering call's
// return. The counters are therefore eventually consistent with the issues
// table, which is the source of truth.
package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueRepo "github.com/gitbounty/gitbounty/internal/issue/repository"
	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
	repoRepo "github.com/gitbounty/gitbounty/internal/repo/repository"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

const recomputeTimeout = 30 * time.Second

// Recalculator recomputes repository, organization and per-user aggregates
// from the issues table.
type Recalculator struct {
	issues issueRepo.Repository
	repos  repoRepo.Repository
	orgs   orgRepo.Repository
	users  userRepo.Repository
	logger *zap.SugaredLogger

	// wg tracks in-flight recomputations so tests can wait for them.
	wg sync.WaitGroup
}

// New creates a new recalculator instance.
func New(issues issueRepo.Repository, repos repoRepo.Repository, orgs orgRepo.Repository, users userRepo.Repository, logger *zap.SugaredLogger) *Recalculator {
	return &Recalculator{
		issues: issues,
		repos:  repos,
		orgs:   orgs,
		users:  users,
		logger: logger,
	}
}

// Enqueue schedules aggregate recomputation for the stores touched by an
// issue mutation and returns immediately.
func (r *Recalculator) Enqueue(issue *issueModel.Issue) {
	if issue == nil {
		return
	}
	snapshot := *issue
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		defer cancel()
		if err := r.Recompute(ctx, &snapshot); err != nil {
			r.logger.Errorw("aggregate recomputation failed",
				"issue_id", snapshot.IssueID,
				"error", err,
			)
		}
	}()
}

// Wait blocks until all scheduled recomputations have finished.
func (r *Recalculator) Wait() {
	r.wg.Wait()
}

// Recompute synchronously recomputes aggregates for the repository, owner
// organization and assignees of one issue.
func (r *Recalculator) Recompute(ctx context.Context, issue *issueModel.Issue) error {
	if issue.RepositoryID != "" {
		if err := r.recomputeRepository(ctx, issue.RepositoryID); err != nil {
			return err
		}
	}
	if issue.OwnerLogin != "" {
		if err := r.recomputeOrganization(ctx, issue.OwnerLogin); err != nil {
			return err
		}
	}
	for _, assignee := range issue.Assignees {
		if err := r.recomputeUser(ctx, assignee.Login); err != nil {
			return err
		}
	}
	return nil
}

// totals derives the aggregate counters from a set of issues: total issue
// count, rewarded bounty (solved issues with a price) and available bounty
// (open, unassigned issues with a price).
func totals(issues []issueModel.Issue) (count, rewarded, available int) {
	count = len(issues)
	for _, issue := range issues {
		if issue.Price <= 0 {
			continue
		}
		if issue.Solved {
			rewarded += issue.Price
		}
		if issue.State == "open" && len(issue.Assignees) == 0 {
			available += issue.Price
		}
	}
	return count, rewarded, available
}

func (r *Recalculator) recomputeRepository(ctx context.Context, repositoryID string) error {
	issues, err := r.issues.ListByRepository(ctx, repositoryID)
	if err != nil {
		return err
	}
	count, rewarded, available := totals(issues)
	err = r.repos.UpdateTotals(ctx, repositoryID, count, rewarded, available)
	if errors.Is(err, repoModel.ErrRepositoryNotFound) {
		// Repository events may lag behind issue events; skip until the
		// repository record shows up.
		return nil
	}
	return err
}

func (r *Recalculator) recomputeOrganization(ctx context.Context, ownerLogin string) error {
	org, err := r.orgs.GetByTitle(ctx, ownerLogin)
	if err != nil {
		if errors.Is(err, orgModel.ErrOrganizationNotFound) {
			return nil
		}
		return err
	}

	issues, err := r.issues.ListByOwner(ctx, ownerLogin)
	if err != nil {
		return err
	}
	count, rewarded, available := totals(issues)
	return r.orgs.UpdateTotals(ctx, org.OrganizationID, count, rewarded, available)
}

func (r *Recalculator) recomputeUser(ctx context.Context, login string) error {
	issues, err := r.issues.ListByAssignee(ctx, login)
	if err != nil {
		return err
	}

	total := 0
	for _, issue := range issues {
		if !issue.Solved || issue.Price <= 0 {
			continue
		}
		for _, assignee := range issue.Assignees {
			if assignee.Login == login && assignee.Rewarded {
				total += issue.Price
			}
		}
	}

	err = r.users.UpdateTotalEarned(ctx, login, total)
	if errors.Is(err, userModel.ErrUserNotFound) {
		// Assignees without a linked account have no local user record.
		return nil
	}
	return err
}
