package recovery

import (
	"context"

	"go.uber.org/zap"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueRepo "github.com/gitbounty/gitbounty/internal/issue/repository"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

// Overrider reattaches up-to-date account data onto denormalized issue
// references. Used by the operator CLI after an account changes its avatar
// or relinks Discord.
type Overrider struct {
	issues issueService.Service
	store  issueRepo.Repository
	users  userRepo.Repository
	logger *zap.SugaredLogger
}

// NewOverrider creates a new overrider instance.
func NewOverrider(issues issueService.Service, store issueRepo.Repository, users userRepo.Repository, logger *zap.SugaredLogger) *Overrider {
	return &Overrider{
		issues: issues,
		store:  store,
		users:  users,
		logger: logger,
	}
}

// OverrideAssignee refreshes the avatar of one login across every issue it
// is assigned to. Returns the number of issues updated.
func (o *Overrider) OverrideAssignee(ctx context.Context, login string) (int, error) {
	user, err := o.users.GetByLogin(ctx, login)
	if err != nil {
		return 0, err
	}

	issues, err := o.store.ListByAssignee(ctx, login)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, issue := range issues {
		assignees := make([]issueModel.Assignee, len(issue.Assignees))
		copy(assignees, issue.Assignees)
		for idx := range assignees {
			if assignees[idx].Login == login {
				assignees[idx].AvatarURL = user.AvatarURL
			}
		}

		if _, err := o.issues.CreateOrUpdate(ctx, &issueModel.IssueBody{
			IssueID:   issue.IssueID,
			Assignees: assignees,
		}); err != nil {
			o.logger.Errorw("assignee override failed", "issue_id", issue.IssueID, "error", err)
			continue
		}
		updated++
	}

	o.logger.Infow("assignee override finished", "login", login, "issues", updated)
	return updated, nil
}

// OverrideManager refreshes the avatar of one login across every issue it
// manages. Returns the number of issues updated.
func (o *Overrider) OverrideManager(ctx context.Context, login string) (int, error) {
	user, err := o.users.GetByLogin(ctx, login)
	if err != nil {
		return 0, err
	}

	issues, err := o.store.ListByManager(ctx, login)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, issue := range issues {
		if _, err := o.issues.CreateOrUpdate(ctx, &issueModel.IssueBody{
			IssueID: issue.IssueID,
			Managers: []issueModel.UserRef{{
				Login:     login,
				AvatarURL: user.AvatarURL,
			}},
		}); err != nil {
			o.logger.Errorw("manager override failed", "issue_id", issue.IssueID, "error", err)
			continue
		}
		updated++
	}

	o.logger.Infow("manager override finished", "login", login, "issues", updated)
	return updated, nil
}
