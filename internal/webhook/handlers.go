package webhook

import (
	"context"
	"errors"

	"github.com/google/go-github/v57/github"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	prModel "github.com/gitbounty/gitbounty/internal/pullrequest/model"
	"github.com/gitbounty/gitbounty/internal/price"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
)

const reasonNotEligible = "owner not accepted"

// repositoryEligible gates a repository-scoped event on the onboarding state
// of its owner.
func (r *Router) repositoryEligible(ctx context.Context, repo *github.Repository, org *github.Organization) (bool, error) {
	ownerType := repo.GetOwner().GetType()
	repoID := issueModel.ExternalID(repo.GetNodeID(), repo.GetID())

	orgID := ""
	if org != nil {
		orgID = issueModel.ExternalID(org.GetNodeID(), org.GetID())
	} else if ownerType == repoModel.OwnerTypeOrganization {
		orgID = issueModel.ExternalID(repo.Owner.GetNodeID(), repo.Owner.GetID())
	}

	return r.gate.RepositoryEligible(ctx, ownerType, repoID, orgID)
}

func (r *Router) handleIssues(ctx context.Context, event *github.IssuesEvent) (Result, error) {
	eligible, err := r.repositoryEligible(ctx, event.GetRepo(), event.GetOrg())
	if err != nil {
		return Result{}, err
	}
	if !eligible {
		return Skipped(reasonNotEligible), nil
	}

	issueID := issueModel.ExternalID(event.GetIssue().GetNodeID(), event.GetIssue().GetID())

	switch event.GetAction() {
	case "deleted", "transferred":
		if err := r.issues.Delete(ctx, issueID); err != nil {
			if errors.Is(err, issueModel.ErrIssueNotFound) {
				return Skipped("issue not mirrored"), nil
			}
			return Result{}, err
		}
		return Handled(), nil

	case "opened", "edited", "closed", "reopened", "labeled", "unlabeled", "assigned", "unassigned":
		body := issueModel.BodyFromWebhook(event.GetIssue(), event.GetRepo())
		issue, err := r.issues.CreateOrUpdate(ctx, body)
		if err != nil {
			return Result{}, err
		}

		login := event.GetAssignee().GetLogin()
		if r.threads != nil && login != "" {
			var threadErr error
			switch event.GetAction() {
			case "assigned":
				threadErr = r.threads.AddAssignee(ctx, issue, login)
			case "unassigned":
				threadErr = r.threads.RemoveAssignee(ctx, issue, login)
			}
			if threadErr != nil {
				// Thread membership is a side channel; a failed invite must
				// not fail the mirror update.
				r.logger.Errorw("thread membership update failed",
					"issue_id", issue.IssueID,
					"login", login,
					"error", threadErr,
				)
			}
		}
		return Handled(), nil

	default:
		return Skipped("unhandled issues action"), nil
	}
}

func (r *Router) handleIssueComment(ctx context.Context, event *github.IssueCommentEvent) (Result, error) {
	if event.GetAction() != "created" {
		return Skipped("unhandled issue_comment action"), nil
	}

	eligible, err := r.repositoryEligible(ctx, event.GetRepo(), event.GetOrganization())
	if err != nil {
		return Result{}, err
	}
	if !eligible {
		return Skipped(reasonNotEligible), nil
	}

	// Refresh the mirror from the embedded issue before touching the price,
	// covering deliveries that arrive ahead of the issue's own events.
	body := issueModel.BodyFromWebhook(event.GetIssue(), event.GetRepo())
	issue, err := r.issues.CreateOrUpdate(ctx, body)
	if err != nil {
		return Result{}, err
	}

	author := issueModel.UserRef{Login: issueModel.GhostLogin}
	if user := event.GetComment().GetUser(); user != nil {
		author = issueModel.UserRef{
			Login:     user.GetLogin(),
			AvatarURL: user.GetAvatarURL(),
		}
	}

	repo := event.GetRepo()
	outcome, err := r.price.HandleComment(ctx, priceRequest(event, issue, author, repo))
	if err != nil {
		return Result{}, err
	}
	if !outcome.Applied {
		return Skipped(outcome.Reason), nil
	}
	return Handled(), nil
}

func (r *Router) handlePullRequest(ctx context.Context, event *github.PullRequestEvent) (Result, error) {
	switch event.GetAction() {
	case "opened", "reopened", "edited", "closed":
	default:
		return Skipped("unhandled pull_request action"), nil
	}

	eligible, err := r.repositoryEligible(ctx, event.GetRepo(), event.GetOrganization())
	if err != nil {
		return Result{}, err
	}
	if !eligible {
		return Skipped(reasonNotEligible), nil
	}

	repo := event.GetRepo()
	var linked []int
	if r.linker != nil {
		linked, err = r.linker.LinkedIssues(ctx, repo.GetOwner().GetLogin(), repo.GetName(), event.GetPullRequest().GetNumber())
		if err != nil {
			// The linkage is re-resolved on the next event and by recovery.
			r.logger.Errorw("linked issue lookup failed",
				"pull_request", event.GetPullRequest().GetNumber(),
				"error", err,
			)
			linked = nil
		}
	}

	body := prModel.BodyFromWebhook(event.GetPullRequest(), repo, linked)
	pr, err := r.prs.CreateOrUpdate(ctx, body)
	if err != nil {
		return Result{}, err
	}

	if event.GetAction() == "closed" && event.GetPullRequest().GetMerged() {
		if err := r.prs.HandleMerge(ctx, pr); err != nil {
			return Result{}, err
		}
	}
	return Handled(), nil
}

func (r *Router) handleOrganization(ctx context.Context, event *github.OrganizationEvent) (Result, error) {
	action := event.GetAction()
	if action != "member_added" && action != "member_removed" {
		return Skipped("unhandled organization action"), nil
	}

	orgID := issueModel.ExternalID(event.GetOrganization().GetNodeID(), event.GetOrganization().GetID())
	eligible, err := r.gate.OrganizationEligible(ctx, orgID)
	if err != nil {
		return Result{}, err
	}
	if !eligible {
		return Skipped(reasonNotEligible), nil
	}

	org, err := r.orgs.GetByOrganizationID(ctx, orgID)
	if err != nil {
		return Result{}, err
	}

	login := event.GetMembership().GetUser().GetLogin()
	roster := make([]orgModel.Member, 0, len(org.Members)+1)
	for _, member := range org.Members {
		if member.Login != login {
			roster = append(roster, member)
		}
	}
	if action == "member_added" {
		roster = append(roster, orgModel.Member{
			Login:     login,
			AvatarURL: event.GetMembership().GetUser().GetAvatarURL(),
			Role:      event.GetMembership().GetRole(),
		})
	}

	if _, err := r.orgs.CreateOrUpdate(ctx, &orgModel.OrganizationBody{
		OrganizationID: orgID,
		Members:        roster,
	}); err != nil {
		return Result{}, err
	}
	return Handled(), nil
}

func (r *Router) handleStar(ctx context.Context, event *github.StarEvent) (Result, error) {
	eligible, err := r.repositoryEligible(ctx, event.GetRepo(), nil)
	if err != nil {
		return Result{}, err
	}
	if !eligible {
		return Skipped(reasonNotEligible), nil
	}

	if _, err := r.repos.CreateOrUpdate(ctx, repoModel.BodyFromWebhook(event.GetRepo())); err != nil {
		return Result{}, err
	}
	return Handled(), nil
}

func (r *Router) handleMember(ctx context.Context, event *github.MemberEvent) (Result, error) {
	action := event.GetAction()
	if action != "added" && action != "removed" {
		return Skipped("unhandled member action"), nil
	}

	eligible, err := r.repositoryEligible(ctx, event.GetRepo(), nil)
	if err != nil {
		return Result{}, err
	}
	if !eligible {
		return Skipped(reasonNotEligible), nil
	}

	repoID := issueModel.ExternalID(event.GetRepo().GetNodeID(), event.GetRepo().GetID())
	repo, err := r.repos.GetByRepositoryID(ctx, repoID)
	if err != nil {
		if errors.Is(err, repoModel.ErrRepositoryNotFound) {
			return Skipped("repository not mirrored"), nil
		}
		return Result{}, err
	}

	login := event.GetMember().GetLogin()
	// GitHub redelivers member events; a roster that already reflects the
	// change needs no write.
	if repo.HasCollaborator(login) == (action == "added") {
		return Skipped("collaborator roster already current"), nil
	}

	collaborators := make([]string, 0, len(repo.Collaborators)+1)
	for _, c := range repo.Collaborators {
		if c != login {
			collaborators = append(collaborators, c)
		}
	}
	if action == "added" {
		collaborators = append(collaborators, login)
	}

	if _, err := r.repos.CreateOrUpdate(ctx, &repoModel.RepositoryBody{
		RepositoryID:  repoID,
		Collaborators: collaborators,
	}); err != nil {
		return Result{}, err
	}
	return Handled(), nil
}

func (r *Router) handleRepository(ctx context.Context, event *github.RepositoryEvent) (Result, error) {
	action := event.GetAction()
	if action != "privatized" && action != "publicized" {
		return Skipped("unhandled repository action"), nil
	}

	eligible, err := r.repositoryEligible(ctx, event.GetRepo(), nil)
	if err != nil {
		return Result{}, err
	}
	if !eligible {
		return Skipped(reasonNotEligible), nil
	}

	repoID := issueModel.ExternalID(event.GetRepo().GetNodeID(), event.GetRepo().GetID())
	private := action == "privatized"

	if _, err := r.repos.CreateOrUpdate(ctx, &repoModel.RepositoryBody{
		RepositoryID: repoID,
		Private:      &private,
	}); err != nil {
		return Result{}, err
	}
	if err := r.issues.SetPrivateByRepository(ctx, repoID, private); err != nil {
		return Result{}, err
	}
	return Handled(), nil
}

// handleInstallation registers the installing account and its repositories
// in the pending state. Installation events are the onboarding entry point
// and are therefore not gated; mutation of issues stays blocked until the
// review flow accepts the owner.
func (r *Router) handleInstallation(ctx context.Context, event *github.InstallationEvent) (Result, error) {
	if event.GetAction() != "created" {
		return Skipped("unhandled installation action"), nil
	}

	account := event.GetInstallation().GetAccount()
	accountID := issueModel.ExternalID(account.GetNodeID(), account.GetID())

	if account.GetType() == repoModel.OwnerTypeOrganization {
		if _, err := r.orgs.CreateOrUpdate(ctx, &orgModel.OrganizationBody{
			OrganizationID: accountID,
			Title:          github.String(account.GetLogin()),
			AvatarURL:      github.String(account.GetAvatarURL()),
		}); err != nil {
			return Result{}, err
		}
	}

	for _, repo := range event.Repositories {
		if err := r.registerInstallationRepository(ctx, repo, account); err != nil {
			return Result{}, err
		}
	}

	r.maybeRecover(ctx, accountID, account.GetLogin())
	return Handled(), nil
}

func (r *Router) handleInstallationRepositories(ctx context.Context, event *github.InstallationRepositoriesEvent) (Result, error) {
	account := event.GetInstallation().GetAccount()

	for _, repo := range event.RepositoriesAdded {
		if err := r.registerInstallationRepository(ctx, repo, account); err != nil {
			return Result{}, err
		}
	}

	deleted := repoModel.StateDeleted
	for _, repo := range event.RepositoriesRemoved {
		repoID := issueModel.ExternalID(repo.GetNodeID(), repo.GetID())
		if _, err := r.repos.CreateOrUpdate(ctx, &repoModel.RepositoryBody{
			RepositoryID: repoID,
			State:        &deleted,
		}); err != nil {
			return Result{}, err
		}
	}

	accountID := issueModel.ExternalID(account.GetNodeID(), account.GetID())
	r.maybeRecover(ctx, accountID, account.GetLogin())
	return Handled(), nil
}

// registerInstallationRepository upserts a repository from the trimmed
// installation payload, which carries no owner block.
func (r *Router) registerInstallationRepository(ctx context.Context, repo *github.Repository, account *github.User) error {
	body := &repoModel.RepositoryBody{
		RepositoryID: issueModel.ExternalID(repo.GetNodeID(), repo.GetID()),
		Name:         github.String(repo.GetName()),
		FullName:     github.String(repo.GetFullName()),
		Private:      github.Bool(repo.GetPrivate()),
		OwnerLogin:   github.String(account.GetLogin()),
		OwnerAvatar:  github.String(account.GetAvatarURL()),
		OwnerType:    github.String(account.GetType()),
	}
	_, err := r.repos.CreateOrUpdate(ctx, body)
	return err
}

// maybeRecover kicks a background recovery crawl when the installing owner
// is already accepted, catching up on history produced while the app was
// not installed.
func (r *Router) maybeRecover(ctx context.Context, accountID, login string) {
	if r.recoverer == nil || login == "" {
		return
	}

	eligible, err := r.gate.InstallationEligible(ctx, accountID, login)
	if err != nil {
		r.logger.Errorw("installation eligibility check failed", "account", login, "error", err)
		return
	}
	if !eligible {
		return
	}

	go func() {
		if err := r.recoverer.RecoverOrganization(context.Background(), login); err != nil {
			r.logger.Errorw("background recovery failed", "account", login, "error", err)
		}
	}()
}

func priceRequest(event *github.IssueCommentEvent, issue *issueModel.Issue, author issueModel.UserRef, repo *github.Repository) price.Request {
	return price.Request{
		CommentBody:    event.GetComment().GetBody(),
		Author:         author,
		IssueID:        issue.IssueID,
		IssueNumber:    issue.Number,
		RepositoryName: repo.GetName(),
		OwnerType:      repo.GetOwner().GetType(),
		OwnerLogin:     repo.GetOwner().GetLogin(),
	}
}
