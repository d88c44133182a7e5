// Package recovery rebuilds the mirror from the live GitHub state.
//
// The crawler is the catch-up path for events that were lost while the app
// was uninstalled or down. Every write goes through the same upsert layer as
// webhook deliveries, so re-crawling an already-consistent organization is a
// no-op.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/gitbounty/gitbounty/internal/githubapi"
	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	prService "github.com/gitbounty/gitbounty/internal/pullrequest/service"
	"github.com/gitbounty/gitbounty/internal/price"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
	repoRepo "github.com/gitbounty/gitbounty/internal/repo/repository"
	"github.com/gitbounty/gitbounty/pkg/retry"
)

// Source is the slice of the GitHub API the crawler reads from. Implemented
// by *githubapi.Client; tests substitute a fake.
type Source interface {
	Organization(ctx context.Context, name string) (*github.Organization, error)
	OrganizationMembers(ctx context.Context, org string) ([]githubapi.OrganizationMember, error)
	OrganizationRepositories(ctx context.Context, org string) ([]*github.Repository, error)
	RepositoryCollaborators(ctx context.Context, owner, repo string) ([]string, error)
	CrawlIssues(ctx context.Context, owner, repo string) ([]githubapi.CrawlIssue, error)
	CrawlPullRequests(ctx context.Context, owner, repo string) ([]githubapi.CrawlPullRequest, error)
}

// Crawler walks an organization's live GitHub state and replays it through
// the upsert layer.
type Crawler struct {
	source Source
	issues issueService.Service
	prs    prService.Service
	repos  repoRepo.Repository
	orgs   orgRepo.Repository
	retry  retry.Config
	logger *zap.SugaredLogger
}

// New creates a new crawler instance.
func New(source Source, issues issueService.Service, prs prService.Service, repos repoRepo.Repository, orgs orgRepo.Repository, logger *zap.SugaredLogger) *Crawler {
	return &Crawler{
		source: source,
		issues: issues,
		prs:    prs,
		repos:  repos,
		orgs:   orgs,
		retry:  retry.DefaultConfig(),
		logger: logger,
	}
}

// RecoverOrganization syncs one organization: metadata, member roster, all
// repositories and their issues and pull requests. Per-repository failures
// are logged and skipped so one broken repository does not abort the sweep.
func (c *Crawler) RecoverOrganization(ctx context.Context, name string) error {
	ghOrg, err := retry.DoWithResult(ctx, c.retry, func() (*github.Organization, error) {
		return c.source.Organization(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch organization: %w", err)
	}

	org, err := c.orgs.CreateOrUpdate(ctx, orgModel.BodyFromWebhook(ghOrg))
	if err != nil {
		return err
	}

	org, err = c.recoverMembers(ctx, org)
	if err != nil {
		return err
	}

	if !org.Accepted() {
		c.logger.Infow("organization not accepted, skipping content recovery", "organization", name)
		return nil
	}

	ghRepos, err := retry.DoWithResult(ctx, c.retry, func() ([]*github.Repository, error) {
		return c.source.OrganizationRepositories(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch repositories: %w", err)
	}

	for _, ghRepo := range ghRepos {
		if err := c.recoverRepository(ctx, org, ghRepo); err != nil {
			c.logger.Errorw("repository recovery failed",
				"organization", name,
				"repository", ghRepo.GetName(),
				"error", err,
			)
		}
	}

	c.logger.Infow("organization recovery finished", "organization", name, "repositories", len(ghRepos))
	return nil
}

func (c *Crawler) recoverMembers(ctx context.Context, org *orgModel.Organization) (*orgModel.Organization, error) {
	members, err := retry.DoWithResult(ctx, c.retry, func() ([]githubapi.OrganizationMember, error) {
		return c.source.OrganizationMembers(ctx, org.Title)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}

	roster := make([]orgModel.Member, 0, len(members))
	for _, m := range members {
		roster = append(roster, orgModel.Member{
			Login:     m.Login,
			AvatarURL: m.AvatarURL,
			Role:      m.Role,
		})
	}

	return c.orgs.CreateOrUpdate(ctx, &orgModel.OrganizationBody{
		OrganizationID: org.OrganizationID,
		Members:        roster,
	})
}

func (c *Crawler) recoverRepository(ctx context.Context, org *orgModel.Organization, ghRepo *github.Repository) error {
	body := repoModel.BodyFromWebhook(ghRepo)
	if body.OwnerLogin == nil {
		body.OwnerLogin = &org.Title
		ownerType := repoModel.OwnerTypeOrganization
		body.OwnerType = &ownerType
	}

	collaborators, err := retry.DoWithResult(ctx, c.retry, func() ([]string, error) {
		return c.source.RepositoryCollaborators(ctx, org.Title, ghRepo.GetName())
	})
	if err != nil {
		c.logger.Warnw("collaborator fetch failed", "repository", ghRepo.GetName(), "error", err)
	} else {
		body.Collaborators = collaborators
	}

	repo, err := c.repos.CreateOrUpdate(ctx, body)
	if err != nil {
		return err
	}

	if err := c.recoverIssues(ctx, org, repo); err != nil {
		return err
	}
	return c.recoverPullRequests(ctx, org, repo)
}

func (c *Crawler) recoverIssues(ctx context.Context, org *orgModel.Organization, repo *repoModel.Repository) error {
	crawled, err := retry.DoWithResult(ctx, c.retry, func() ([]githubapi.CrawlIssue, error) {
		return c.source.CrawlIssues(ctx, org.Title, repo.Name)
	})
	if err != nil {
		return fmt.Errorf("failed to crawl issues: %w", err)
	}

	owner := issueModel.UserRef{Login: org.Title, AvatarURL: org.AvatarURL}
	for idx := range crawled {
		crawlIssue := &crawled[idx]
		body := githubapi.IssueBodyFromCrawl(crawlIssue, repo.RepositoryID, repo.Name, owner, repo.Private)

		issue, err := c.issues.CreateOrUpdate(ctx, body)
		if err != nil {
			c.logger.Errorw("issue recovery failed",
				"repository", repo.Name,
				"issue_number", int(crawlIssue.Number),
				"error", err,
			)
			continue
		}

		c.recoverPrice(ctx, org, issue, crawlIssue.Comments.Nodes)
	}
	return nil
}

// recoverPrice replays the price command history of one issue. The most
// recent authorized /price comment wins, matching what live processing would
// have converged to.
func (c *Crawler) recoverPrice(ctx context.Context, org *orgModel.Organization, issue *issueModel.Issue, comments []githubapi.CrawlComment) {
	found := false
	var latest time.Time
	var amount int
	var setter issueModel.UserRef

	for _, comment := range comments {
		parsed, ok := price.ParsePrice(string(comment.Body))
		if !ok {
			continue
		}
		login := string(comment.Author.Login)
		if !org.HasMember(login) {
			continue
		}
		if found && !comment.CreatedAt.After(latest) {
			continue
		}
		found = true
		latest = comment.CreatedAt.Time
		amount = parsed
		setter = issueModel.UserRef{
			Login:     login,
			AvatarURL: string(comment.Author.AvatarURL),
		}
	}

	if !found {
		return
	}
	if _, err := c.issues.SetPrice(ctx, issue.IssueID, amount, setter); err != nil {
		c.logger.Errorw("price recovery failed", "issue_id", issue.IssueID, "error", err)
	}
}

func (c *Crawler) recoverPullRequests(ctx context.Context, org *orgModel.Organization, repo *repoModel.Repository) error {
	crawled, err := retry.DoWithResult(ctx, c.retry, func() ([]githubapi.CrawlPullRequest, error) {
		return c.source.CrawlPullRequests(ctx, org.Title, repo.Name)
	})
	if err != nil {
		return fmt.Errorf("failed to crawl pull requests: %w", err)
	}

	for idx := range crawled {
		crawlPR := &crawled[idx]
		body := githubapi.PullRequestBodyFromCrawl(crawlPR, repo.RepositoryID, repo.Name)

		pr, err := c.prs.CreateOrUpdate(ctx, body)
		if err != nil {
			c.logger.Errorw("pull request recovery failed",
				"repository", repo.Name,
				"pull_request_number", int(crawlPR.Number),
				"error", err,
			)
			continue
		}

		if pr.Merged {
			if err := c.prs.HandleMerge(ctx, pr); err != nil {
				c.logger.Errorw("merge replay failed",
					"pull_request_id", pr.PullRequestID,
					"error", err,
				)
			}
		}
	}
	return nil
}
