// Package githubapi provides the outbound GitHub REST and GraphQL clients.
package githubapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

const perPage = 100

// Client wraps the REST and GraphQL GitHub APIs behind one handle that is
// constructed once at process start and passed into each component.
type Client struct {
	rest    *github.Client
	graphql *githubv4.Client
}

// New creates a new GitHub client. An empty token yields an unauthenticated
// REST client, which is enough for tests but rate-limited in practice.
func New(token string) *Client {
	var httpClient *http.Client
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), src)
	}

	return &Client{
		rest:    github.NewClient(httpClient),
		graphql: githubv4.NewClient(httpClient),
	}
}

// CreateIssueComment posts a comment on an issue.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	comment := &github.IssueComment{Body: github.String(body)}
	if _, _, err := c.rest.Issues.CreateComment(ctx, owner, repo, number, comment); err != nil {
		return fmt.Errorf("failed to create issue comment: %w", err)
	}
	return nil
}

// Organization fetches organization metadata.
func (c *Client) Organization(ctx context.Context, name string) (*github.Organization, error) {
	org, _, err := c.rest.Organizations.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// OrganizationMember is a roster entry with the membership role resolved.
type OrganizationMember struct {
	Login     string
	ID        int64
	AvatarURL string
	Role      string
}

// OrganizationMembers fetches the full member roster with roles.
func (c *Client) OrganizationMembers(ctx context.Context, org string) ([]OrganizationMember, error) {
	var members []OrganizationMember
	opts := &github.ListMembersOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		users, resp, err := c.rest.Organizations.ListMembers(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list organization members: %w", err)
		}

		for _, user := range users {
			member := OrganizationMember{
				Login:     user.GetLogin(),
				ID:        user.GetID(),
				AvatarURL: user.GetAvatarURL(),
			}
			membership, _, err := c.rest.Organizations.GetOrgMembership(ctx, member.Login, org)
			if err == nil {
				member.Role = membership.GetRole()
			}
			members = append(members, member)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return members, nil
}

// OrganizationRepositories fetches all repositories of an organization.
func (c *Client) OrganizationRepositories(ctx context.Context, org string) ([]*github.Repository, error) {
	var repos []*github.Repository
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		page, resp, err := c.rest.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list organization repositories: %w", err)
		}
		repos = append(repos, page...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// RepositoryCollaborators fetches the collaborator logins of a repository.
func (c *Client) RepositoryCollaborators(ctx context.Context, owner, repo string) ([]string, error) {
	var logins []string
	opts := &github.ListCollaboratorsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for {
		users, resp, err := c.rest.Repositories.ListCollaborators(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list collaborators: %w", err)
		}
		for _, user := range users {
			logins = append(logins, user.GetLogin())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return logins, nil
}
