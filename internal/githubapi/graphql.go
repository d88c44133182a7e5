package githubapi

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"
)

// CrawlActor is a GraphQL actor reference.
type CrawlActor struct {
	Login     githubv4.String
	AvatarURL githubv4.String `graphql:"avatarUrl"`
}

// CrawlComment is an issue comment as returned by the crawl query. Only the
// fields needed for price-command scanning are requested.
type CrawlComment struct {
	Body      githubv4.String
	CreatedAt githubv4.DateTime
	Author    CrawlActor
}

// CrawlIssue is one issue node of the bulk recovery crawl.
type CrawlIssue struct {
	ID        githubv4.String
	Number    githubv4.Int
	Title     githubv4.String
	Body      githubv4.String
	URL       githubv4.String
	State     githubv4.String
	CreatedAt githubv4.DateTime
	Author    CrawlActor
	Assignees struct {
		Nodes []CrawlActor
	} `graphql:"assignees(first: 20)"`
	Labels struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 50)"`
	Comments struct {
		Nodes []CrawlComment
	} `graphql:"comments(first: 100)"`
}

// CrawlPullRequest is one pull request node of the bulk recovery crawl.
type CrawlPullRequest struct {
	ID        githubv4.String
	Number    githubv4.Int
	Title     githubv4.String
	Body      githubv4.String
	URL       githubv4.String
	State     githubv4.String
	Merged    githubv4.Boolean
	MergedAt  *githubv4.DateTime
	IsDraft   githubv4.Boolean
	CreatedAt githubv4.DateTime
	Author    CrawlActor
	Assignees struct {
		Nodes []CrawlActor
	} `graphql:"assignees(first: 20)"`
	Labels struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 50)"`
	ClosingIssuesReferences struct {
		Nodes []struct {
			Number githubv4.Int
		}
	} `graphql:"closingIssuesReferences(first: 20)"`
}

// LinkedIssues resolves the issue numbers a pull request closes via the
// closingIssuesReferences GraphQL connection. The REST payload does not carry
// this linkage.
func (c *Client) LinkedIssues(ctx context.Context, owner, repo string, prNumber int) ([]int, error) {
	var query struct {
		Repository struct {
			PullRequest struct {
				ClosingIssuesReferences struct {
					Nodes []struct {
						Number githubv4.Int
					}
				} `graphql:"closingIssuesReferences(first: 20)"`
			} `graphql:"pullRequest(number: $prNumber)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{
		"owner":    githubv4.String(owner),
		"name":     githubv4.String(repo),
		"prNumber": githubv4.Int(prNumber),
	}

	if err := c.graphql.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("failed to query linked issues: %w", err)
	}

	numbers := make([]int, 0, len(query.Repository.PullRequest.ClosingIssuesReferences.Nodes))
	for _, node := range query.Repository.PullRequest.ClosingIssuesReferences.Nodes {
		numbers = append(numbers, int(node.Number))
	}
	return numbers, nil
}

// CrawlIssues pages through every issue of a repository, comments included.
func (c *Client) CrawlIssues(ctx context.Context, owner, repo string) ([]CrawlIssue, error) {
	var query struct {
		Repository struct {
			Issues struct {
				Nodes    []CrawlIssue
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage githubv4.Boolean
				}
			} `graphql:"issues(first: 50, after: $cursor, states: [OPEN, CLOSED])"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"cursor": (*githubv4.String)(nil),
	}

	var issues []CrawlIssue
	for {
		if err := c.graphql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("failed to crawl issues: %w", err)
		}
		issues = append(issues, query.Repository.Issues.Nodes...)

		if !query.Repository.Issues.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(query.Repository.Issues.PageInfo.EndCursor)
	}

	return issues, nil
}

// CrawlPullRequests pages through every pull request of a repository.
func (c *Client) CrawlPullRequests(ctx context.Context, owner, repo string) ([]CrawlPullRequest, error) {
	var query struct {
		Repository struct {
			PullRequests struct {
				Nodes    []CrawlPullRequest
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage githubv4.Boolean
				}
			} `graphql:"pullRequests(first: 50, after: $cursor, states: [OPEN, CLOSED, MERGED])"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"cursor": (*githubv4.String)(nil),
	}

	var prs []CrawlPullRequest
	for {
		if err := c.graphql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("failed to crawl pull requests: %w", err)
		}
		prs = append(prs, query.Repository.PullRequests.Nodes...)

		if !query.Repository.PullRequests.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(query.Repository.PullRequests.PageInfo.EndCursor)
	}

	return prs, nil
}
