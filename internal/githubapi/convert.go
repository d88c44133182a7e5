package githubapi

import (
	"strings"
	"time"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	prModel "github.com/gitbounty/gitbounty/internal/pullrequest/model"
)

// IssueBodyFromCrawl projects a crawled issue into the canonical body. The
// projection must agree with the webhook projection for the same source data
// so that recovery over already-mirrored issues is a no-op.
func IssueBodyFromCrawl(issue *CrawlIssue, repositoryID, repositoryName string, owner issueModel.UserRef, private bool) *issueModel.IssueBody {
	now := time.Now().UTC()

	assignees := make([]issueModel.Assignee, 0, len(issue.Assignees.Nodes))
	for _, node := range issue.Assignees.Nodes {
		assignees = append(assignees, issueModel.Assignee{
			Login:      string(node.Login),
			AvatarURL:  string(node.AvatarURL),
			Rewarded:   false,
			AssignedAt: now,
		})
	}

	labels := make([]string, 0, len(issue.Labels.Nodes))
	for _, node := range issue.Labels.Nodes {
		labels = append(labels, string(node.Name))
	}

	author := issueModel.UserRef{Login: issueModel.GhostLogin}
	if issue.Author.Login != "" {
		author = issueModel.UserRef{
			Login:     string(issue.Author.Login),
			AvatarURL: string(issue.Author.AvatarURL),
		}
	}

	body := &issueModel.IssueBody{
		IssueID:     string(issue.ID),
		Number:      intPtr(int(issue.Number)),
		Title:       strPtr(string(issue.Title)),
		URL:         strPtr(string(issue.URL)),
		Description: strPtr(string(issue.Body)),
		State:       strPtr(strings.ToLower(string(issue.State))),
		Labels:      labels,
		Assignees:   assignees,
		Managers:    []issueModel.UserRef{author},
		Owner:       &owner,
		Repository: &issueModel.RepositoryRef{
			ID:   repositoryID,
			Name: repositoryName,
		},
		Private: boolPtr(private),
	}

	if !issue.CreatedAt.IsZero() {
		t := issue.CreatedAt.Time
		body.CreatedAt = &t
	}

	return body
}

// PullRequestBodyFromCrawl projects a crawled pull request into the canonical
// body. Linked issue numbers come from the closingIssuesReferences connection
// fetched inline with the node.
func PullRequestBodyFromCrawl(pr *CrawlPullRequest, repositoryID, repositoryName string) *prModel.PullRequestBody {
	assignees := make([]issueModel.UserRef, 0, len(pr.Assignees.Nodes))
	for _, node := range pr.Assignees.Nodes {
		assignees = append(assignees, issueModel.UserRef{
			Login:     string(node.Login),
			AvatarURL: string(node.AvatarURL),
		})
	}

	labels := make([]string, 0, len(pr.Labels.Nodes))
	for _, node := range pr.Labels.Nodes {
		labels = append(labels, string(node.Name))
	}

	linked := make([]int, 0, len(pr.ClosingIssuesReferences.Nodes))
	for _, node := range pr.ClosingIssuesReferences.Nodes {
		linked = append(linked, int(node.Number))
	}

	author := issueModel.UserRef{Login: issueModel.GhostLogin}
	if pr.Author.Login != "" {
		author = issueModel.UserRef{
			Login:     string(pr.Author.Login),
			AvatarURL: string(pr.Author.AvatarURL),
		}
	}

	body := &prModel.PullRequestBody{
		PullRequestID: string(pr.ID),
		Number:        intPtr(int(pr.Number)),
		Title:         strPtr(string(pr.Title)),
		URL:           strPtr(string(pr.URL)),
		Description:   strPtr(string(pr.Body)),
		State:         strPtr(strings.ToLower(string(pr.State))),
		Merged:        boolPtr(bool(pr.Merged)),
		Draft:         boolPtr(bool(pr.IsDraft)),
		LinkedIssues:  linked,
		Assignees:     assignees,
		Managers:      []issueModel.UserRef{author},
		Labels:        labels,
		Repository: &issueModel.RepositoryRef{
			ID:   repositoryID,
			Name: repositoryName,
		},
	}

	if pr.MergedAt != nil && !pr.MergedAt.IsZero() {
		t := pr.MergedAt.Time
		body.MergedAt = &t
	}

	return body
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
