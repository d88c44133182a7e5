package model

import (
	"strings"

	"github.com/google/go-github/v57/github"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
)

// BodyFromWebhook projects a live webhook pull request payload into the
// canonical body. Linked issue numbers come from a separate GraphQL lookup
// and are passed in by the caller.
func BodyFromWebhook(pr *github.PullRequest, repo *github.Repository, linkedIssues []int) *PullRequestBody {
	assignees := make([]issueModel.UserRef, 0, len(pr.Assignees))
	for _, user := range pr.Assignees {
		assignees = append(assignees, issueModel.UserRef{
			Login:     user.GetLogin(),
			AvatarURL: user.GetAvatarURL(),
		})
	}

	reviewers := make([]issueModel.UserRef, 0, len(pr.RequestedReviewers))
	for _, user := range pr.RequestedReviewers {
		reviewers = append(reviewers, issueModel.UserRef{
			Login:     user.GetLogin(),
			AvatarURL: user.GetAvatarURL(),
		})
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, label := range pr.Labels {
		labels = append(labels, label.GetName())
	}

	author := issueModel.UserRef{Login: issueModel.GhostLogin}
	if pr.User != nil {
		author = issueModel.UserRef{
			Login:     pr.User.GetLogin(),
			AvatarURL: pr.User.GetAvatarURL(),
		}
	}

	body := &PullRequestBody{
		PullRequestID:      issueModel.ExternalID(pr.GetNodeID(), pr.GetID()),
		Number:             intPtr(pr.GetNumber()),
		Title:              strPtr(pr.GetTitle()),
		URL:                strPtr(pr.GetHTMLURL()),
		Description:        strPtr(pr.GetBody()),
		State:              strPtr(strings.ToLower(pr.GetState())),
		Merged:             boolPtr(pr.GetMerged()),
		Draft:              boolPtr(pr.GetDraft()),
		Assignees:          assignees,
		RequestedReviewers: reviewers,
		Managers:           []issueModel.UserRef{author},
		Labels:             labels,
		Repository: &issueModel.RepositoryRef{
			ID:   issueModel.ExternalID(repo.GetNodeID(), repo.GetID()),
			Name: repo.GetName(),
		},
	}
	if linkedIssues != nil {
		body.LinkedIssues = linkedIssues
	}
	if mergedAt := pr.GetMergedAt(); !mergedAt.IsZero() {
		t := mergedAt.Time
		body.MergedAt = &t
	}
	return body
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
