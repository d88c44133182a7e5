package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
)

// GhostLogin is substituted when the author account has been deleted.
const GhostLogin = "ghost"

// ExternalID resolves a stable external identity, preferring the GraphQL
// node id over the numeric REST id.
func ExternalID(nodeID string, numericID int64) string {
	if nodeID != "" {
		return nodeID
	}
	return fmt.Sprintf("%d", numericID)
}

// BodyFromWebhook projects a live webhook issue payload into the canonical
// body. The crawl-sourced projection in the githubapi package targets the
// same type; identical source data must yield identical bodies.
func BodyFromWebhook(issue *github.Issue, repo *github.Repository) *IssueBody {
	now := time.Now().UTC()

	assignees := make([]Assignee, 0, len(issue.Assignees))
	for _, user := range issue.Assignees {
		assignees = append(assignees, Assignee{
			Login:      user.GetLogin(),
			AvatarURL:  user.GetAvatarURL(),
			Rewarded:   false,
			AssignedAt: now,
		})
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	author := UserRef{Login: GhostLogin}
	if issue.User != nil {
		author = UserRef{
			Login:     issue.User.GetLogin(),
			AvatarURL: issue.User.GetAvatarURL(),
		}
	}

	owner := UserRef{}
	if repo.Owner != nil {
		owner = UserRef{
			Login:     repo.Owner.GetLogin(),
			AvatarURL: repo.Owner.GetAvatarURL(),
		}
	}

	body := &IssueBody{
		IssueID:   ExternalID(issue.GetNodeID(), issue.GetID()),
		Number:    intPtr(issue.GetNumber()),
		Title:     strPtr(issue.GetTitle()),
		URL:       strPtr(issue.GetHTMLURL()),
		Description: strPtr(issue.GetBody()),
		State:     strPtr(strings.ToLower(issue.GetState())),
		Labels:    labels,
		Assignees: assignees,
		Managers:  []UserRef{author},
		Owner:     &owner,
		Repository: &RepositoryRef{
			ID:   ExternalID(repo.GetNodeID(), repo.GetID()),
			Name: repo.GetName(),
		},
		Private: boolPtr(repo.GetPrivate()),
	}

	if created := issue.GetCreatedAt(); !created.IsZero() {
		t := created.Time
		body.CreatedAt = &t
	}

	return body
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
