package model

import (
	"github.com/google/go-github/v57/github"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
)

// BodyFromWebhook projects a webhook repository payload into the canonical
// body. Onboarding state is never part of the projection; it is set through
// the review flow only.
func BodyFromWebhook(repo *github.Repository) *RepositoryBody {
	body := &RepositoryBody{
		RepositoryID: issueModel.ExternalID(repo.GetNodeID(), repo.GetID()),
		Name:         strPtr(repo.GetName()),
		FullName:     strPtr(repo.GetFullName()),
		URL:          strPtr(repo.GetHTMLURL()),
		Private:      boolPtr(repo.GetPrivate()),
		Stars:        intPtr(repo.GetStargazersCount()),
		Forks:        intPtr(repo.GetForksCount()),
	}

	if repo.Owner != nil {
		body.OwnerLogin = strPtr(repo.Owner.GetLogin())
		body.OwnerAvatar = strPtr(repo.Owner.GetAvatarURL())
		body.OwnerType = strPtr(repo.Owner.GetType())
	}

	return body
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
