package model

import (
	"github.com/google/go-github/v57/github"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
)

// BodyFromWebhook projects a webhook organization payload into the canonical
// body. The member roster is not part of the payload; it is synced separately.
func BodyFromWebhook(org *github.Organization) *OrganizationBody {
	return &OrganizationBody{
		OrganizationID: issueModel.ExternalID(org.GetNodeID(), org.GetID()),
		Title:          strPtr(org.GetLogin()),
		Description:    strPtr(org.GetDescription()),
		AvatarURL:      strPtr(org.GetAvatarURL()),
	}
}

func strPtr(s string) *string { return &s }
