// Package eligibility decides whether webhook events may mutate state.
//
// An event is eligible when its owning organization (or, for user-owned
// repositories, the repository itself) has been reviewed and accepted. A
// missing or not-yet-accepted owner is the normal "not onboarded" path and
// yields false, not an error; errors are reserved for storage failures.
package eligibility

import (
	"context"
	"errors"

	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
	repoRepo "github.com/gitbounty/gitbounty/internal/repo/repository"
)

// Gate checks onboarding state before any event handler mutates the mirror.
type Gate struct {
	repos repoRepo.Repository
	orgs  orgRepo.Repository
}

// New creates a new eligibility gate.
func New(repos repoRepo.Repository, orgs orgRepo.Repository) *Gate {
	return &Gate{repos: repos, orgs: orgs}
}

// RepositoryEligible reports whether events for a repository may be
// processed. Organization-owned repositories are gated on the organization's
// state; user-owned repositories on their own state.
func (g *Gate) RepositoryEligible(ctx context.Context, ownerType, repositoryID, organizationID string) (bool, error) {
	if ownerType == repoModel.OwnerTypeOrganization {
		return g.OrganizationEligible(ctx, organizationID)
	}

	repo, err := g.repos.GetByRepositoryID(ctx, repositoryID)
	if err != nil {
		if errors.Is(err, repoModel.ErrRepositoryNotFound) {
			return false, nil
		}
		return false, err
	}
	return repo.Accepted(), nil
}

// OrganizationEligible reports whether events for an organization may be
// processed.
func (g *Gate) OrganizationEligible(ctx context.Context, organizationID string) (bool, error) {
	if organizationID == "" {
		return false, nil
	}
	org, err := g.orgs.GetByOrganizationID(ctx, organizationID)
	if err != nil {
		if errors.Is(err, orgModel.ErrOrganizationNotFound) {
			return false, nil
		}
		return false, err
	}
	return org.Accepted(), nil
}

// InstallationEligible resolves eligibility from the installation account.
// The organization lookup by account id is tried first; a user account has
// no organization record, so its eligibility is whether any repository under
// the account's login has been accepted.
func (g *Gate) InstallationEligible(ctx context.Context, accountID, accountLogin string) (bool, error) {
	org, err := g.orgs.GetByOrganizationID(ctx, accountID)
	if err == nil {
		return org.Accepted(), nil
	}
	if !errors.Is(err, orgModel.ErrOrganizationNotFound) {
		return false, err
	}

	repos, err := g.repos.ListByOwner(ctx, accountLogin)
	if err != nil {
		return false, err
	}
	for i := range repos {
		if repos[i].OwnerType == repoModel.OwnerTypeUser && repos[i].Accepted() {
			return true, nil
		}
	}
	return false, nil
}
