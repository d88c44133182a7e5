package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gitbounty/gitbounty/internal/database/testdb"
	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueRepo "github.com/gitbounty/gitbounty/internal/issue/repository"
	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
	repoRepo "github.com/gitbounty/gitbounty/internal/repo/repository"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

type fixture struct {
	recalc *Recalculator
	issues issueRepo.Repository
	repos  repoRepo.Repository
	orgs   orgRepo.Repository
	users  userRepo.Repository
}

func setupFixture(t *testing.T) *fixture {
	db := testdb.Open(t)

	issues := issueRepo.New(db)
	repos := repoRepo.New(db)
	orgs := orgRepo.New(db)
	users := userRepo.New(db)
	return &fixture{
		recalc: New(issues, repos, orgs, users, zap.NewNop().Sugar()),
		issues: issues,
		repos:  repos,
		orgs:   orgs,
		users:  users,
	}
}

func (f *fixture) seedIssue(t *testing.T, issueID string, number, price int, state string, solved bool, assignees ...issueModel.Assignee) *issueModel.Issue {
	t.Helper()
	issue, err := f.issues.CreateOrUpdate(context.Background(), &issueModel.IssueBody{
		IssueID:    issueID,
		Number:     &number,
		Price:      &price,
		State:      &state,
		Solved:     &solved,
		Assignees:  assignees,
		Owner:      &issueModel.UserRef{Login: "acme"},
		Repository: &issueModel.RepositoryRef{ID: "R_1", Name: "widgets"},
	})
	require.NoError(t, err)
	return issue
}

func TestRecompute_RepositoryTotals(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	_, err := f.repos.CreateOrUpdate(ctx, &repoModel.RepositoryBody{RepositoryID: "R_1"})
	require.NoError(t, err)

	assigned := issueModel.Assignee{Login: "alice", AssignedAt: time.Now().UTC()}
	f.seedIssue(t, "I_1", 1, 100, "closed", true, assigned) // rewarded pot
	f.seedIssue(t, "I_2", 2, 50, "open", false)             // available pot
	f.seedIssue(t, "I_3", 3, 30, "open", false, assigned)   // assigned, not available
	issue := f.seedIssue(t, "I_4", 4, 0, "open", false)     // unpriced

	require.NoError(t, f.recalc.Recompute(ctx, issue))

	repo, err := f.repos.GetByRepositoryID(ctx, "R_1")
	require.NoError(t, err)
	assert.Equal(t, 4, repo.TotalIssues)
	assert.Equal(t, 100, repo.TotalRewarded)
	assert.Equal(t, 50, repo.TotalAvailable)
}

func TestRecompute_OrganizationTotals(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	title := "acme"
	_, err := f.orgs.CreateOrUpdate(ctx, &orgModel.OrganizationBody{
		OrganizationID: "O_1",
		Title:          &title,
	})
	require.NoError(t, err)

	f.seedIssue(t, "I_1", 1, 100, "closed", true)
	issue := f.seedIssue(t, "I_2", 2, 50, "open", false)

	require.NoError(t, f.recalc.Recompute(ctx, issue))

	org, err := f.orgs.GetByOrganizationID(ctx, "O_1")
	require.NoError(t, err)
	assert.Equal(t, 2, org.TotalIssues)
	assert.Equal(t, 100, org.TotalRewarded)
	assert.Equal(t, 50, org.TotalAvailable)
}

func TestRecompute_UserEarnings(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	require.NoError(t, f.users.Save(ctx, &userModel.User{GithubID: 1, Login: "alice"}))

	now := time.Now().UTC()
	rewarded := issueModel.Assignee{Login: "alice", Rewarded: true, AssignedAt: now}
	pending := issueModel.Assignee{Login: "alice", AssignedAt: now}

	f.seedIssue(t, "I_1", 1, 100, "closed", true, rewarded)
	f.seedIssue(t, "I_2", 2, 70, "closed", true, pending) // confirmed reward only counts
	issue := f.seedIssue(t, "I_3", 3, 50, "open", false, rewarded)

	require.NoError(t, f.recalc.Recompute(ctx, issue))

	user, err := f.users.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 100, user.TotalEarned)
}

func TestRecompute_MissingAggregateTargetsSkipped(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	assigned := issueModel.Assignee{Login: "nobody", AssignedAt: time.Now().UTC()}
	issue := f.seedIssue(t, "I_1", 1, 100, "open", false, assigned)

	// No repository, organization or user records exist yet; recomputation
	// must not fail on the missing targets.
	require.NoError(t, f.recalc.Recompute(ctx, issue))
}

func TestEnqueue_RunsDetached(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	_, err := f.repos.CreateOrUpdate(ctx, &repoModel.RepositoryBody{RepositoryID: "R_1"})
	require.NoError(t, err)
	issue := f.seedIssue(t, "I_1", 1, 50, "open", false)

	f.recalc.Enqueue(issue)
	f.recalc.Wait()

	repo, err := f.repos.GetByRepositoryID(ctx, "R_1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.TotalIssues)
	assert.Equal(t, 50, repo.TotalAvailable)
}
