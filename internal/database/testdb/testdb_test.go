package testdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	prModel "github.com/gitbounty/gitbounty/internal/pullrequest/model"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
)

// The production models must write and read cleanly against the test schema,
// JSON columns included. This guards the mirror structs against drifting from
// the real table layouts.
func TestOpen_AcceptsProductionModels(t *testing.T) {
	db := Open(t)

	now := time.Now().UTC().Truncate(time.Second)
	issue := &issueModel.Issue{
		IssueID: "I_1",
		Number:  42,
		Title:   "Crash on launch",
		State:   "open",
		Price:   100,
		Labels:  []string{"bug"},
		Assignees: []issueModel.Assignee{
			{Login: "alice", Rewarded: true, AssignedAt: now},
		},
		Managers:     []issueModel.UserRef{{Login: "carol"}},
		Thread:       &issueModel.Thread{ID: "T_1", Name: "Issue #42", Members: []string{"alice"}},
		RepositoryID: "R_1",
	}
	require.NoError(t, db.Create(issue).Error)

	var stored issueModel.Issue
	require.NoError(t, db.Where("issue_id = ?", "I_1").First(&stored).Error)
	assert.Equal(t, 100, stored.Price)
	assert.Equal(t, []string{"bug"}, stored.Labels)
	require.Len(t, stored.Assignees, 1)
	assert.True(t, stored.Assignees[0].Rewarded)
	require.NotNil(t, stored.Thread)
	assert.Equal(t, "T_1", stored.Thread.ID)

	require.NoError(t, db.Create(&prModel.PullRequest{
		PullRequestID: "PR_1",
		Number:        7,
		State:         "closed",
		Merged:        true,
		MergedAt:      &now,
		LinkedIssues:  []int{42},
	}).Error)

	require.NoError(t, db.Create(&repoModel.Repository{
		RepositoryID:  "R_1",
		Name:          "widgets",
		OwnerType:     repoModel.OwnerTypeUser,
		State:         repoModel.StateAccepted,
		Collaborators: []string{"alice"},
	}).Error)

	require.NoError(t, db.Create(&orgModel.Organization{
		OrganizationID: "O_1",
		Title:          "acme",
		State:          orgModel.StateAccepted,
		Members:        []orgModel.Member{{Login: "carol", CanEdit: true}},
	}).Error)

	discordID := "555"
	require.NoError(t, db.Create(&userModel.User{
		GithubID:  1,
		Login:     "alice",
		DiscordID: &discordID,
	}).Error)

	var org orgModel.Organization
	require.NoError(t, db.Where("organization_id = ?", "O_1").First(&org).Error)
	require.Len(t, org.Members, 1)
	assert.True(t, org.Members[0].CanEdit)
}
