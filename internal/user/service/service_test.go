package service

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
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

type recordingThreads struct {
	added []string
}

func (r *recordingThreads) AddAssignee(_ context.Context, issue *issueModel.Issue, _ string) error {
	r.added = append(r.added, issue.IssueID)
	return nil
}

func setupService(t *testing.T) (Service, issueRepo.Repository, userRepo.Repository, *recordingThreads) {
	db := testdb.Open(t)

	issues := issueRepo.New(db)
	users := userRepo.New(db)
	threads := &recordingThreads{}
	svc := New(users, issues, threads, zap.NewNop().Sugar())
	return svc, issues, users, threads
}

func seedAssignedIssue(t *testing.T, issues issueRepo.Repository, issueID string, thread *issueModel.Thread) {
	t.Helper()
	number := len(issueID)
	_, err := issues.CreateOrUpdate(context.Background(), &issueModel.IssueBody{
		IssueID: issueID,
		Number:  &number,
		Assignees: []issueModel.Assignee{
			{Login: "alice", AssignedAt: time.Now().UTC()},
		},
		Thread:     thread,
		Repository: &issueModel.RepositoryRef{ID: "R_1", Name: "widgets"},
	})
	require.NoError(t, err)
}

func TestLinkDiscord(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the record on first contact", func(t *testing.T) {
		svc, _, users, _ := setupService(t)

		user, err := svc.LinkDiscord(ctx, 1, "alice", "https://avatars/alice", "d-alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Login)
		require.NotNil(t, user.DiscordID)
		assert.Equal(t, "d-alice", *user.DiscordID)

		stored, err := users.GetByGithubID(ctx, 1)
		require.NoError(t, err)
		assert.True(t, stored.HasDiscord())
	})

	t.Run("relinks an existing record", func(t *testing.T) {
		svc, _, users, _ := setupService(t)

		_, err := svc.LinkDiscord(ctx, 1, "alice", "https://avatars/alice", "d-old")
		require.NoError(t, err)

		user, err := svc.LinkDiscord(ctx, 1, "alice-renamed", "", "d-new")
		require.NoError(t, err)
		assert.Equal(t, "alice-renamed", user.Login)
		assert.Equal(t, "d-new", *user.DiscordID)
		// An empty avatar does not wipe the stored one.
		assert.Equal(t, "https://avatars/alice", user.AvatarURL)

		stored, err := users.GetByDiscordID(ctx, "d-new")
		require.NoError(t, err)
		assert.EqualValues(t, 1, stored.GithubID)
	})

	t.Run("re-adds the user to assigned issue threads", func(t *testing.T) {
		svc, issues, _, threads := setupService(t)
		seedAssignedIssue(t, issues, "I_1", &issueModel.Thread{ID: "T_1"})
		seedAssignedIssue(t, issues, "I_22", nil)

		_, err := svc.LinkDiscord(ctx, 1, "alice", "", "d-alice")
		require.NoError(t, err)

		// Only the issue with a thread gets an invite.
		assert.Equal(t, []string{"I_1"}, threads.added)
	})
}

func seedLinkedUser(t *testing.T, users userRepo.Repository, githubID int64, login, discordID string) {
	t.Helper()
	user := &userModel.User{GithubID: githubID, Login: login}
	if discordID != "" {
		user.DiscordID = &discordID
	}
	require.NoError(t, users.Save(context.Background(), user))
}

func TestRecoverThreads(t *testing.T) {
	ctx := context.Background()

	t.Run("re-adds to every assigned thread", func(t *testing.T) {
		svc, issues, users, threads := setupService(t)
		seedLinkedUser(t, users, 1, "alice", "d-alice")
		seedAssignedIssue(t, issues, "I_1", &issueModel.Thread{ID: "T_1"})
		seedAssignedIssue(t, issues, "I_22", &issueModel.Thread{ID: "T_2"})

		require.NoError(t, svc.RecoverThreads(ctx, "alice"))
		assert.ElementsMatch(t, []string{"I_1", "I_22"}, threads.added)
	})

	t.Run("skips issues without a thread", func(t *testing.T) {
		svc, issues, users, threads := setupService(t)
		seedLinkedUser(t, users, 1, "alice", "d-alice")
		seedAssignedIssue(t, issues, "I_1", nil)

		require.NoError(t, svc.RecoverThreads(ctx, "alice"))
		assert.Empty(t, threads.added)
	})

	t.Run("no assigned issues is a no-op", func(t *testing.T) {
		svc, _, users, threads := setupService(t)
		seedLinkedUser(t, users, 1, "alice", "d-alice")

		require.NoError(t, svc.RecoverThreads(ctx, "alice"))
		assert.Empty(t, threads.added)
	})

	t.Run("user without a linked discord account", func(t *testing.T) {
		svc, issues, users, threads := setupService(t)
		seedLinkedUser(t, users, 1, "alice", "")
		seedAssignedIssue(t, issues, "I_1", &issueModel.Thread{ID: "T_1"})

		err := svc.RecoverThreads(ctx, "alice")
		assert.ErrorIs(t, err, userModel.ErrDiscordNotLinked)
		assert.Empty(t, threads.added)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _, _ := setupService(t)

		err := svc.RecoverThreads(ctx, "nobody")
		assert.ErrorIs(t, err, userModel.ErrUserNotFound)
	})
}

func TestGetByLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, users, _ := setupService(t)

	require.NoError(t, users.Save(ctx, &userModel.User{GithubID: 1, Login: "alice"}))

	user, err := svc.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, user.GithubID)

	_, err = svc.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, userModel.ErrUserNotFound)
}
