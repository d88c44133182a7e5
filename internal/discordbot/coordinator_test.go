package discordbot

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gitbounty/gitbounty/internal/database/testdb"
	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueRepo "github.com/gitbounty/gitbounty/internal/issue/repository"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

type fakeSession struct {
	threads      []*discordgo.ThreadStart
	added        map[string][]string
	removed      map[string][]string
	messages     map[string][]*discordgo.MessageSend
	interactions []*discordgo.InteractionResponse
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		added:    map[string][]string{},
		removed:  map[string][]string{},
		messages: map[string][]*discordgo.MessageSend{},
	}
}

func (f *fakeSession) ThreadStartComplex(_ string, data *discordgo.ThreadStart, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.threads = append(f.threads, data)
	return &discordgo.Channel{ID: "T_1", Name: data.Name}, nil
}

func (f *fakeSession) ThreadMemberAdd(threadID, memberID string, _ ...discordgo.RequestOption) error {
	f.added[threadID] = append(f.added[threadID], memberID)
	return nil
}

func (f *fakeSession) ThreadMemberRemove(threadID, memberID string, _ ...discordgo.RequestOption) error {
	f.removed[threadID] = append(f.removed[threadID], memberID)
	return nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.messages[channelID] = append(f.messages[channelID], data)
	return &discordgo.Message{ID: "M_1"}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.interactions = append(f.interactions, resp)
	return nil
}

func (f *fakeSession) lastResponse(t *testing.T) *discordgo.InteractionResponseData {
	t.Helper()
	require.NotEmpty(t, f.interactions)
	return f.interactions[len(f.interactions)-1].Data
}

type fixture struct {
	session     *fakeSession
	coordinator *Coordinator
	issues      issueService.Service
	users       userRepo.Repository
}

func setupFixture(t *testing.T) *fixture {
	db := testdb.Open(t)

	logger := zap.NewNop().Sugar()
	issues := issueService.New(issueRepo.New(db), nil, logger)
	users := userRepo.New(db)
	session := newFakeSession()

	return &fixture{
		session:     session,
		coordinator: New(session, "C_1", 10080, issues, users, logger),
		issues:      issues,
		users:       users,
	}
}

func (f *fixture) seedIssue(t *testing.T, issueID string, thread *issueModel.Thread, assignees ...string) *issueModel.Issue {
	t.Helper()
	number := 42
	price := 100
	body := &issueModel.IssueBody{
		IssueID: issueID,
		Number:  &number,
		Price:   &price,
		Thread:  thread,
	}
	for _, login := range assignees {
		body.Assignees = append(body.Assignees, issueModel.Assignee{
			Login:      login,
			AssignedAt: time.Now().UTC(),
		})
	}

	issue, err := f.issues.CreateOrUpdate(context.Background(), body)
	require.NoError(t, err)
	return issue
}

func (f *fixture) linkUser(t *testing.T, githubID int64, login, discordID string) {
	t.Helper()
	require.NoError(t, f.users.Save(context.Background(), &userModel.User{
		GithubID:  githubID,
		Login:     login,
		DiscordID: &discordID,
	}))
}

func buttonPress(discordID, issueID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				CustomID: RewardCustomIDPrefix + issueID,
			},
			Member: &discordgo.Member{
				User: &discordgo.User{ID: discordID},
			},
		},
	}
}

func TestEnsureThread_CreatesPrivateThread(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	issue := f.seedIssue(t, "I_1", nil)

	thread, err := f.coordinator.EnsureThread(ctx, issue, []string{"d-alice", "d-carol"})
	require.NoError(t, err)

	assert.Equal(t, "T_1", thread.ID)
	assert.Equal(t, "Issue #42", thread.Name)
	assert.Equal(t, []string{"d-alice", "d-carol"}, thread.Members)

	require.Len(t, f.session.threads, 1)
	started := f.session.threads[0]
	assert.Equal(t, "Issue #42", started.Name)
	assert.Equal(t, discordgo.ChannelTypeGuildPrivateThread, started.Type)
	assert.Equal(t, 10080, started.AutoArchiveDuration)
	assert.False(t, started.Invitable)

	require.Len(t, f.session.messages["T_1"], 1)
	assert.Contains(t, f.session.messages["T_1"][0].Content, "$100")
}

func TestEnsureThread_ExistingThreadGetsUpdateNotice(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	issue := f.seedIssue(t, "I_1", &issueModel.Thread{
		ID:      "T_1",
		Name:    "Issue #42",
		Members: []string{"d-alice"},
	})

	thread, err := f.coordinator.EnsureThread(ctx, issue, []string{"d-alice", "d-carol"})
	require.NoError(t, err)

	assert.Empty(t, f.session.threads)
	assert.Equal(t, []string{"d-alice", "d-carol"}, thread.Members)
	// Only the new member is invited.
	assert.Equal(t, []string{"d-carol"}, f.session.added["T_1"])
	require.Len(t, f.session.messages["T_1"], 1)
	assert.Contains(t, f.session.messages["T_1"][0].Content, "updated to $100")
}

func TestAddAssignee(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.linkUser(t, 1, "alice", "d-alice")

	t.Run("adds linked user and persists membership", func(t *testing.T) {
		issue := f.seedIssue(t, "I_1", &issueModel.Thread{ID: "T_1", Name: "Issue #42"})

		require.NoError(t, f.coordinator.AddAssignee(ctx, issue, "alice"))
		assert.Contains(t, f.session.added["T_1"], "d-alice")

		stored, err := f.issues.GetByIssueID(ctx, "I_1")
		require.NoError(t, err)
		assert.Contains(t, stored.Thread.Members, "d-alice")
	})

	t.Run("unlinked user skipped silently", func(t *testing.T) {
		issue := f.seedIssue(t, "I_2", &issueModel.Thread{ID: "T_2", Name: "Issue #42"})
		require.NoError(t, f.coordinator.AddAssignee(ctx, issue, "nobody"))
		assert.Empty(t, f.session.added["T_2"])
	})

	t.Run("issue without thread skipped", func(t *testing.T) {
		issue := f.seedIssue(t, "I_3", nil)
		require.NoError(t, f.coordinator.AddAssignee(ctx, issue, "alice"))
	})
}

func TestRemoveAssignee(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.linkUser(t, 1, "alice", "d-alice")
	issue := f.seedIssue(t, "I_1", &issueModel.Thread{
		ID:      "T_1",
		Name:    "Issue #42",
		Members: []string{"d-alice"},
	})

	require.NoError(t, f.coordinator.RemoveAssignee(ctx, issue, "alice"))
	assert.Contains(t, f.session.removed["T_1"], "d-alice")

	stored, err := f.issues.GetByIssueID(ctx, "I_1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Thread.Members, "d-alice")
}

func TestAnnounceSolved(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	t.Run("posts message with confirmation button", func(t *testing.T) {
		issue := f.seedIssue(t, "I_1", &issueModel.Thread{ID: "T_1", Name: "Issue #42"})

		require.NoError(t, f.coordinator.AnnounceSolved(ctx, issue))

		require.Len(t, f.session.messages["T_1"], 1)
		msg := f.session.messages["T_1"][0]
		require.Len(t, msg.Components, 1)
		row, ok := msg.Components[0].(discordgo.ActionsRow)
		require.True(t, ok)
		require.Len(t, row.Components, 1)
		button, ok := row.Components[0].(discordgo.Button)
		require.True(t, ok)
		assert.Equal(t, RewardCustomIDPrefix+"I_1", button.CustomID)
		assert.Equal(t, discordgo.SuccessButton, button.Style)
	})

	t.Run("no thread means nothing to announce", func(t *testing.T) {
		issue := f.seedIssue(t, "I_2", nil)
		require.NoError(t, f.coordinator.AnnounceSolved(ctx, issue))
		assert.Empty(t, f.session.messages["T_2"])
	})
}

func TestHandleInteraction(t *testing.T) {
	ctx := context.Background()

	solve := func(t *testing.T, f *fixture, issueID string) {
		_, _, err := f.issues.MarkSolved(ctx, issueID, time.Now().UTC())
		require.NoError(t, err)
	}

	t.Run("confirms reward for linked assignee", func(t *testing.T) {
		f := setupFixture(t)
		f.linkUser(t, 1, "alice", "d-alice")
		f.seedIssue(t, "I_1", nil, "alice")
		solve(t, f, "I_1")

		require.NoError(t, f.coordinator.HandleInteraction(ctx, buttonPress("d-alice", "I_1")))

		issue, err := f.issues.GetByIssueID(ctx, "I_1")
		require.NoError(t, err)
		assert.True(t, issue.Assignees[0].Rewarded)
		assert.True(t, issue.Rewarded)
		assert.Contains(t, f.session.lastResponse(t).Content, "confirmed")
	})

	t.Run("rejects unlinked account", func(t *testing.T) {
		f := setupFixture(t)
		f.seedIssue(t, "I_1", nil, "alice")
		solve(t, f, "I_1")

		require.NoError(t, f.coordinator.HandleInteraction(ctx, buttonPress("d-stranger", "I_1")))
		assert.Contains(t, f.session.lastResponse(t).Content, "not linked")
	})

	t.Run("rejects non-assignee", func(t *testing.T) {
		f := setupFixture(t)
		f.linkUser(t, 2, "bob", "d-bob")
		f.seedIssue(t, "I_1", nil, "alice")
		solve(t, f, "I_1")

		require.NoError(t, f.coordinator.HandleInteraction(ctx, buttonPress("d-bob", "I_1")))
		assert.Contains(t, f.session.lastResponse(t).Content, "assignees")
	})

	t.Run("rejects unsolved issue", func(t *testing.T) {
		f := setupFixture(t)
		f.linkUser(t, 1, "alice", "d-alice")
		f.seedIssue(t, "I_1", nil, "alice")

		require.NoError(t, f.coordinator.HandleInteraction(ctx, buttonPress("d-alice", "I_1")))
		assert.Contains(t, f.session.lastResponse(t).Content, "not solved")
	})

	t.Run("rejects double confirmation", func(t *testing.T) {
		f := setupFixture(t)
		f.linkUser(t, 1, "alice", "d-alice")
		f.seedIssue(t, "I_1", nil, "alice")
		solve(t, f, "I_1")

		require.NoError(t, f.coordinator.HandleInteraction(ctx, buttonPress("d-alice", "I_1")))
		require.NoError(t, f.coordinator.HandleInteraction(ctx, buttonPress("d-alice", "I_1")))
		assert.Contains(t, f.session.lastResponse(t).Content, "already")
	})

	t.Run("responses are ephemeral", func(t *testing.T) {
		f := setupFixture(t)
		f.seedIssue(t, "I_1", nil, "alice")
		solve(t, f, "I_1")

		require.NoError(t, f.coordinator.HandleInteraction(ctx, buttonPress("d-stranger", "I_1")))
		assert.Equal(t, discordgo.MessageFlagsEphemeral, f.session.lastResponse(t).Flags)
	})

	t.Run("ignores unrelated interactions", func(t *testing.T) {
		f := setupFixture(t)
		press := buttonPress("d-alice", "I_1")
		press.Data = discordgo.MessageComponentInteractionData{CustomID: "other_button"}

		require.NoError(t, f.coordinator.HandleInteraction(ctx, press))
		assert.Empty(t, f.session.interactions)
	})
}
