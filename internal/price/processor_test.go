package price

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
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

type fakeCoordinator struct {
	calls   int
	members []string
	thread  *issueModel.Thread
}

func (f *fakeCoordinator) EnsureThread(_ context.Context, issue *issueModel.Issue, memberDiscordIDs []string) (*issueModel.Thread, error) {
	f.calls++
	f.members = memberDiscordIDs
	if f.thread == nil {
		f.thread = &issueModel.Thread{
			ID:      "T_1",
			Name:    "Issue #42",
			Members: memberDiscordIDs,
		}
	}
	return f.thread, nil
}

type fakeCommenter struct {
	bodies []string
}

func (f *fakeCommenter) CreateIssueComment(_ context.Context, _, _ string, _ int, body string) error {
	f.bodies = append(f.bodies, body)
	return nil
}

type fixture struct {
	processor   *Processor
	issues      issueService.Service
	coordinator *fakeCoordinator
	commenter   *fakeCommenter
}

func setupFixture(t *testing.T) *fixture {
	db := testdb.Open(t)

	logger := zap.NewNop().Sugar()
	issues := issueService.New(issueRepo.New(db), nil, logger)
	orgs := orgRepo.New(db)
	users := userRepo.New(db)

	state := orgModel.StateAccepted
	title := "acme"
	_, err := orgs.CreateOrUpdate(context.Background(), &orgModel.OrganizationBody{
		OrganizationID: "O_1",
		Title:          &title,
		State:          &state,
		Members: []orgModel.Member{
			{Login: "carol"},
		},
	})
	require.NoError(t, err)

	discordID := "d-alice"
	require.NoError(t, users.Save(context.Background(), &userModel.User{
		GithubID:  1,
		Login:     "alice",
		DiscordID: &discordID,
	}))

	coordinator := &fakeCoordinator{}
	commenter := &fakeCommenter{}
	processor := New(issues, orgs, users, coordinator, commenter, logger)

	number := 42
	state2 := "open"
	_, err = issues.CreateOrUpdate(context.Background(), &issueModel.IssueBody{
		IssueID: "I_1",
		Number:  &number,
		State:   &state2,
		Assignees: []issueModel.Assignee{
			{Login: "alice", AssignedAt: time.Now().UTC()},
		},
		Owner:      &issueModel.UserRef{Login: "acme"},
		Repository: &issueModel.RepositoryRef{ID: "R_1", Name: "widgets"},
	})
	require.NoError(t, err)

	return &fixture{
		processor:   processor,
		issues:      issues,
		coordinator: coordinator,
		commenter:   commenter,
	}
}

func orgRequest(body, author string) Request {
	return Request{
		CommentBody:    body,
		Author:         issueModel.UserRef{Login: author},
		IssueID:        "I_1",
		IssueNumber:    42,
		RepositoryName: "widgets",
		OwnerType:      repoModel.OwnerTypeOrganization,
		OwnerLogin:     "acme",
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		body  string
		price int
		ok    bool
	}{
		{"/price 100", 100, true},
		{"  /price 100  ", 100, true},
		{"/price 0", 0, true},
		{"/price 100 for this one", 100, true},
		{"/price abc", 0, false},
		{"/price -5", 0, false},
		{"/price", 0, false},
		{"/pricey 100", 0, false},
		{"price 100", 0, false},
		{"just a comment", 0, false},
	}

	for _, tt := range tests {
		price, ok := ParsePrice(tt.body)
		assert.Equal(t, tt.ok, ok, tt.body)
		assert.Equal(t, tt.price, price, tt.body)
	}
}

func TestHandleComment_AppliesPrice(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	outcome, err := f.processor.HandleComment(ctx, orgRequest("/price 100", "carol"))
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	issue, err := f.issues.GetByIssueID(ctx, "I_1")
	require.NoError(t, err)
	assert.Equal(t, 100, issue.Price)
	assert.True(t, issue.HasManager("carol"))
	require.NotNil(t, issue.Thread)
	assert.Equal(t, "T_1", issue.Thread.ID)

	// Only alice has a linked Discord account; carol does not.
	assert.Equal(t, []string{"d-alice"}, f.coordinator.members)
	require.Len(t, f.commenter.bodies, 1)
	assert.Contains(t, f.commenter.bodies[0], "100")
}

func TestHandleComment_OrdinaryCommentSkipped(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	outcome, err := f.processor.HandleComment(ctx, orgRequest("looks good to me", "carol"))
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, 0, f.coordinator.calls)
}

func TestHandleComment_InvalidAmountSkipped(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	for _, body := range []string{"/price abc", "/price -5", "/price"} {
		outcome, err := f.processor.HandleComment(ctx, orgRequest(body, "carol"))
		require.NoError(t, err)
		assert.False(t, outcome.Applied, body)
	}

	issue, err := f.issues.GetByIssueID(ctx, "I_1")
	require.NoError(t, err)
	assert.Zero(t, issue.Price)
}

func TestHandleComment_UnauthorizedAuthorSkipped(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	outcome, err := f.processor.HandleComment(ctx, orgRequest("/price 100", "mallory"))
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, "author not authorized", outcome.Reason)

	issue, err := f.issues.GetByIssueID(ctx, "I_1")
	require.NoError(t, err)
	assert.Zero(t, issue.Price)
	assert.Nil(t, issue.Thread)
	assert.Equal(t, 0, f.coordinator.calls)
}

func TestHandleComment_UserOwnedRepository(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	req := orgRequest("/price 50", "acme")
	req.OwnerType = repoModel.OwnerTypeUser

	outcome, err := f.processor.HandleComment(ctx, req)
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	// Anyone but the owner is unauthorized on a user-owned repository.
	req.Author = issueModel.UserRef{Login: "carol"}
	outcome, err = f.processor.HandleComment(ctx, req)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
}

func TestHandleComment_UnmirroredIssueSkipped(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	req := orgRequest("/price 100", "carol")
	req.IssueID = "I_missing"

	outcome, err := f.processor.HandleComment(ctx, req)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, "issue not mirrored", outcome.Reason)
}

func TestHandleComment_RepriceReusesThread(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)

	_, err := f.processor.HandleComment(ctx, orgRequest("/price 100", "carol"))
	require.NoError(t, err)
	_, err = f.processor.HandleComment(ctx, orgRequest("/price 250", "carol"))
	require.NoError(t, err)

	issue, err := f.issues.GetByIssueID(ctx, "I_1")
	require.NoError(t, err)
	assert.Equal(t, 250, issue.Price)
	assert.Equal(t, "T_1", issue.Thread.ID)
	assert.Equal(t, 2, f.coordinator.calls)
}
