package model

import (
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalID(t *testing.T) {
	assert.Equal(t, "I_node", ExternalID("I_node", 42))
	assert.Equal(t, "42", ExternalID("", 42))
}

func TestBodyFromWebhook(t *testing.T) {
	created := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	issue := &github.Issue{
		NodeID:  github.String("I_node"),
		ID:      github.Int64(1),
		Number:  github.Int(42),
		Title:   github.String("Fix the parser"),
		HTMLURL: github.String("https://github.com/acme/widgets/issues/42"),
		Body:    github.String("it is broken"),
		State:   github.String("OPEN"),
		User: &github.User{
			Login:     github.String("carol"),
			AvatarURL: github.String("https://avatars/carol"),
		},
		Assignees: []*github.User{
			{Login: github.String("alice"), AvatarURL: github.String("https://avatars/alice")},
		},
		Labels: []*github.Label{
			{Name: github.String("bug")},
		},
		CreatedAt: &github.Timestamp{Time: created},
	}
	repo := &github.Repository{
		NodeID:  github.String("R_node"),
		ID:      github.Int64(7),
		Name:    github.String("widgets"),
		Private: github.Bool(true),
		Owner: &github.User{
			Login:     github.String("acme"),
			AvatarURL: github.String("https://avatars/acme"),
		},
	}

	body := BodyFromWebhook(issue, repo)

	assert.Equal(t, "I_node", body.IssueID)
	assert.Equal(t, 42, *body.Number)
	assert.Equal(t, "Fix the parser", *body.Title)
	assert.Equal(t, "open", *body.State)
	assert.Equal(t, []string{"bug"}, body.Labels)
	require.Len(t, body.Assignees, 1)
	assert.Equal(t, "alice", body.Assignees[0].Login)
	assert.False(t, body.Assignees[0].Rewarded)
	assert.False(t, body.Assignees[0].AssignedAt.IsZero())
	require.Len(t, body.Managers, 1)
	assert.Equal(t, "carol", body.Managers[0].Login)
	assert.Equal(t, "acme", body.Owner.Login)
	assert.Equal(t, "R_node", body.Repository.ID)
	assert.Equal(t, "widgets", body.Repository.Name)
	assert.True(t, *body.Private)
	require.NotNil(t, body.CreatedAt)
	assert.Equal(t, created, *body.CreatedAt)
}

func TestBodyFromWebhook_DeletedAuthorFallsBackToGhost(t *testing.T) {
	issue := &github.Issue{
		NodeID: github.String("I_node"),
		Number: github.Int(1),
	}
	repo := &github.Repository{NodeID: github.String("R_node")}

	body := BodyFromWebhook(issue, repo)

	require.Len(t, body.Managers, 1)
	assert.Equal(t, GhostLogin, body.Managers[0].Login)
}
