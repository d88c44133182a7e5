//go:build integration
// +build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/gitbounty/gitbounty/internal/database/migrate"
	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
)

// setupPostgres starts a disposable PostgreSQL container and applies the real
// migrations, exercising the same path the server takes on startup.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	db, err := gorm.Open(postgresDriver.Open(connStr), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err, "failed to connect to database")

	t.Setenv("MIGRATIONS_PATH", "../../../migrations")
	require.NoError(t, migrate.Migrate(db), "failed to apply migrations")

	return db
}

func TestPostgres_IssueLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := New(setupPostgres(t))

	number := 42
	title := "Crash on launch"
	state := "open"
	assignedAt := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	issue, err := repo.CreateOrUpdate(ctx, &issueModel.IssueBody{
		IssueID: "I_1",
		Number:  &number,
		Title:   &title,
		State:   &state,
		Labels:  []string{"bug"},
		Assignees: []issueModel.Assignee{
			{Login: "alice", AssignedAt: assignedAt},
		},
		Managers:   []issueModel.UserRef{{Login: "carol"}},
		Owner:      &issueModel.UserRef{Login: "acme"},
		Repository: &issueModel.RepositoryRef{ID: "R_1", Name: "widgets"},
		Thread:     &issueModel.Thread{ID: "T_1", Name: "Issue #42", Members: []string{"d-alice"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)

	// The JSON-serialized columns survive a real postgres round trip.
	stored, err := repo.GetByIssueID(ctx, "I_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bug"}, stored.Labels)
	require.Len(t, stored.Assignees, 1)
	assert.Equal(t, "alice", stored.Assignees[0].Login)
	assert.True(t, stored.HasManager("carol"))
	require.NotNil(t, stored.Thread)
	assert.Equal(t, "T_1", stored.Thread.ID)
	assert.Equal(t, []string{"d-alice"}, stored.Thread.Members)

	// Partial update leaves everything the body does not carry untouched.
	price := 100
	_, err = repo.CreateOrUpdate(ctx, &issueModel.IssueBody{
		IssueID: "I_1",
		Price:   &price,
	})
	require.NoError(t, err)

	stored, err = repo.GetByIssueID(ctx, "I_1")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Price)
	assert.Equal(t, "Crash on launch", stored.Title)
	require.Len(t, stored.Assignees, 1)

	// Queries over serialized columns work against postgres.
	byAssignee, err := repo.ListByAssignee(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)

	byManager, err := repo.ListByManager(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, byManager, 1)

	byNumber, err := repo.GetByNumberAndRepository(ctx, 42, "R_1")
	require.NoError(t, err)
	assert.Equal(t, "I_1", byNumber.IssueID)

	require.NoError(t, repo.DeleteByIssueID(ctx, "I_1"))
	_, err = repo.GetByIssueID(ctx, "I_1")
	assert.ErrorIs(t, err, issueModel.ErrIssueNotFound)
}
