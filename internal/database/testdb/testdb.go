// Package testdb opens throwaway sqlite databases for repository and service
// tests. The production models carry postgres column defaults that sqlite
// cannot parse, so the schema here is declared through sqlite-friendly mirror
// structs sharing the production table and column names. The real DDL lives
// in migrations/ and is exercised by the postgres integration test.
package testdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type issueTable struct {
	IssueID        string     `gorm:"primaryKey;column:issue_id"`
	Number         int        `gorm:"column:number"`
	Title          string     `gorm:"column:title"`
	URL            string     `gorm:"column:url"`
	Description    string     `gorm:"column:description"`
	State          string     `gorm:"column:state"`
	Solved         bool       `gorm:"column:solved"`
	Rewarded       bool       `gorm:"column:rewarded"`
	Price          int        `gorm:"column:price"`
	Labels         string     `gorm:"column:labels"`
	Assignees      string     `gorm:"column:assignees"`
	Managers       string     `gorm:"column:managers"`
	OwnerLogin     string     `gorm:"column:owner_login;index:idx_issues_owner"`
	OwnerAvatarURL string     `gorm:"column:owner_avatar_url"`
	RepositoryID   string     `gorm:"column:repository_id;index:idx_issues_repo"`
	RepositoryName string     `gorm:"column:repository_name"`
	Thread         *string    `gorm:"column:thread"`
	Collaborators  string     `gorm:"column:collaborators"`
	Private        bool       `gorm:"column:private"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
	SolvedAt       *time.Time `gorm:"column:solved_at"`
}

func (issueTable) TableName() string { return "issues" }

type pullRequestTable struct {
	PullRequestID      string     `gorm:"primaryKey;column:pull_request_id"`
	Number             int        `gorm:"column:number"`
	Title              string     `gorm:"column:title"`
	URL                string     `gorm:"column:url"`
	Description        string     `gorm:"column:description"`
	State              string     `gorm:"column:state"`
	Merged             bool       `gorm:"column:merged"`
	MergedAt           *time.Time `gorm:"column:merged_at"`
	Draft              bool       `gorm:"column:draft"`
	LinkedIssues       string     `gorm:"column:linked_issues"`
	Assignees          string     `gorm:"column:assignees"`
	RequestedReviewers string     `gorm:"column:requested_reviewers"`
	Managers           string     `gorm:"column:managers"`
	Labels             string     `gorm:"column:labels"`
	RepositoryID       string     `gorm:"column:repository_id;index:idx_prs_repo"`
	RepositoryName     string     `gorm:"column:repository_name"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (pullRequestTable) TableName() string { return "pull_requests" }

type repositoryTable struct {
	RepositoryID   string    `gorm:"primaryKey;column:repository_id"`
	Name           string    `gorm:"column:name"`
	FullName       string    `gorm:"column:full_name"`
	URL            string    `gorm:"column:url"`
	OwnerLogin     string    `gorm:"column:owner_login;index:idx_repos_owner"`
	OwnerAvatarURL string    `gorm:"column:owner_avatar_url"`
	OwnerType      string    `gorm:"column:owner_type"`
	Private        bool      `gorm:"column:private"`
	State          string    `gorm:"column:state"`
	Stars          int       `gorm:"column:stars"`
	Forks          int       `gorm:"column:forks"`
	Collaborators  string    `gorm:"column:collaborators"`
	TotalIssues    int       `gorm:"column:total_issues"`
	TotalRewarded  int       `gorm:"column:total_rewarded"`
	TotalAvailable int       `gorm:"column:total_available"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (repositoryTable) TableName() string { return "repositories" }

type organizationTable struct {
	OrganizationID string    `gorm:"primaryKey;column:organization_id"`
	Title          string    `gorm:"column:title"`
	Description    string    `gorm:"column:description"`
	AvatarURL      string    `gorm:"column:avatar_url"`
	State          string    `gorm:"column:state"`
	Members        string    `gorm:"column:members"`
	TotalIssues    int       `gorm:"column:total_issues"`
	TotalRewarded  int       `gorm:"column:total_rewarded"`
	TotalAvailable int       `gorm:"column:total_available"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (organizationTable) TableName() string { return "organizations" }

type userTable struct {
	GithubID    int64     `gorm:"primaryKey;column:github_id"`
	Login       string    `gorm:"column:login;index:idx_users_login"`
	AvatarURL   string    `gorm:"column:avatar_url"`
	DiscordID   *string   `gorm:"column:discord_id;index:idx_users_discord"`
	TotalEarned int       `gorm:"column:total_earned"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (userTable) TableName() string { return "users" }

// Open returns an isolated in-memory database with all five mirror tables
// created.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&issueTable{},
		&pullRequestTable{},
		&repositoryTable{},
		&organizationTable{},
		&userTable{},
	))
	return db
}
