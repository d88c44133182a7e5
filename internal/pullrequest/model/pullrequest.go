// Package model defines the mirrored pull request entity.
package model

import (
	"time"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
)

// PullRequest represents a pull request mirrored from GitHub.
// Matches the pull_requests table schema.
type PullRequest struct {
	PullRequestID      string               `gorm:"primaryKey;column:pull_request_id;type:varchar(255)"         json:"pull_request_id"`
	Number             int                  `gorm:"column:number;not null"                                      json:"number"`
	Title              string               `gorm:"column:title;type:text;not null"                             json:"title"`
	URL                string               `gorm:"column:url;type:text"                                        json:"url"`
	Description        string               `gorm:"column:description;type:text"                                json:"description"`
	State              string               `gorm:"column:state;type:varchar(16);not null"                      json:"state"`
	Merged             bool                 `gorm:"column:merged;not null;default:false"                        json:"merged"`
	MergedAt           *time.Time           `gorm:"column:merged_at;type:timestamptz"                           json:"merged_at,omitempty"`
	Draft              bool                 `gorm:"column:draft;not null;default:false"                         json:"draft"`
	LinkedIssues       []int                `gorm:"column:linked_issues;type:text;serializer:json"              json:"linked_issues"`
	Assignees          []issueModel.UserRef `gorm:"column:assignees;type:text;serializer:json"                  json:"assignees"`
	RequestedReviewers []issueModel.UserRef `gorm:"column:requested_reviewers;type:text;serializer:json"        json:"requested_reviewers"`
	Managers           []issueModel.UserRef `gorm:"column:managers;type:text;serializer:json"                   json:"managers"`
	Labels             []string             `gorm:"column:labels;type:text;serializer:json"                     json:"labels"`
	RepositoryID       string               `gorm:"column:repository_id;type:varchar(255);index:idx_prs_repo"   json:"repository_id"`
	RepositoryName     string               `gorm:"column:repository_name;type:varchar(255)"                    json:"repository_name"`
	CreatedAt          time.Time            `gorm:"column:created_at;type:timestamptz;not null;default:now()"   json:"created_at"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;type:timestamptz;not null;default:now()"   json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (PullRequest) TableName() string {
	return "pull_requests"
}

// PullRequestBody is the partial-update shape for pull request upserts.
// Nil fields are left untouched on update.
type PullRequestBody struct {
	PullRequestID      string
	Number             *int
	Title              *string
	URL                *string
	Description        *string
	State              *string
	Merged             *bool
	MergedAt           *time.Time
	Draft              *bool
	LinkedIssues       []int
	Assignees          []issueModel.UserRef
	RequestedReviewers []issueModel.UserRef
	Managers           []issueModel.UserRef
	Labels             []string
	Repository         *issueModel.RepositoryRef
}

// NewPullRequest builds a full record from a body with creation defaults.
func NewPullRequest(b *PullRequestBody) *PullRequest {
	pr := &PullRequest{
		PullRequestID:      b.PullRequestID,
		State:              "open",
		LinkedIssues:       []int{},
		Assignees:          []issueModel.UserRef{},
		RequestedReviewers: []issueModel.UserRef{},
		Managers:           []issueModel.UserRef{},
		Labels:             []string{},
	}
	pr.Apply(b)
	return pr
}

// Apply merges the body into an existing record.
func (p *PullRequest) Apply(b *PullRequestBody) {
	if b.Number != nil {
		p.Number = *b.Number
	}
	if b.Title != nil {
		p.Title = *b.Title
	}
	if b.URL != nil {
		p.URL = *b.URL
	}
	if b.Description != nil {
		p.Description = *b.Description
	}
	if b.State != nil {
		p.State = *b.State
	}
	if b.Merged != nil {
		p.Merged = *b.Merged
	}
	if b.MergedAt != nil {
		p.MergedAt = b.MergedAt
	}
	if b.Draft != nil {
		p.Draft = *b.Draft
	}
	if b.LinkedIssues != nil {
		p.LinkedIssues = b.LinkedIssues
	}
	if b.Assignees != nil {
		p.Assignees = b.Assignees
	}
	if b.RequestedReviewers != nil {
		p.RequestedReviewers = b.RequestedReviewers
	}
	if b.Managers != nil {
		p.Managers = b.Managers
	}
	if b.Labels != nil {
		p.Labels = b.Labels
	}
	if b.Repository != nil {
		p.RepositoryID = b.Repository.ID
		p.RepositoryName = b.Repository.Name
	}
}
