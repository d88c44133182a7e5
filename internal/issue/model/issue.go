// Package model defines the canonical issue entity and its projections.
package model

import (
	"time"
)

// UserRef is a denormalized reference to a GitHub account.
type UserRef struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Assignee is a user assigned to an issue, with per-assignee reward state.
type Assignee struct {
	Login      string    `json:"login"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Rewarded   bool      `json:"rewarded"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Thread is the Discord thread associated with a bounty-bearing issue.
type Thread struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// RepositoryRef is a denormalized reference to the owning repository.
type RepositoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue represents an issue mirrored from GitHub.
// Matches the issues table schema.
type Issue struct {
	IssueID        string     `gorm:"primaryKey;column:issue_id;type:varchar(255)"                  json:"issue_id"`
	Number         int        `gorm:"column:number;not null"                                        json:"number"`
	Title          string     `gorm:"column:title;type:text;not null"                               json:"title"`
	URL            string     `gorm:"column:url;type:text"                                          json:"url"`
	Description    string     `gorm:"column:description;type:text"                                  json:"description"`
	State          string     `gorm:"column:state;type:varchar(16);not null"                        json:"state"`
	Solved         bool       `gorm:"column:solved;not null;default:false"                          json:"solved"`
	Rewarded       bool       `gorm:"column:rewarded;not null;default:false"                        json:"rewarded"`
	Price          int        `gorm:"column:price;not null;default:0"                               json:"price"`
	Labels         []string   `gorm:"column:labels;type:text;serializer:json"                       json:"labels"`
	Assignees      []Assignee `gorm:"column:assignees;type:text;serializer:json"                    json:"assignees"`
	Managers       []UserRef  `gorm:"column:managers;type:text;serializer:json"                     json:"managers"`
	OwnerLogin     string     `gorm:"column:owner_login;type:varchar(255);index:idx_issues_owner"   json:"owner_login"`
	OwnerAvatarURL string     `gorm:"column:owner_avatar_url;type:text"                             json:"owner_avatar_url"`
	RepositoryID   string     `gorm:"column:repository_id;type:varchar(255);index:idx_issues_repo"  json:"repository_id"`
	RepositoryName string     `gorm:"column:repository_name;type:varchar(255)"                      json:"repository_name"`
	Thread         *Thread    `gorm:"column:thread;type:text;serializer:json"                       json:"thread,omitempty"`
	Collaborators  []string   `gorm:"column:collaborators;type:text;serializer:json"                json:"collaborators"`
	Private        bool       `gorm:"column:private;not null;default:false"                         json:"private"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"     json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"     json:"updated_at"`
	SolvedAt       *time.Time `gorm:"column:solved_at;type:timestamptz"                             json:"solved_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (Issue) TableName() string {
	return "issues"
}

// HasAssignee reports whether login is currently assigned.
func (i *Issue) HasAssignee(login string) bool {
	for _, a := range i.Assignees {
		if a.Login == login {
			return true
		}
	}
	return false
}

// HasManager reports whether login is an authorized price-setter.
func (i *Issue) HasManager(login string) bool {
	for _, m := range i.Managers {
		if m.Login == login {
			return true
		}
	}
	return false
}

// AllAssigneesRewarded reports whether every assignee has confirmed receipt.
// False when there are no assignees.
func (i *Issue) AllAssigneesRewarded() bool {
	if len(i.Assignees) == 0 {
		return false
	}
	for _, a := range i.Assignees {
		if !a.Rewarded {
			return false
		}
	}
	return true
}
