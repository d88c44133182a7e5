// Package model defines the mirrored GitHub repository entity.
package model

import "time"

// Onboarding states for a mirrored repository.
const (
	StatePending  = "pending"
	StateAccepted = "accepted"
	StateRejected = "rejected"
	StateDeleted  = "deleted"
)

// Owner types reported by GitHub.
const (
	OwnerTypeOrganization = "Organization"
	OwnerTypeUser         = "User"
)

// Repository represents a repository mirrored from GitHub.
// Matches the repositories table schema.
type Repository struct {
	RepositoryID   string    `gorm:"primaryKey;column:repository_id;type:varchar(255)"            json:"repository_id"`
	Name           string    `gorm:"column:name;type:varchar(255);not null"                       json:"name"`
	FullName       string    `gorm:"column:full_name;type:varchar(512);not null"                  json:"full_name"`
	URL            string    `gorm:"column:url;type:text"                                         json:"url"`
	OwnerLogin     string    `gorm:"column:owner_login;type:varchar(255);index:idx_repos_owner"   json:"owner_login"`
	OwnerAvatarURL string    `gorm:"column:owner_avatar_url;type:text"                            json:"owner_avatar_url"`
	OwnerType      string    `gorm:"column:owner_type;type:varchar(16);not null"                  json:"owner_type"`
	Private        bool      `gorm:"column:private;not null;default:false"                        json:"private"`
	State          string    `gorm:"column:state;type:varchar(16);not null;default:'pending'"     json:"state"`
	Stars          int       `gorm:"column:stars;not null;default:0"                              json:"stars"`
	Forks          int       `gorm:"column:forks;not null;default:0"                              json:"forks"`
	Collaborators  []string  `gorm:"column:collaborators;type:text;serializer:json"               json:"collaborators"`
	TotalIssues    int       `gorm:"column:total_issues;not null;default:0"                       json:"total_issues"`
	TotalRewarded  int       `gorm:"column:total_rewarded;not null;default:0"                     json:"total_rewarded"`
	TotalAvailable int       `gorm:"column:total_available;not null;default:0"                    json:"total_available"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"    json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"    json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Repository) TableName() string {
	return "repositories"
}

// Accepted reports whether the repository passed onboarding review.
func (r *Repository) Accepted() bool {
	return r.State == StateAccepted
}

// HasCollaborator reports whether login is in the collaborator list.
func (r *Repository) HasCollaborator(login string) bool {
	for _, c := range r.Collaborators {
		if c == login {
			return true
		}
	}
	return false
}

// RepositoryBody is the partial-update shape for repository upserts. Nil
// fields are left untouched on update.
type RepositoryBody struct {
	RepositoryID  string
	Name          *string
	FullName      *string
	URL           *string
	OwnerLogin    *string
	OwnerAvatar   *string
	OwnerType     *string
	Private       *bool
	State         *string
	Stars         *int
	Forks         *int
	Collaborators []string
}

// NewRepository builds a full record from a body with creation defaults.
func NewRepository(b *RepositoryBody) *Repository {
	repo := &Repository{
		RepositoryID:  b.RepositoryID,
		OwnerType:     OwnerTypeUser,
		State:         StatePending,
		Collaborators: []string{},
	}
	repo.Apply(b)
	return repo
}

// Apply merges the body into an existing record.
func (r *Repository) Apply(b *RepositoryBody) {
	if b.Name != nil {
		r.Name = *b.Name
	}
	if b.FullName != nil {
		r.FullName = *b.FullName
	}
	if b.URL != nil {
		r.URL = *b.URL
	}
	if b.OwnerLogin != nil {
		r.OwnerLogin = *b.OwnerLogin
	}
	if b.OwnerAvatar != nil {
		r.OwnerAvatarURL = *b.OwnerAvatar
	}
	if b.OwnerType != nil {
		r.OwnerType = *b.OwnerType
	}
	if b.Private != nil {
		r.Private = *b.Private
	}
	if b.State != nil {
		r.State = *b.State
	}
	if b.Stars != nil {
		r.Stars = *b.Stars
	}
	if b.Forks != nil {
		r.Forks = *b.Forks
	}
	if b.Collaborators != nil {
		r.Collaborators = b.Collaborators
	}
}
