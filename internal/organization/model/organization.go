// Package model defines the mirrored GitHub organization entity.
package model

import "time"

// Onboarding states for a mirrored organization.
const (
	StatePending  = "pending"
	StateAccepted = "accepted"
	StateRejected = "rejected"
)

// Member is an organization member with locally-managed edit rights.
type Member struct {
	Login      string `json:"login"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	Role       string `json:"role,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	CanEdit    bool   `json:"can_edit"`
}

// Organization represents an organization mirrored from GitHub.
// Matches the organizations table schema.
type Organization struct {
	OrganizationID string    `gorm:"primaryKey;column:organization_id;type:varchar(255)"        json:"organization_id"`
	Title          string    `gorm:"column:title;type:varchar(255);not null"                    json:"title"`
	Description    string    `gorm:"column:description;type:text"                               json:"description"`
	AvatarURL      string    `gorm:"column:avatar_url;type:text"                                json:"avatar_url"`
	State          string    `gorm:"column:state;type:varchar(16);not null;default:'pending'"   json:"state"`
	Members        []Member  `gorm:"column:members;type:text;serializer:json"                   json:"members"`
	TotalIssues    int       `gorm:"column:total_issues;not null;default:0"                     json:"total_issues"`
	TotalRewarded  int       `gorm:"column:total_rewarded;not null;default:0"                   json:"total_rewarded"`
	TotalAvailable int       `gorm:"column:total_available;not null;default:0"                  json:"total_available"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"  json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"  json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Organization) TableName() string {
	return "organizations"
}

// Accepted reports whether the organization passed onboarding review.
func (o *Organization) Accepted() bool {
	return o.State == StateAccepted
}

// HasMember reports whether login belongs to the organization.
func (o *Organization) HasMember(login string) bool {
	for _, m := range o.Members {
		if m.Login == login {
			return true
		}
	}
	return false
}

// OrganizationBody is the partial-update shape for organization upserts.
// Nil fields are left untouched on update. A non-nil Members list is a full
// roster replace, except that locally-set CanEdit flags survive the refresh.
type OrganizationBody struct {
	OrganizationID string
	Title          *string
	Description    *string
	AvatarURL      *string
	State          *string
	Members        []Member
}

// NewOrganization builds a full record from a body with creation defaults.
func NewOrganization(b *OrganizationBody) *Organization {
	org := &Organization{
		OrganizationID: b.OrganizationID,
		State:          StatePending,
		Members:        []Member{},
	}
	org.Apply(b)
	return org
}

// Apply merges the body into an existing record.
func (o *Organization) Apply(b *OrganizationBody) {
	if b.Title != nil {
		o.Title = *b.Title
	}
	if b.Description != nil {
		o.Description = *b.Description
	}
	if b.AvatarURL != nil {
		o.AvatarURL = *b.AvatarURL
	}
	if b.State != nil {
		o.State = *b.State
	}
	if b.Members != nil {
		o.Members = mergeMembers(o.Members, b.Members)
	}
}

// mergeMembers replaces the roster with incoming, preserving the CanEdit
// flag of members that were already present. CanEdit is set through the
// admin surface, not by GitHub, so a membership sync must not clobber it.
func mergeMembers(existing, incoming []Member) []Member {
	canEdit := make(map[string]bool, len(existing))
	for _, m := range existing {
		if m.CanEdit {
			canEdit[m.Login] = true
		}
	}

	merged := make([]Member, 0, len(incoming))
	seen := make(map[string]bool, len(incoming))
	for _, m := range incoming {
		if m.Login == "" || seen[m.Login] {
			continue
		}
		seen[m.Login] = true
		if canEdit[m.Login] {
			m.CanEdit = true
		}
		merged = append(merged, m)
	}
	return merged
}
