// Package model defines the linked-account user entity.
package model

import "time"

// User links a GitHub account to an optional Discord account. Records are
// created by the account-linking flow; the sync engine reads them to resolve
// Discord ids and maintains the per-user reward total.
// Matches the users table schema.
type User struct {
	GithubID    int64     `gorm:"primaryKey;column:github_id"                                   json:"github_id"`
	Login       string    `gorm:"column:login;type:varchar(255);not null;index:idx_users_login" json:"login"`
	AvatarURL   string    `gorm:"column:avatar_url;type:text"                                   json:"avatar_url"`
	DiscordID   *string   `gorm:"column:discord_id;type:varchar(64);index:idx_users_discord"    json:"discord_id,omitempty"`
	TotalEarned int       `gorm:"column:total_earned;not null;default:0"                        json:"total_earned"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"     json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"     json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// HasDiscord reports whether the user linked a Discord account.
func (u *User) HasDiscord() bool {
	return u.DiscordID != nil && *u.DiscordID != ""
}
