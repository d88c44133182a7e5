package config

import "fmt"

// GitHubConfig holds GitHub API and webhook configuration.
type GitHubConfig struct {
	// Token is the API token used for REST and GraphQL calls.
	Token string
	// WebhookSecret is the shared secret used to validate webhook signatures.
	WebhookSecret string
	// WebhookPath is the path the webhook endpoint is mounted on.
	WebhookPath string
}

// LoadGitHubConfigFromEnv loads GitHub configuration from environment variables.
func LoadGitHubConfigFromEnv() GitHubConfig {
	return GitHubConfig{
		Token:         GetEnv("GITHUB_TOKEN", ""),
		WebhookSecret: GetEnv("GITHUB_WEBHOOK_SECRET", ""),
		WebhookPath:   GetEnv("GITHUB_WEBHOOK_PATH", "/webhook/github"),
	}
}

// Validate validates GitHub configuration.
func (c GitHubConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("GITHUB_WEBHOOK_SECRET is required")
	}
	if c.WebhookPath == "" || c.WebhookPath[0] != '/' {
		return fmt.Errorf("invalid GITHUB_WEBHOOK_PATH: %s (must start with /)", c.WebhookPath)
	}
	return nil
}
