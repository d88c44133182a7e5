package config

import "fmt"

// DiscordConfig holds Discord bot configuration.
type DiscordConfig struct {
	// BotToken is the Discord bot token.
	BotToken string
	// ChannelID is the channel bounty threads are created under.
	ChannelID string
	// ThreadArchiveMinutes is the thread auto-archive duration in minutes.
	ThreadArchiveMinutes int
}

// LoadDiscordConfigFromEnv loads Discord configuration from environment variables.
func LoadDiscordConfigFromEnv() DiscordConfig {
	return DiscordConfig{
		BotToken:             GetEnv("DISCORD_BOT_TOKEN", ""),
		ChannelID:            GetEnv("DISCORD_CHANNEL_ID", ""),
		ThreadArchiveMinutes: GetEnvInt("DISCORD_THREAD_ARCHIVE_MINUTES", 10080),
	}
}

// Validate validates Discord configuration.
func (c DiscordConfig) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required")
	}
	validDurations := map[int]bool{60: true, 1440: true, 4320: true, 10080: true}
	if !validDurations[c.ThreadArchiveMinutes] {
		return fmt.Errorf(
			"invalid DISCORD_THREAD_ARCHIVE_MINUTES: %d (must be: 60, 1440, 4320, 10080)",
			c.ThreadArchiveMinutes)
	}
	return nil
}
