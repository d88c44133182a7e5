// Package discordbot coordinates per-issue Discord threads and the reward
// confirmation flow.
package discordbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

// RewardCustomIDPrefix prefixes the component custom id of the reward
// confirmation button; the issue's external id follows.
const RewardCustomIDPrefix = "received_reward_"

// Session is the slice of the Discord API the coordinator uses. Implemented
// by *discordgo.Session; tests substitute a fake.
type Session interface {
	ThreadStartComplex(channelID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ThreadMemberAdd(threadID, memberID string, options ...discordgo.RequestOption) error
	ThreadMemberRemove(threadID, memberID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Coordinator owns the Discord side of a bounty issue: one private thread
// per priced issue, membership kept in step with assignment, and the reward
// confirmation button.
type Coordinator struct {
	session        Session
	channelID      string
	archiveMinutes int
	issues         issueService.Service
	users          userRepo.Repository
	logger         *zap.SugaredLogger
}

// New creates a new coordinator instance.
func New(session Session, channelID string, archiveMinutes int, issues issueService.Service, users userRepo.Repository, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		session:        session,
		channelID:      channelID,
		archiveMinutes: archiveMinutes,
		issues:         issues,
		users:          users,
		logger:         logger,
	}
}

// EnsureThread creates the issue's private thread on first pricing, or posts
// a price-update notice into the existing thread. The returned thread
// carries the final member list; nil members that were already present are
// not re-added.
func (c *Coordinator) EnsureThread(ctx context.Context, issue *issueModel.Issue, memberDiscordIDs []string) (*issueModel.Thread, error) {
	if issue.Thread != nil && issue.Thread.ID != "" {
		return c.updateThread(issue, memberDiscordIDs)
	}
	return c.createThread(issue, memberDiscordIDs)
}

func (c *Coordinator) createThread(issue *issueModel.Issue, memberDiscordIDs []string) (*issueModel.Thread, error) {
	name := fmt.Sprintf("Issue #%d", issue.Number)
	channel, err := c.session.ThreadStartComplex(c.channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: c.archiveMinutes,
		Invitable:           false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start thread: %w", err)
	}

	thread := &issueModel.Thread{
		ID:      channel.ID,
		Name:    name,
		Members: []string{},
	}

	content := fmt.Sprintf("A $%d bounty has been placed on issue #%d: %s", issue.Price, issue.Number, issue.URL)
	if _, err := c.session.ChannelMessageSendComplex(thread.ID, &discordgo.MessageSend{Content: content}); err != nil {
		c.logger.Errorw("thread intro message failed", "thread_id", thread.ID, "error", err)
	}

	for _, id := range memberDiscordIDs {
		if err := c.session.ThreadMemberAdd(thread.ID, id); err != nil {
			c.logger.Errorw("thread member add failed", "thread_id", thread.ID, "member", id, "error", err)
			continue
		}
		thread.Members = append(thread.Members, id)
	}

	c.logger.Infow("thread created", "thread_id", thread.ID, "issue_id", issue.IssueID)
	return thread, nil
}

func (c *Coordinator) updateThread(issue *issueModel.Issue, memberDiscordIDs []string) (*issueModel.Thread, error) {
	thread := &issueModel.Thread{
		ID:      issue.Thread.ID,
		Name:    issue.Thread.Name,
		Members: append([]string{}, issue.Thread.Members...),
	}

	content := fmt.Sprintf("Price has been updated to $%d", issue.Price)
	if _, err := c.session.ChannelMessageSendComplex(thread.ID, &discordgo.MessageSend{Content: content}); err != nil {
		return nil, fmt.Errorf("failed to post price update: %w", err)
	}

	present := make(map[string]bool, len(thread.Members))
	for _, id := range thread.Members {
		present[id] = true
	}
	for _, id := range memberDiscordIDs {
		if present[id] {
			continue
		}
		if err := c.session.ThreadMemberAdd(thread.ID, id); err != nil {
			c.logger.Errorw("thread member add failed", "thread_id", thread.ID, "member", id, "error", err)
			continue
		}
		thread.Members = append(thread.Members, id)
	}

	return thread, nil
}

// AddAssignee invites a newly-assigned user into the issue's thread. Users
// without a linked Discord account and issues without a thread are skipped.
func (c *Coordinator) AddAssignee(ctx context.Context, issue *issueModel.Issue, login string) error {
	return c.changeMembership(ctx, issue, login, true)
}

// RemoveAssignee removes an unassigned user from the issue's thread.
func (c *Coordinator) RemoveAssignee(ctx context.Context, issue *issueModel.Issue, login string) error {
	return c.changeMembership(ctx, issue, login, false)
}

func (c *Coordinator) changeMembership(ctx context.Context, issue *issueModel.Issue, login string, add bool) error {
	if issue.Thread == nil || issue.Thread.ID == "" {
		return nil
	}

	user, err := c.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, userModel.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.HasDiscord() {
		return nil
	}

	discordID := *user.DiscordID
	if add {
		err = c.session.ThreadMemberAdd(issue.Thread.ID, discordID)
	} else {
		err = c.session.ThreadMemberRemove(issue.Thread.ID, discordID)
	}
	if err != nil {
		return fmt.Errorf("failed to change thread membership: %w", err)
	}

	thread := &issueModel.Thread{
		ID:      issue.Thread.ID,
		Name:    issue.Thread.Name,
		Members: []string{},
	}
	for _, id := range issue.Thread.Members {
		if id != discordID {
			thread.Members = append(thread.Members, id)
		}
	}
	if add {
		thread.Members = append(thread.Members, discordID)
	}

	_, err = c.issues.AttachThread(ctx, issue.IssueID, thread)
	return err
}

// AnnounceSolved posts the solved notice and the reward confirmation button
// into the issue's thread. Issues without a thread have no bounty audience
// and are skipped.
func (c *Coordinator) AnnounceSolved(ctx context.Context, issue *issueModel.Issue) error {
	if issue.Thread == nil || issue.Thread.ID == "" {
		return nil
	}

	content := fmt.Sprintf("Issue #%d has been solved! The $%d reward is on its way. Press the button below once you have received it.", issue.Number, issue.Price)
	_, err := c.session.ChannelMessageSendComplex(issue.Thread.ID, &discordgo.MessageSend{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "I received my reward",
						Style:    discordgo.SuccessButton,
						CustomID: RewardCustomIDPrefix + issue.IssueID,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to announce solved issue: %w", err)
	}
	return nil
}

// HandleInteraction processes a reward confirmation button press. Presses by
// users who are not linked, not assignees, or who already confirmed get an
// ephemeral explanation; valid presses mark the assignee rewarded.
func (c *Coordinator) HandleInteraction(ctx context.Context, interaction *discordgo.InteractionCreate) error {
	if interaction.Type != discordgo.InteractionMessageComponent {
		return nil
	}
	customID := interaction.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, RewardCustomIDPrefix) {
		return nil
	}
	issueID := strings.TrimPrefix(customID, RewardCustomIDPrefix)

	discordID := interactionUserID(interaction)
	if discordID == "" {
		return c.respond(interaction, "Could not identify your account.")
	}

	user, err := c.users.GetByDiscordID(ctx, discordID)
	if err != nil {
		if errors.Is(err, userModel.ErrUserNotFound) {
			return c.respond(interaction, "Your Discord account is not linked to a GitHub account.")
		}
		return err
	}

	_, err = c.issues.MarkAssigneeRewarded(ctx, issueID, user.Login)
	switch {
	case err == nil:
		return c.respond(interaction, "Reward confirmed. Congratulations!")
	case errors.Is(err, issueModel.ErrIssueNotFound):
		return c.respond(interaction, "This issue no longer exists.")
	case errors.Is(err, issueModel.ErrIssueNotSolved):
		return c.respond(interaction, "This issue is not solved yet.")
	case errors.Is(err, issueModel.ErrNotAnAssignee):
		return c.respond(interaction, "Only assignees of this issue can confirm the reward.")
	case errors.Is(err, issueModel.ErrAlreadyRewarded):
		return c.respond(interaction, "You already confirmed this reward.")
	default:
		return err
	}
}

func (c *Coordinator) respond(interaction *discordgo.InteractionCreate, content string) error {
	return c.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// interactionUserID resolves the acting user for both guild and DM
// interactions.
func interactionUserID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}
