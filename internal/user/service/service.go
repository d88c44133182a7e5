// Package service provides business logic layer for the user module.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueRepo "github.com/gitbounty/gitbounty/internal/issue/repository"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	"github.com/gitbounty/gitbounty/internal/user/repository"
)

// ThreadMembership re-adds a user to an issue's Discord thread.
type ThreadMembership interface {
	AddAssignee(ctx context.Context, issue *issueModel.Issue, login string) error
}

// Service defines the interface for user business logic operations.
type Service interface {
	// LinkDiscord links a Discord account to a GitHub account, creating the
	// user record on first contact, and re-adds the user to the threads of
	// issues they are assigned to.
	LinkDiscord(ctx context.Context, githubID int64, login, avatarURL, discordID string) (*userModel.User, error)

	// GetByLogin finds a user by GitHub login.
	GetByLogin(ctx context.Context, login string) (*userModel.User, error)

	// RecoverThreads re-adds a user to the Discord thread of every issue
	// they are assigned to. Threads the user already belongs to are left
	// alone by the membership layer. Returns ErrDiscordNotLinked when the
	// user has no Discord account to invite.
	RecoverThreads(ctx context.Context, login string) error
}

type service struct {
	repo    repository.Repository
	issues  issueRepo.Repository
	threads ThreadMembership
	logger  *zap.SugaredLogger
}

// New creates a new user service instance. Threads may be nil; linking then
// skips thread recovery.
func New(repo repository.Repository, issues issueRepo.Repository, threads ThreadMembership, logger *zap.SugaredLogger) Service {
	return &service{
		repo:    repo,
		issues:  issues,
		threads: threads,
		logger:  logger,
	}
}

// LinkDiscord links a Discord account to a GitHub account.
func (s *service) LinkDiscord(ctx context.Context, githubID int64, login, avatarURL, discordID string) (*userModel.User, error) {
	user, err := s.repo.GetByGithubID(ctx, githubID)
	if err != nil {
		if !errors.Is(err, userModel.ErrUserNotFound) {
			return nil, err
		}
		user = &userModel.User{GithubID: githubID}
	}

	user.Login = login
	if avatarURL != "" {
		user.AvatarURL = avatarURL
	}
	user.DiscordID = &discordID

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("discord account linked", "login", login, "github_id", githubID)

	if recoverErr := s.RecoverThreads(ctx, login); recoverErr != nil {
		// Linking succeeded; missing thread invites are re-attempted on the
		// next assignment event.
		s.logger.Errorw("thread recovery after linking failed", "login", login, "error", recoverErr)
	}
	return user, nil
}

// GetByLogin finds a user by GitHub login.
func (s *service) GetByLogin(ctx context.Context, login string) (*userModel.User, error) {
	return s.repo.GetByLogin(ctx, login)
}

// RecoverThreads re-adds a user to the thread of every assigned issue.
func (s *service) RecoverThreads(ctx context.Context, login string) error {
	if s.threads == nil {
		return nil
	}

	user, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		return err
	}
	if !user.HasDiscord() {
		return userModel.ErrDiscordNotLinked
	}

	issues, err := s.issues.ListByAssignee(ctx, login)
	if err != nil {
		return err
	}

	for idx := range issues {
		issue := &issues[idx]
		if issue.Thread == nil || issue.Thread.ID == "" {
			continue
		}
		if err := s.threads.AddAssignee(ctx, issue, login); err != nil {
			s.logger.Errorw("thread re-add failed",
				"issue_id", issue.IssueID,
				"login", login,
				"error", err,
			)
		}
	}
	return nil
}
