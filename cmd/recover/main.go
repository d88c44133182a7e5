// Package main provides the operator CLI for recovery and override sweeps.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appConfig "github.com/gitbounty/gitbounty/internal/config"
	"github.com/gitbounty/gitbounty/internal/database/database"
	"github.com/gitbounty/gitbounty/internal/database/migrate"
	"github.com/gitbounty/gitbounty/internal/discordbot"
	"github.com/gitbounty/gitbounty/internal/githubapi"
	issueRepo "github.com/gitbounty/gitbounty/internal/issue/repository"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	prRepo "github.com/gitbounty/gitbounty/internal/pullrequest/repository"
	prService "github.com/gitbounty/gitbounty/internal/pullrequest/service"
	"github.com/gitbounty/gitbounty/internal/recovery"
	repoRepo "github.com/gitbounty/gitbounty/internal/repo/repository"
	"github.com/gitbounty/gitbounty/internal/stats"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
	userService "github.com/gitbounty/gitbounty/internal/user/service"
	"github.com/gitbounty/gitbounty/pkg/logger"
)

// app bundles the dependencies shared by the subcommands.
type app struct {
	cfg          appConfig.Config
	db           *gorm.DB
	logger       *zap.SugaredLogger
	issues       issueRepo.Repository
	issueSvc     issueService.Service
	recalculator *stats.Recalculator
	users        userRepo.Repository
	repos        repoRepo.Repository
	orgs         orgRepo.Repository
	prSvc        prService.Service
}

func newApp() (*app, error) {
	cfg := appConfig.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	zapLogger, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.New()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrate.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	issues := issueRepo.New(db)
	repos := repoRepo.New(db)
	orgs := orgRepo.New(db)
	users := userRepo.New(db)
	prs := prRepo.New(db)

	recalculator := stats.New(issues, repos, orgs, users, zapLogger)
	issueSvc := issueService.New(issues, recalculator, zapLogger)
	prSvc := prService.New(prs, issueSvc, nil, zapLogger)

	return &app{
		cfg:          cfg,
		db:           db,
		logger:       zapLogger,
		issues:       issues,
		issueSvc:     issueSvc,
		recalculator: recalculator,
		users:        users,
		repos:        repos,
		orgs:         orgs,
		prSvc:        prSvc,
	}, nil
}

func (a *app) close() {
	a.recalculator.Wait()
	if err := database.Close(a.db); err != nil {
		a.logger.Errorw("failed to close database", "error", err)
	}
	_ = a.logger.Sync()
}

func newOrgCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "org <name>",
		Short: "Crawl an organization and rebuild its mirror",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			crawler := recovery.New(githubapi.New(a.cfg.GitHub.Token), a.issueSvc, a.prSvc, a.repos, a.orgs, a.logger)
			return crawler.RecoverOrganization(cmd.Context(), args[0])
		},
	}
}

func newOverrideAssigneeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "override-assignee <login>",
		Short: "Refresh a login's account data on all assigned issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			overrider := recovery.NewOverrider(a.issueSvc, a.issues, a.users, a.logger)
			updated, err := overrider.OverrideAssignee(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d issues\n", updated)
			return nil
		},
	}
}

func newOverrideManagerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "override-manager <login>",
		Short: "Refresh a login's account data on all managed issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			overrider := recovery.NewOverrider(a.issueSvc, a.issues, a.users, a.logger)
			updated, err := overrider.OverrideManager(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d issues\n", updated)
			return nil
		},
	}
}

func newThreadsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "threads <login>",
		Short: "Re-add a linked user to the threads of their assigned issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			session, err := discordgo.New("Bot " + a.cfg.Discord.BotToken)
			if err != nil {
				return fmt.Errorf("failed to create discord session: %w", err)
			}
			if err := session.Open(); err != nil {
				return fmt.Errorf("failed to open discord session: %w", err)
			}
			defer func() { _ = session.Close() }()

			coordinator := discordbot.New(
				session,
				a.cfg.Discord.ChannelID,
				a.cfg.Discord.ThreadArchiveMinutes,
				a.issueSvc,
				a.users,
				a.logger,
			)
			userSvc := userService.New(a.users, a.issues, coordinator, a.logger)
			return userSvc.RecoverThreads(cmd.Context(), args[0])
		},
	}
}

func newLinkDiscordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link-discord <github-id> <login> <discord-id>",
		Short: "Link a Discord account to a GitHub account and recover its threads",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			githubID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid github id %q: %w", args[0], err)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			session, err := discordgo.New("Bot " + a.cfg.Discord.BotToken)
			if err != nil {
				return fmt.Errorf("failed to create discord session: %w", err)
			}
			if err := session.Open(); err != nil {
				return fmt.Errorf("failed to open discord session: %w", err)
			}
			defer func() { _ = session.Close() }()

			coordinator := discordbot.New(
				session,
				a.cfg.Discord.ChannelID,
				a.cfg.Discord.ThreadArchiveMinutes,
				a.issueSvc,
				a.users,
				a.logger,
			)
			userSvc := userService.New(a.users, a.issues, coordinator, a.logger)
			user, err := userSvc.LinkDiscord(cmd.Context(), githubID, args[1], "", args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "linked %s to discord %s\n", user.Login, *user.DiscordID)
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "recover",
		Short:         "Bounty mirror recovery and override sweeps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newOrgCommand(),
		newOverrideAssigneeCommand(),
		newOverrideManagerCommand(),
		newThreadsCommand(),
		newLinkDiscordCommand(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
