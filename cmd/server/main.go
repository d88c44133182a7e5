// Package main provides the entry point for the webhook server.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"

	appConfig "github.com/gitbounty/gitbounty/internal/config"
	"github.com/gitbounty/gitbounty/internal/database/database"
	"github.com/gitbounty/gitbounty/internal/database/migrate"
	"github.com/gitbounty/gitbounty/internal/discordbot"
	"github.com/gitbounty/gitbounty/internal/eligibility"
	"github.com/gitbounty/gitbounty/internal/githubapi"
	"github.com/gitbounty/gitbounty/internal/health"
	issueRepo "github.com/gitbounty/gitbounty/internal/issue/repository"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	"github.com/gitbounty/gitbounty/internal/middleware"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	prRepo "github.com/gitbounty/gitbounty/internal/pullrequest/repository"
	prService "github.com/gitbounty/gitbounty/internal/pullrequest/service"
	"github.com/gitbounty/gitbounty/internal/price"
	"github.com/gitbounty/gitbounty/internal/recovery"
	repoRepo "github.com/gitbounty/gitbounty/internal/repo/repository"
	"github.com/gitbounty/gitbounty/internal/stats"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
	"github.com/gitbounty/gitbounty/internal/webhook"
	"github.com/gitbounty/gitbounty/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := appConfig.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	gin.SetMode(cfg.GinMode)

	db, err := database.New()
	if err != nil {
		zapLogger.Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			zapLogger.Errorw("failed to close database", "error", closeErr)
		}
	}()

	if err := migrate.Migrate(db); err != nil {
		zapLogger.Fatalw("failed to apply migrations", "error", err)
	}

	issues := issueRepo.New(db)
	prs := prRepo.New(db)
	repos := repoRepo.New(db)
	orgs := orgRepo.New(db)
	users := userRepo.New(db)

	recalculator := stats.New(issues, repos, orgs, users, zapLogger)
	issueSvc := issueService.New(issues, recalculator, zapLogger)

	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		zapLogger.Fatalw("failed to create discord session", "error", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	if err := session.Open(); err != nil {
		zapLogger.Fatalw("failed to open discord session", "error", err)
	}
	defer func() { _ = session.Close() }()

	coordinator := discordbot.New(
		session,
		cfg.Discord.ChannelID,
		cfg.Discord.ThreadArchiveMinutes,
		issueSvc,
		users,
		zapLogger,
	)
	session.AddHandler(func(_ *discordgo.Session, interaction *discordgo.InteractionCreate) {
		if err := coordinator.HandleInteraction(context.Background(), interaction); err != nil {
			zapLogger.Errorw("interaction handling failed", "error", err)
		}
	})

	githubClient := githubapi.New(cfg.GitHub.Token)
	gate := eligibility.New(repos, orgs)
	prSvc := prService.New(prs, issueSvc, coordinator, zapLogger)
	priceProcessor := price.New(issueSvc, orgs, users, coordinator, githubClient, zapLogger)
	crawler := recovery.New(githubClient, issueSvc, prSvc, repos, orgs, zapLogger)

	router := webhook.New(
		cfg.GitHub.WebhookSecret,
		gate,
		issueSvc,
		prSvc,
		repos,
		orgs,
		priceProcessor,
		coordinator,
		githubClient,
		crawler,
		zapLogger,
	)

	engine := gin.New()
	engine.Use(middleware.Logger(zapLogger))
	engine.Use(middleware.Recovery(zapLogger))

	engine.GET("/health", health.New(db, zapLogger).Check)
	router.Register(engine, cfg.GitHub.WebhookPath)

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Infow("server starting", "address", server.Addr, "webhook_path", cfg.GitHub.WebhookPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	zapLogger.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Errorw("server shutdown failed", "error", err)
	}

	// Let in-flight aggregate recomputations drain before the DB closes.
	recalculator.Wait()
	zapLogger.Infow("server stopped")
}
