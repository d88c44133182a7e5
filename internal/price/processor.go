// Package price processes the /price issue-comment command.
package price

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	orgModel "github.com/gitbounty/gitbounty/internal/organization/model"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	repoModel "github.com/gitbounty/gitbounty/internal/repo/model"
	userModel "github.com/gitbounty/gitbounty/internal/user/model"
	userRepo "github.com/gitbounty/gitbounty/internal/user/repository"
)

// CommandPrefix is the literal comment prefix that triggers price handling.
const CommandPrefix = "/price"

// ThreadCoordinator provisions the Discord thread for a priced issue. The
// returned thread carries the final member list.
type ThreadCoordinator interface {
	EnsureThread(ctx context.Context, issue *issueModel.Issue, memberDiscordIDs []string) (*issueModel.Thread, error)
}

// Commenter posts the price confirmation back to the GitHub issue.
type Commenter interface {
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
}

// Request carries the comment and its issue context into the processor.
type Request struct {
	CommentBody    string
	Author         issueModel.UserRef
	IssueID        string
	IssueNumber    int
	RepositoryName string
	OwnerType      string
	OwnerLogin     string
}

// Outcome reports what the processor did with a comment. A comment that is
// not a well-formed, authorized price command is skipped, never failed.
type Outcome struct {
	Applied bool
	Reason  string
}

func skipped(reason string) Outcome {
	return Outcome{Applied: false, Reason: reason}
}

// Processor validates, authorizes and applies /price commands.
type Processor struct {
	issues    issueService.Service
	orgs      orgRepo.Repository
	users     userRepo.Repository
	threads   ThreadCoordinator
	commenter Commenter
	logger    *zap.SugaredLogger
}

// New creates a new price processor instance. Threads and commenter may be
// nil; pricing then still applies without the Discord and comment side
// effects.
func New(issues issueService.Service, orgs orgRepo.Repository, users userRepo.Repository, threads ThreadCoordinator, commenter Commenter, logger *zap.SugaredLogger) *Processor {
	return &Processor{
		issues:    issues,
		orgs:      orgs,
		users:     users,
		threads:   threads,
		commenter: commenter,
		logger:    logger,
	}
}

// ParsePrice extracts the price from a /price comment. The amount is the
// whitespace-delimited token following the command; anything non-numeric or
// negative makes the comment an ordinary comment, not an error.
func ParsePrice(body string) (int, bool) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, CommandPrefix) {
		return 0, false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 || fields[0] != CommandPrefix {
		return 0, false
	}

	price, err := strconv.Atoi(fields[1])
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

// HandleComment processes one issue comment. Comments that are not price
// commands, carry an invalid amount or come from an unauthorized author are
// skipped silently with a reason; storage failures are returned as errors.
func (p *Processor) HandleComment(ctx context.Context, req Request) (Outcome, error) {
	price, ok := ParsePrice(req.CommentBody)
	if !ok {
		return skipped("not a price command"), nil
	}

	authorized, err := p.authorized(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	if !authorized {
		p.logger.Infow("price command from unauthorized author ignored",
			"issue_id", req.IssueID,
			"author", req.Author.Login,
		)
		return skipped("author not authorized"), nil
	}

	issue, err := p.issues.SetPrice(ctx, req.IssueID, price, req.Author)
	if err != nil {
		if errors.Is(err, issueModel.ErrIssueNotFound) {
			return skipped("issue not mirrored"), nil
		}
		return Outcome{}, err
	}

	if p.threads != nil {
		if threadErr := p.ensureThread(ctx, issue); threadErr != nil {
			// The price is already persisted; the thread is retried on the
			// next price command or by recovery.
			p.logger.Errorw("thread provisioning failed",
				"issue_id", issue.IssueID,
				"error", threadErr,
			)
		}
	}

	p.confirm(ctx, req, price)
	return Outcome{Applied: true}, nil
}

// authorized reports whether the comment author may set prices: organization
// members for organization-owned repositories, the owner for user-owned ones.
func (p *Processor) authorized(ctx context.Context, req Request) (bool, error) {
	if req.OwnerType != repoModel.OwnerTypeOrganization {
		return req.Author.Login != "" && req.Author.Login == req.OwnerLogin, nil
	}

	org, err := p.orgs.GetByTitle(ctx, req.OwnerLogin)
	if err != nil {
		if errors.Is(err, orgModel.ErrOrganizationNotFound) {
			return false, nil
		}
		return false, err
	}
	return org.HasMember(req.Author.Login), nil
}

func (p *Processor) ensureThread(ctx context.Context, issue *issueModel.Issue) error {
	thread, err := p.threads.EnsureThread(ctx, issue, p.memberDiscordIDs(ctx, issue))
	if err != nil {
		return err
	}
	if thread == nil {
		return nil
	}

	if _, err := p.issues.AttachThread(ctx, issue.IssueID, thread); err != nil {
		return err
	}
	return nil
}

// memberDiscordIDs resolves the Discord ids of everyone who belongs in the
// issue thread. Accounts without a linked Discord id are skipped.
func (p *Processor) memberDiscordIDs(ctx context.Context, issue *issueModel.Issue) []string {
	logins := make([]string, 0, len(issue.Assignees)+len(issue.Managers))
	for _, a := range issue.Assignees {
		logins = append(logins, a.Login)
	}
	for _, m := range issue.Managers {
		logins = append(logins, m.Login)
	}

	ids := make([]string, 0, len(logins))
	seen := make(map[string]bool, len(logins))
	for _, login := range logins {
		if login == "" || seen[login] {
			continue
		}
		seen[login] = true

		user, err := p.users.GetByLogin(ctx, login)
		if err != nil {
			if !errors.Is(err, userModel.ErrUserNotFound) {
				p.logger.Errorw("user lookup failed", "login", login, "error", err)
			}
			continue
		}
		if user.HasDiscord() {
			ids = append(ids, *user.DiscordID)
		}
	}
	return ids
}

// confirm posts the confirmation comment back to GitHub. Best-effort: a
// failed comment never unwinds an applied price.
func (p *Processor) confirm(ctx context.Context, req Request, price int) {
	if p.commenter == nil {
		return
	}

	body := fmt.Sprintf("Bounty price set to $%d.", price)
	if err := p.commenter.CreateIssueComment(ctx, req.OwnerLogin, req.RepositoryName, req.IssueNumber, body); err != nil {
		p.logger.Errorw("price confirmation comment failed",
			"issue_id", req.IssueID,
			"error", err,
		)
	}
}
