package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"

	"github.com/gitbounty/gitbounty/internal/eligibility"
	issueModel "github.com/gitbounty/gitbounty/internal/issue/model"
	issueService "github.com/gitbounty/gitbounty/internal/issue/service"
	orgRepo "github.com/gitbounty/gitbounty/internal/organization/repository"
	prService "github.com/gitbounty/gitbounty/internal/pullrequest/service"
	"github.com/gitbounty/gitbounty/internal/price"
	repoRepo "github.com/gitbounty/gitbounty/internal/repo/repository"
)

// ThreadMembership keeps the issue's Discord thread roster in step with
// GitHub assignment changes.
type ThreadMembership interface {
	AddAssignee(ctx context.Context, issue *issueModel.Issue, login string) error
	RemoveAssignee(ctx context.Context, issue *issueModel.Issue, login string) error
}

// LinkedIssuesResolver resolves the issue numbers a pull request closes.
type LinkedIssuesResolver interface {
	LinkedIssues(ctx context.Context, owner, repo string, prNumber int) ([]int, error)
}

// Recoverer runs the bulk recovery crawl for an organization.
type Recoverer interface {
	RecoverOrganization(ctx context.Context, name string) error
}

// Router verifies webhook deliveries and dispatches them to the event
// handlers. Every verified delivery is acknowledged with 200; handler
// failures are logged, never surfaced to GitHub, so a broken handler does
// not trigger redelivery storms.
type Router struct {
	secret    []byte
	gate      *eligibility.Gate
	issues    issueService.Service
	prs       prService.Service
	repos     repoRepo.Repository
	orgs      orgRepo.Repository
	price     *price.Processor
	threads   ThreadMembership
	linker    LinkedIssuesResolver
	recoverer Recoverer
	logger    *zap.SugaredLogger
}

// New creates a new webhook router instance. Threads, linker and recoverer
// may be nil; the corresponding side effects are then skipped.
func New(
	secret string,
	gate *eligibility.Gate,
	issues issueService.Service,
	prs prService.Service,
	repos repoRepo.Repository,
	orgs orgRepo.Repository,
	priceProcessor *price.Processor,
	threads ThreadMembership,
	linker LinkedIssuesResolver,
	recoverer Recoverer,
	logger *zap.SugaredLogger,
) *Router {
	return &Router{
		secret:    []byte(secret),
		gate:      gate,
		issues:    issues,
		prs:       prs,
		repos:     repos,
		orgs:      orgs,
		price:     priceProcessor,
		threads:   threads,
		linker:    linker,
		recoverer: recoverer,
		logger:    logger,
	}
}

// Register mounts the webhook endpoint on a gin router group.
func (r *Router) Register(router gin.IRoutes, path string) {
	router.POST(path, r.Handle)
}

// Handle is the gin handler for webhook deliveries. Signature failures are
// rejected with 400; everything else is acknowledged with 200.
func (r *Router) Handle(c *gin.Context) {
	payload, err := github.ValidatePayload(c.Request, r.secret)
	if err != nil {
		r.logger.Warnw("webhook signature validation failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	eventType := github.WebHookType(c.Request)
	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		r.logger.Errorw("webhook payload parse failed", "event", eventType, "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	result, err := r.Dispatch(c.Request.Context(), event)
	if err != nil {
		r.logger.Errorw("webhook handling failed",
			"event", eventType,
			"delivery", github.DeliveryID(c.Request),
			"error", err,
		)
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	if result.Handled {
		c.JSON(http.StatusOK, gin.H{"status": "handled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "skipped", "reason": result.Reason})
}

// Dispatch routes a parsed event to its handler. Event types without a
// handler are skipped, never failed.
func (r *Router) Dispatch(ctx context.Context, event interface{}) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("webhook handler panicked", "panic", rec)
			res = Skipped("handler panicked")
			err = nil
		}
	}()

	switch e := event.(type) {
	case *github.IssuesEvent:
		return r.handleIssues(ctx, e)
	case *github.IssueCommentEvent:
		return r.handleIssueComment(ctx, e)
	case *github.PullRequestEvent:
		return r.handlePullRequest(ctx, e)
	case *github.OrganizationEvent:
		return r.handleOrganization(ctx, e)
	case *github.StarEvent:
		return r.handleStar(ctx, e)
	case *github.MemberEvent:
		return r.handleMember(ctx, e)
	case *github.RepositoryEvent:
		return r.handleRepository(ctx, e)
	case *github.InstallationEvent:
		return r.handleInstallation(ctx, e)
	case *github.InstallationRepositoriesEvent:
		return r.handleInstallationRepositories(ctx, e)
	default:
		return Skipped("unhandled event type"), nil
	}
}
