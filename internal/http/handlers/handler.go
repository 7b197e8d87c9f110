// Handler wiring and shared helpers for the admin API.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate service results (including sentinel errors) into HTTP
// responses. Business rules live in internal/services; nothing in this package
// touches the database directly.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/limits"
	"github.com/nkoureas/go-engage-backend/internal/repo"
	"github.com/nkoureas/go-engage-backend/internal/services"
	"github.com/nkoureas/go-engage-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AdminService defines the operator CRUD and reporting operations consumed by
// the HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AdminService interface {
	// Accounts
	CreateAccount(ctx context.Context, in services.AccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, id string, in services.AccountInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	AccountUsage(ctx context.Context, id string) (map[string]limits.Usage, error)
	AccountStats(ctx context.Context, accountID string) (*repo.FunnelStats, error)

	// Monitored posts
	CreatePost(ctx context.Context, in services.PostInput) (*domain.MonitoredPost, error)
	GetPost(ctx context.Context, id string) (*domain.MonitoredPost, error)
	ListPosts(ctx context.Context, accountID string) ([]domain.MonitoredPost, error)
	UpdatePost(ctx context.Context, id string, in services.PostInput) (*domain.MonitoredPost, error)
	DeactivatePost(ctx context.Context, id string) error
	ListPostComments(ctx context.Context, postID string, offset, limit int) ([]domain.ProcessedComment, int64, error)

	// Watched targets
	CreateWatch(ctx context.Context, in services.WatchInput) (*domain.WatchedAccount, error)
	GetWatch(ctx context.Context, id string) (*domain.WatchedAccount, error)
	ListWatches(ctx context.Context, accountID string) ([]domain.WatchedAccount, error)
	UpdateWatch(ctx context.Context, id string, in services.WatchInput) (*domain.WatchedAccount, error)
	DeactivateWatch(ctx context.Context, id string) error
	ListTargetEngagements(ctx context.Context, watchID string, offset, limit int) ([]domain.Engagement, int64, error)

	// Leads, logs, settings, stats
	ListLeads(ctx context.Context, accountID, connStatus, dmStatus string, offset, limit int) ([]domain.Lead, int64, error)
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	ListActivity(ctx context.Context, accountID string, offset, limit int) ([]domain.ActivityLog, int64, error)
	GetSettings(ctx context.Context) (domain.Settings, error)
	UpdateSettings(ctx context.Context, in domain.Settings) (domain.Settings, error)
}

// PostPoller runs an on-demand reply-bot pass over a single monitored post.
// Used by the manual trigger endpoint; the scheduler drives the same logic on
// a cadence.
type PostPoller interface {
	PollPostByID(ctx context.Context, postID string) (comments, matches int, err error)
}

// WatchChecker runs an on-demand comment-bot check over a single watched
// target, ignoring its check interval.
type WatchChecker interface {
	CheckTargetByID(ctx context.Context, watchID string) (engaged int, err error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the admin API. It depends on abstract
// service interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	admin   AdminService
	poller  PostPoller
	checker WatchChecker
}

// New constructs and returns a Handlers instance bound to the given services.
func New(admin AdminService, poller PostPoller, checker WatchChecker) *Handlers {
	return &Handlers{admin: admin, poller: poller, checker: checker}
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// newPagination derives pagination metadata from a page request and the total
// row count.
func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID validates that the :id path param is a UUID and returns it. On
// failure it writes a 400 response and returns ok=false.
func pathID(c *gin.Context, what string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, what+" id must be a UUID")
		return "", false
	}
	return id, true
}

// failErr maps service-level sentinel errors to the standard error envelope.
// Unrecognized errors become 500s (and get logged by fail).
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrWatchNotFound),
		errors.Is(err, services.ErrLeadNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrPostInactive),
		errors.Is(err, services.ErrWatchInactive):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
