// Watched target HTTP handlers.
//
// This file exposes REST endpoints for the comment-bot surface:
//   - POST   /watches                    (watch a target profile)
//   - GET    /accounts/{id}/watches     (list an account's watched targets)
//   - GET    /watches/{id}              (fetch)
//   - PUT    /watches/{id}              (partial update)
//   - DELETE /watches/{id}              (deactivate, history preserved)
//   - GET    /watches/{id}/engagements  (engagement history, paginated)
//   - POST   /watches/{id}/check        (manual comment-bot check)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/services"
)

// ListEngagementsResponse wraps a page of engagements.
type ListEngagementsResponse struct {
	Engagements []domain.Engagement `json:"engagements"`
	Pagination  Pagination          `json:"pagination"`
}

// CheckResponse reports the outcome of a manual comment-bot check.
type CheckResponse struct {
	EngagementsMade int `json:"engagements_made"`
}

// CreateWatch godoc
// @ID          createWatch
// @Summary     Watch a target profile
// @Description Registers a third-party profile whose new posts the comment bot will engage with.
// @Tags        Watches
// @Accept      json
// @Produce     json
//
// @Param       body  body  services.WatchInput  true  "Watch payload"
//
// @Success     201  {object}  domain.WatchedAccount
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /watches [post]
func (h *Handlers) CreateWatch(c *gin.Context) {
	var in services.WatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	w, err := h.admin.CreateWatch(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, w)
}

// ListWatches godoc
// @ID          listWatches
// @Summary     List watched targets
// @Tags        Watches
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     200  {array}   domain.WatchedAccount
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id}/watches [get]
func (h *Handlers) ListWatches(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	items, err := h.admin.ListWatches(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetWatch godoc
// @ID          getWatch
// @Summary     Fetch a watched target
// @Tags        Watches
// @Produce     json
//
// @Param       id  path  string  true  "Watch ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.WatchedAccount
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Watch not found"
// @Router      /watches/{id} [get]
func (h *Handlers) GetWatch(c *gin.Context) {
	id, valid := pathID(c, "watch")
	if !valid {
		return
	}
	w, err := h.admin.GetWatch(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

// UpdateWatch godoc
// @ID          updateWatch
// @Summary     Update a watched target
// @Description Applies a partial update; omitted fields keep their current values.
// @Tags        Watches
// @Accept      json
// @Produce     json
//
// @Param       id    path  string               true  "Watch ID (UUID)"  format(uuid)
// @Param       body  body  services.WatchInput  true  "Fields to update"
//
// @Success     200  {object}  domain.WatchedAccount
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Watch not found"
// @Router      /watches/{id} [put]
func (h *Handlers) UpdateWatch(c *gin.Context) {
	id, valid := pathID(c, "watch")
	if !valid {
		return
	}
	var in services.WatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	w, err := h.admin.UpdateWatch(c.Request.Context(), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

// DeactivateWatch godoc
// @ID          deactivateWatch
// @Summary     Stop watching a target
// @Description Deactivates monitoring of the target. Engagement history is preserved.
// @Tags        Watches
// @Produce     json
//
// @Param       id  path  string  true  "Watch ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Watch not found"
// @Router      /watches/{id} [delete]
func (h *Handlers) DeactivateWatch(c *gin.Context) {
	id, valid := pathID(c, "watch")
	if !valid {
		return
	}
	if err := h.admin.DeactivateWatch(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListEngagements godoc
// @ID          listEngagements
// @Summary     List engagements (paginated)
// @Description Returns the posts of this target the comment bot has engaged with, newest first.
// @Tags        Watches
// @Produce     json
//
// @Param       id         path   string  true   "Watch ID (UUID)"  format(uuid)
// @Param       page       query  int     false  "Page number"      minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListEngagementsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Watch not found"
// @Router      /watches/{id}/engagements [get]
func (h *Handlers) ListEngagements(c *gin.Context) {
	id, valid := pathID(c, "watch")
	if !valid {
		return
	}
	page, pageSize := clampPagination(c)
	items, total, err := h.admin.ListTargetEngagements(c.Request.Context(), id, (page-1)*pageSize, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListEngagementsResponse{
		Engagements: items,
		Pagination:  newPagination(page, pageSize, total),
	})
}

// TriggerCheck godoc
// @ID          triggerCheck
// @Summary     Check a target now
// @Description Runs one comment-bot check over the target immediately, ignoring its check interval. Daily caps and humanized delays still apply.
// @Tags        Watches
// @Produce     json
//
// @Param       id  path  string  true  "Watch ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.CheckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Watch not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Watch or account inactive"
// @Failure     500  {object}  handlers.ErrorResponse  "Check pass failed"
// @Router      /watches/{id}/check [post]
func (h *Handlers) TriggerCheck(c *gin.Context) {
	id, valid := pathID(c, "watch")
	if !valid {
		return
	}
	engaged, err := h.checker.CheckTargetByID(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrWatchNotFound, services.ErrWatchInactive:
			failErr(c, err)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeTriggerFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, CheckResponse{EngagementsMade: engaged})
}
