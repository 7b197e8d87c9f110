// Monitored post HTTP handlers.
//
// This file exposes REST endpoints for the reply-bot surface:
//   - POST   /posts                (register a post to monitor)
//   - GET    /accounts/{id}/posts  (list an account's monitored posts)
//   - GET    /posts/{id}           (fetch)
//   - PUT    /posts/{id}           (partial update)
//   - DELETE /posts/{id}           (deactivate, history preserved)
//   - GET    /posts/{id}/comments  (processed comments, paginated)
//   - POST   /posts/{id}/poll      (manual poll pass, bypasses the scheduler)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkoureas/go-engage-backend/internal/domain"
	"github.com/nkoureas/go-engage-backend/internal/services"
)

// ListCommentsResponse wraps a page of processed comments.
type ListCommentsResponse struct {
	Comments   []domain.ProcessedComment `json:"comments"`
	Pagination Pagination                `json:"pagination"`
}

// PollResponse reports the outcome of a manual poll pass.
type PollResponse struct {
	CommentsFetched int `json:"comments_fetched"`
	MatchesFound    int `json:"matches_found"`
}

// CreatePost godoc
// @ID          createPost
// @Summary     Monitor a post
// @Description Registers one of the account's own posts for keyword-triggered reply automation.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       body  body  services.PostInput  true  "Post payload"
//
// @Success     201  {object}  domain.MonitoredPost
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	var in services.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.admin.CreatePost(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListPosts godoc
// @ID          listPosts
// @Summary     List monitored posts
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     200  {array}   domain.MonitoredPost
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id}/posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	items, err := h.admin.ListPosts(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetPost godoc
// @ID          getPost
// @Summary     Fetch a monitored post
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.MonitoredPost
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	id, valid := pathID(c, "post")
	if !valid {
		return
	}
	p, err := h.admin.GetPost(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Update a monitored post
// @Description Applies a partial update; omitted fields keep their current values.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       id    path  string              true  "Post ID (UUID)"  format(uuid)
// @Param       body  body  services.PostInput  true  "Fields to update"
//
// @Success     200  {object}  domain.MonitoredPost
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	id, valid := pathID(c, "post")
	if !valid {
		return
	}
	var in services.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.admin.UpdatePost(c.Request.Context(), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeactivatePost godoc
// @ID          deactivatePost
// @Summary     Stop monitoring a post
// @Description Deactivates polling for the post. Processed comments and leads are preserved.
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [delete]
func (h *Handlers) DeactivatePost(c *gin.Context) {
	id, valid := pathID(c, "post")
	if !valid {
		return
	}
	if err := h.admin.DeactivatePost(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListPostComments godoc
// @ID          listPostComments
// @Summary     List processed comments (paginated)
// @Description Returns the comments the reply bot has already seen on this post, newest first.
// @Tags        Posts
// @Produce     json
//
// @Param       id         path   string  true   "Post ID (UUID)"  format(uuid)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListCommentsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/comments [get]
func (h *Handlers) ListPostComments(c *gin.Context) {
	id, valid := pathID(c, "post")
	if !valid {
		return
	}
	page, pageSize := clampPagination(c)
	items, total, err := h.admin.ListPostComments(c.Request.Context(), id, (page-1)*pageSize, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCommentsResponse{
		Comments:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// TriggerPoll godoc
// @ID          triggerPoll
// @Summary     Poll a post now
// @Description Runs one reply-bot pass over the post immediately instead of waiting for the next scheduled cycle. Daily caps and humanized delays still apply.
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.PollResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Post or account inactive"
// @Failure     500  {object}  handlers.ErrorResponse  "Poll pass failed"
// @Router      /posts/{id}/poll [post]
func (h *Handlers) TriggerPoll(c *gin.Context) {
	id, valid := pathID(c, "post")
	if !valid {
		return
	}
	comments, matches, err := h.poller.PollPostByID(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrPostNotFound, services.ErrPostInactive:
			failErr(c, err)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeTriggerFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, PollResponse{CommentsFetched: comments, MatchesFound: matches})
}
