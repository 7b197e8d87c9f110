// Account HTTP handlers.
//
// This file exposes REST endpoints for the identities under automation:
//   - POST   /accounts              (create)
//   - GET    /accounts              (list)
//   - GET    /accounts/{id}         (fetch)
//   - PUT    /accounts/{id}         (partial update)
//   - DELETE /accounts/{id}         (soft delete)
//   - GET    /accounts/{id}/usage   (today's used/limit per action type)
//   - GET    /accounts/{id}/stats   (lead funnel aggregates)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkoureas/go-engage-backend/internal/services"
)

// CreateAccount godoc
// @ID          createAccount
// @Summary     Register an account
// @Description Registers a new identity under automation. Name and the per-account API token are required.
// @Tags        Accounts
// @Accept      json
// @Produce     json
//
// @Param       body  body  services.AccountInput  true  "Account payload"
//
// @Success     201  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts [post]
func (h *Handlers) CreateAccount(c *gin.Context) {
	var in services.AccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.admin.CreateAccount(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListAccounts godoc
// @ID          listAccounts
// @Summary     List accounts
// @Description Returns all registered accounts, newest first.
// @Tags        Accounts
// @Produce     json
//
// @Success     200  {array}   domain.Account
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts [get]
func (h *Handlers) ListAccounts(c *gin.Context) {
	items, err := h.admin.ListAccounts(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetAccount godoc
// @ID          getAccount
// @Summary     Fetch an account
// @Tags        Accounts
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id} [get]
func (h *Handlers) GetAccount(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	a, err := h.admin.GetAccount(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateAccount godoc
// @ID          updateAccount
// @Summary     Update an account
// @Description Applies a partial update; omitted fields keep their current values.
// @Tags        Accounts
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                 true  "Account ID (UUID)"  format(uuid)
// @Param       body  body  services.AccountInput  true  "Fields to update"
//
// @Success     200  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id} [put]
func (h *Handlers) UpdateAccount(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	var in services.AccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.admin.UpdateAccount(c.Request.Context(), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteAccount godoc
// @ID          deleteAccount
// @Summary     Delete an account
// @Description Soft-deletes the account. Owned history (leads, comments, engagements) stays queryable.
// @Tags        Accounts
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id} [delete]
func (h *Handlers) DeleteAccount(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	if err := h.admin.DeleteAccount(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// AccountUsage godoc
// @ID          accountUsage
// @Summary     Today's action usage
// @Description Returns used/limit pairs per action type (comment, connection_request, message) for the current UTC day.
// @Tags        Accounts
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     200  {object}  map[string]limits.Usage
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id}/usage [get]
func (h *Handlers) AccountUsage(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	usage, err := h.admin.AccountUsage(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, usage)
}

// AccountStats godoc
// @ID          accountStats
// @Summary     Lead funnel statistics
// @Description Returns lead counts by connection and DM status plus activity aggregates for one account.
// @Tags        Accounts
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     200  {object}  repo.FunnelStats
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id}/stats [get]
func (h *Handlers) AccountStats(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	stats, err := h.admin.AccountStats(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}
