// Lead and activity-log HTTP handlers.
//
//   - GET /accounts/{id}/leads  (list, filterable by status, paginated)
//   - GET /leads/{id}           (fetch)
//   - GET /activity             (activity feed, optionally scoped to one account)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// ListLeadsResponse wraps a page of leads.
type ListLeadsResponse struct {
	Leads      []domain.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

// ListActivityResponse wraps a page of activity records.
type ListActivityResponse struct {
	Activity   []domain.ActivityLog `json:"activity"`
	Pagination Pagination           `json:"pagination"`
}

// ListLeads godoc
// @ID          listLeads
// @Summary     List leads (paginated)
// @Description Returns an account's captured leads, newest first. Filterable by connection and DM status.
// @Tags        Leads
// @Produce     json
//
// @Param       id                 path   string  true   "Account ID (UUID)"  format(uuid)
// @Param       connection_status  query  string  false  "Filter by connection status"  Enums(not_connected, pending, connected, unknown)
// @Param       dm_status          query  string  false  "Filter by DM status"          Enums(not_sent, sent)
// @Param       page               query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size          query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListLeadsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id}/leads [get]
func (h *Handlers) ListLeads(c *gin.Context) {
	id, valid := pathID(c, "account")
	if !valid {
		return
	}
	page, pageSize := clampPagination(c)
	items, total, err := h.admin.ListLeads(c.Request.Context(), id,
		c.Query("connection_status"), c.Query("dm_status"), (page-1)*pageSize, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListLeadsResponse{
		Leads:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetLead godoc
// @ID          getLead
// @Summary     Fetch a lead
// @Tags        Leads
// @Produce     json
//
// @Param       id  path  string  true  "Lead ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Lead
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Lead not found"
// @Router      /leads/{id} [get]
func (h *Handlers) GetLead(c *gin.Context) {
	id, valid := pathID(c, "lead")
	if !valid {
		return
	}
	l, err := h.admin.GetLead(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, l)
}

// ListActivity godoc
// @ID          listActivity
// @Summary     Activity feed (paginated)
// @Description Returns the automation activity log, newest first. Pass account_id to scope to one account.
// @Tags        Activity
// @Produce     json
//
// @Param       account_id  query  string  false  "Scope to one account (UUID)"  format(uuid)
// @Param       page        query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size   query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListActivityResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /activity [get]
func (h *Handlers) ListActivity(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.admin.ListActivity(c.Request.Context(), c.Query("account_id"), (page-1)*pageSize, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListActivityResponse{
		Activity:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}
