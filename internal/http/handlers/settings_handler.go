// Global settings HTTP handlers.
//
//   - GET /settings  (current configuration, defaults when unset)
//   - PUT /settings  (replace; picked up by the next orchestrator pass)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkoureas/go-engage-backend/internal/domain"
)

// GetSettings godoc
// @ID          getSettings
// @Summary     Current automation settings
// @Description Returns the global settings row. Built-in defaults are returned when no row has been saved yet.
// @Tags        Settings
// @Produce     json
//
// @Success     200  {object}  domain.Settings
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /settings [get]
func (h *Handlers) GetSettings(c *gin.Context) {
	s, err := h.admin.GetSettings(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// UpdateSettings godoc
// @ID          updateSettings
// @Summary     Update automation settings
// @Description Validates and saves daily caps, trigger intervals, feature flags, and the optional delay override. Running passes keep their snapshot; the next pass picks the new values up.
// @Tags        Settings
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.Settings  true  "Settings payload"
//
// @Success     200  {object}  domain.Settings
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /settings [put]
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var in domain.Settings
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.admin.UpdateSettings(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}
