package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Get safety state
// @Tags         safety
// @Produce      json
// @Success      200  {object}  models.SafetyState
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/safety [get]
// @Security     BearerAuth
func (h *Handler) getSafety(c *gin.Context) {
	st, err := h.services.Safety.State(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load safety state", "safety_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Enter safe mode
// @Description  Latches safe mode and forces every output off. Only an explicit exit releases it.
// @Tags         safety
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/safety/safe-mode [post]
// @Security     BearerAuth
func (h *Handler) enterSafeMode(c *gin.Context) {
	if err := h.services.Safety.EnterSafeMode(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to enter safe mode", "safe_mode_enter_failed", err)
		return
	}
	h.respondSafety(c, "safe_mode_entered")
}

// @Summary      Exit safe mode
// @Tags         safety
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/safety/safe-mode [delete]
// @Security     BearerAuth
func (h *Handler) exitSafeMode(c *gin.Context) {
	if err := h.services.Safety.ExitSafeMode(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to exit safe mode", "safe_mode_exit_failed", err)
		return
	}
	h.respondSafety(c, "safe_mode_exited")
}

// @Summary      Emergency stop
// @Description  Forces every output to OFF at zero power. Does not latch safe mode.
// @Tags         safety
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/safety/emergency-stop [post]
// @Security     BearerAuth
func (h *Handler) emergencyStop(c *gin.Context) {
	if err := h.services.Safety.EmergencyStop(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to execute emergency stop", "emergency_stop_failed", err)
		return
	}
	h.respondSafety(c, "stopped")
}

// respondSafety returns a status plus the fresh safety record (best-effort).
func (h *Handler) respondSafety(c *gin.Context, status string) {
	resp := gin.H{"status": status}
	if st, err := h.services.Safety.State(c.Request.Context()); err == nil {
		resp["safety"] = st
	}
	c.JSON(http.StatusOK, resp)
}
