package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zonectl/internal/control"
	"zonectl/internal/models"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusUpdated = "updated"
	statusCleared = "cleared"

	errGetStatus       = "failed to load status"
	errInvalidChannel  = "invalid channel id"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondOpError maps the control error taxonomy onto HTTP codes: unknown
// channel 404, rejected values 400, operations blocked by the current state
// (safe mode, still-active fault) 409.
func (h *Handler) respondOpError(c *gin.Context, err error, logKey string, kv ...interface{}) {
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Infow(logKey, fields...)
	}

	switch {
	case errors.Is(err, control.ErrInvalidIndex):
		c.JSON(http.StatusNotFound, gin.H{"error": errInvalidChannel})
	case errors.Is(err, control.ErrInvalidRange),
		errors.Is(err, control.ErrInvalidMode),
		errors.Is(err, control.ErrIncompatibleHardware):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, control.ErrSafeModeActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		if fault, ok := control.IsFaultStillActive(err); ok {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "fault": fault})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// channelParam parses the :id path segment. Non-numeric ids are a 404, same
// as out-of-range ones: the channel does not exist.
func channelParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errInvalidChannel})
		return 0, false
	}
	return id, true
}

// respondUpdated returns the fresh channel snapshot after a mutation.
func (h *Handler) respondUpdated(c *gin.Context, channel int) {
	resp := gin.H{"status": statusUpdated}
	if st, err := h.services.Monitoring.Output(c.Request.Context(), channel); err == nil {
		resp["output"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// ---- request DTOs ----

type profileRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"` // OFF | MANUAL | PID | ONOFF | TIMEPROP | SCHEDULE
}

type targetRequest struct {
	TargetC *float64 `json:"target_c" binding:"required"`
}

type powerRequest struct {
	Pct *float64 `json:"pct" binding:"required"`
}

type pidRequest struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

type timepropRequest struct {
	CycleSeconds  *float64 `json:"cycle_s" binding:"required"`
	MinOnSeconds  float64  `json:"min_on_s"`
	MinOffSeconds float64  `json:"min_off_s"`
}

type scheduleRequest struct {
	Slots []models.ScheduleSlot `json:"slots"`
}

type safetyLimitsRequest struct {
	MaxTempC       *float64 `json:"max_temp_c" binding:"required"`
	MinTempC       *float64 `json:"min_temp_c" binding:"required"`
	SensorTimeoutS int      `json:"sensor_timeout_s"`
}

type faultResponseRequest struct {
	Response   string  `json:"response" binding:"required"` // OFF | HOLD_LAST | CAP_POWER
	CapPct     float64 `json:"cap_pct"`
	AutoResume *bool   `json:"auto_resume,omitempty"`
}

type deviceRequest struct {
	Device   string `json:"device" binding:"required"` // HEATER | LIGHT
	SensorID string `json:"sensor_id"`
}

// ---- read endpoints ----

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List output channels
// @Tags         outputs
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "outputs"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/outputs [get]
// @Security     BearerAuth
func (h *Handler) getOutputs(c *gin.Context) {
	st, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "outputs_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outputs": st.Outputs, "now": st.Now})
}

// @Summary      Get one output channel
// @Tags         outputs
// @Produce      json
// @Param        id   path      int  true  "Channel index (0..2)"
// @Success      200  {object}  models.OutputStatus
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/outputs/{id} [get]
// @Security     BearerAuth
func (h *Handler) getOutput(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	st, err := h.services.Monitoring.Output(c.Request.Context(), id)
	if err != nil {
		h.respondOpError(c, err, "output_get_failed", "channel", id)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      List discovered sensors
// @Tags         sensors
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sensors"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/sensors [get]
// @Security     BearerAuth
func (h *Handler) getSensors(c *gin.Context) {
	sensors, err := h.services.Monitoring.Sensors(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load sensors", "sensors_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(sensors), "sensors": sensors})
}

// ---- configuration endpoints ----

// @Summary      Set channel profile
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int             true  "Channel index"
// @Param        body  body  profileRequest  true  "Name and enable flag"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/profile [put]
// @Security     BearerAuth
func (h *Handler) setProfile(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req profileRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetProfile(c.Request.Context(), id, req.Name, req.Enabled); err != nil {
		h.respondOpError(c, err, "set_profile_failed", "channel", id)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Set control mode
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int          true  "Channel index"
// @Param        body  body  modeRequest  true  "Mode payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string  "safe mode active"
// @Router       /api/v1/outputs/{id}/mode [put]
// @Security     BearerAuth
func (h *Handler) setMode(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req modeRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetMode(c.Request.Context(), id, models.ControlMode(req.Mode)); err != nil {
		h.respondOpError(c, err, "set_mode_failed", "channel", id, "mode", req.Mode)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Set target temperature
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int            true  "Channel index"
// @Param        body  body  targetRequest  true  "Target in Celsius"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/target [put]
// @Security     BearerAuth
func (h *Handler) setTarget(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req targetRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetTarget(c.Request.Context(), id, *req.TargetC); err != nil {
		h.respondOpError(c, err, "set_target_failed", "channel", id, "target_c", *req.TargetC)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Set manual power
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int           true  "Channel index"
// @Param        body  body  powerRequest  true  "Power percent [0,100]"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/power [put]
// @Security     BearerAuth
func (h *Handler) setPower(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req powerRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetManualPower(c.Request.Context(), id, *req.Pct); err != nil {
		h.respondOpError(c, err, "set_power_failed", "channel", id, "pct", *req.Pct)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Set PID gains
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int         true  "Channel index"
// @Param        body  body  pidRequest  true  "Gains"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/pid [put]
// @Security     BearerAuth
func (h *Handler) setPIDGains(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req pidRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	gains := models.PIDGains{Kp: req.Kp, Ki: req.Ki, Kd: req.Kd}
	if err := h.services.Outputs.SetPIDGains(c.Request.Context(), id, gains); err != nil {
		h.respondOpError(c, err, "set_pid_failed", "channel", id)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Set time-proportional parameters
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int              true  "Channel index"
// @Param        body  body  timepropRequest  true  "Cycle and minimum on/off seconds"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/timeprop [put]
// @Security     BearerAuth
func (h *Handler) setTimeProportional(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req timepropRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	tp := models.TimeProportional{
		CycleSeconds:  *req.CycleSeconds,
		MinOnSeconds:  req.MinOnSeconds,
		MinOffSeconds: req.MinOffSeconds,
	}
	if err := h.services.Outputs.SetTimeProportional(c.Request.Context(), id, tp); err != nil {
		h.respondOpError(c, err, "set_timeprop_failed", "channel", id)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Replace the weekly schedule
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int              true  "Channel index"
// @Param        body  body  scheduleRequest  true  "Up to 8 slots"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/schedule [put]
// @Security     BearerAuth
func (h *Handler) setSchedule(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetSchedule(c.Request.Context(), id, req.Slots); err != nil {
		h.respondOpError(c, err, "set_schedule_failed", "channel", id, "slots", len(req.Slots))
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Set safety limits
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "Channel index"
// @Param        body  body  safetyLimitsRequest  true  "Temperature bounds and sensor timeout"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/safety [put]
// @Security     BearerAuth
func (h *Handler) setSafetyLimits(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req safetyLimitsRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetSafetyLimits(c.Request.Context(), id, *req.MaxTempC, *req.MinTempC, req.SensorTimeoutS); err != nil {
		h.respondOpError(c, err, "set_safety_failed", "channel", id)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Set fault response policy
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int                   true  "Channel index"
// @Param        body  body  faultResponseRequest  true  "Policy, cap and auto-resume"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/fault-response [put]
// @Security     BearerAuth
func (h *Handler) setFaultResponse(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req faultResponseRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetFaultResponse(c.Request.Context(), id, models.FaultResponse(req.Response), req.CapPct); err != nil {
		h.respondOpError(c, err, "set_fault_response_failed", "channel", id, "response", req.Response)
		return
	}
	if req.AutoResume != nil {
		if err := h.services.Outputs.SetAutoResume(c.Request.Context(), id, *req.AutoResume); err != nil {
			h.respondOpError(c, err, "set_auto_resume_failed", "channel", id)
			return
		}
	}
	h.respondUpdated(c, id)
}

// @Summary      Assign device class and sensor
// @Tags         outputs
// @Accept       json
// @Produce      json
// @Param        id    path  int            true  "Channel index"
// @Param        body  body  deviceRequest  true  "Device class and sensor id"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string  "incompatible hardware"
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/outputs/{id}/device [put]
// @Security     BearerAuth
func (h *Handler) setDevice(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	var req deviceRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Outputs.SetDevice(c.Request.Context(), id, models.DeviceClass(req.Device), req.SensorID); err != nil {
		h.respondOpError(c, err, "set_device_failed", "channel", id, "device", req.Device)
		return
	}
	h.respondUpdated(c, id)
}

// @Summary      Clear the active fault
// @Description  Fails with 409 while the fault condition is still present.
// @Tags         outputs
// @Produce      json
// @Param        id   path  int  true  "Channel index"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "fault still active"
// @Router       /api/v1/outputs/{id}/fault/clear [post]
// @Security     BearerAuth
func (h *Handler) clearFault(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	if err := h.services.Outputs.ClearFault(c.Request.Context(), id); err != nil {
		h.respondOpError(c, err, "clear_fault_failed", "channel", id)
		return
	}
	resp := gin.H{"status": statusCleared}
	if st, err := h.services.Monitoring.Output(c.Request.Context(), id); err == nil {
		resp["output"] = st
	}
	c.JSON(http.StatusOK, resp)
}
