package handlers

import (
	"context"
	"net/http"

	"zonectl/internal/models"
	"zonectl/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockOutputs returns err from every mutation and records which op ran
// against which channel.
type mockOutputs struct {
	err   error
	calls []string

	lastChannel int
	lastMode    models.ControlMode
	lastTarget  float64
	lastPct     float64
	lastGains   models.PIDGains
	lastSlots   []models.ScheduleSlot
	lastDevice  models.DeviceClass
	lastSensor  string
	lastResume  *bool
}

func (m *mockOutputs) record(op string, channel int) error {
	m.calls = append(m.calls, op)
	m.lastChannel = channel
	return m.err
}

func (m *mockOutputs) SetProfile(_ context.Context, channel int, name string, enabled bool) error {
	return m.record("profile", channel)
}
func (m *mockOutputs) SetMode(_ context.Context, channel int, mode models.ControlMode) error {
	m.lastMode = mode
	return m.record("mode", channel)
}
func (m *mockOutputs) SetTarget(_ context.Context, channel int, tempC float64) error {
	m.lastTarget = tempC
	return m.record("target", channel)
}
func (m *mockOutputs) SetManualPower(_ context.Context, channel int, pct float64) error {
	m.lastPct = pct
	return m.record("power", channel)
}
func (m *mockOutputs) SetPIDGains(_ context.Context, channel int, gains models.PIDGains) error {
	m.lastGains = gains
	return m.record("pid", channel)
}
func (m *mockOutputs) SetTimeProportional(_ context.Context, channel int, tp models.TimeProportional) error {
	return m.record("timeprop", channel)
}
func (m *mockOutputs) SetSchedule(_ context.Context, channel int, slots []models.ScheduleSlot) error {
	m.lastSlots = slots
	return m.record("schedule", channel)
}
func (m *mockOutputs) SetSafetyLimits(_ context.Context, channel int, maxC, minC float64, timeoutS int) error {
	return m.record("safety", channel)
}
func (m *mockOutputs) SetFaultResponse(_ context.Context, channel int, resp models.FaultResponse, capPct float64) error {
	return m.record("fault_response", channel)
}
func (m *mockOutputs) SetAutoResume(_ context.Context, channel int, on bool) error {
	m.lastResume = &on
	return m.record("auto_resume", channel)
}
func (m *mockOutputs) SetDevice(_ context.Context, channel int, device models.DeviceClass, sensorID string) error {
	m.lastDevice = device
	m.lastSensor = sensorID
	return m.record("device", channel)
}
func (m *mockOutputs) ClearFault(_ context.Context, channel int) error {
	return m.record("clear_fault", channel)
}

type mockMonitoring struct {
	status  models.ControllerStatus
	output  models.OutputStatus
	sensors []models.SensorInfo
	err     error
}

func (m *mockMonitoring) Status(ctx context.Context) (models.ControllerStatus, error) {
	return m.status, m.err
}
func (m *mockMonitoring) Output(ctx context.Context, channel int) (models.OutputStatus, error) {
	return m.output, m.err
}
func (m *mockMonitoring) Sensors(ctx context.Context) ([]models.SensorInfo, error) {
	return m.sensors, m.err
}

type mockSafety struct {
	state    models.SafetyState
	stateErr error
	enterErr error
	exitErr  error
	stopErr  error

	enterCalls int
	exitCalls  int
	stopCalls  int
}

func (m *mockSafety) State(ctx context.Context) (models.SafetyState, error) {
	return m.state, m.stateErr
}
func (m *mockSafety) EnterSafeMode(ctx context.Context) error {
	m.enterCalls++
	return m.enterErr
}
func (m *mockSafety) ExitSafeMode(ctx context.Context) error {
	m.exitCalls++
	return m.exitErr
}
func (m *mockSafety) EmergencyStop(ctx context.Context) error {
	m.stopCalls++
	return m.stopErr
}

type mockEventLog struct {
	resp       []models.ControllerEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ControllerEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
