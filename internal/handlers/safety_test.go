package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"zonectl/internal/models"
	"zonectl/internal/service"

	"github.com/gin-gonic/gin"
)

func newSafetyRouter(m *mockSafety) *gin.Engine {
	s := &service.Service{
		Authorization: &mockAuth{parseID: 1},
		Safety:        m,
	}
	return newTestRouter(s)
}

func TestSafety_Get(t *testing.T) {
	m := &mockSafety{state: models.SafetyState{SafeMode: true, SafeModeReason: models.SafeReasonBootLoop, BootCount: 3}}
	r := newSafetyRouter(m)

	w := doJSON(t, r, http.MethodGet, "/api/v1/safety", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var st models.SafetyState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if !st.SafeMode || st.SafeModeReason != models.SafeReasonBootLoop || st.BootCount != 3 {
		t.Fatalf("state = %+v", st)
	}
}

func TestSafety_EnterAndExit(t *testing.T) {
	m := &mockSafety{}
	r := newSafetyRouter(m)

	w := doJSON(t, r, http.MethodPost, "/api/v1/safety/safe-mode", "")
	if w.Code != http.StatusOK {
		t.Fatalf("enter status=%d body=%s", w.Code, w.Body.String())
	}
	if m.enterCalls != 1 {
		t.Fatalf("enterCalls = %d", m.enterCalls)
	}
	var resp struct {
		Status string             `json:"status"`
		Safety models.SafetyState `json:"safety"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "safe_mode_entered" {
		t.Fatalf("status = %q", resp.Status)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/safety/safe-mode", "")
	if w.Code != http.StatusOK {
		t.Fatalf("exit status=%d body=%s", w.Code, w.Body.String())
	}
	if m.exitCalls != 1 {
		t.Fatalf("exitCalls = %d", m.exitCalls)
	}
}

func TestSafety_EmergencyStop(t *testing.T) {
	m := &mockSafety{}
	r := newSafetyRouter(m)

	w := doJSON(t, r, http.MethodPost, "/api/v1/safety/emergency-stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if m.stopCalls != 1 {
		t.Fatalf("stopCalls = %d", m.stopCalls)
	}
	var resp struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "stopped" {
		t.Fatalf("status = %q", resp.Status)
	}
}

func TestSafety_EnterFailureIs500(t *testing.T) {
	m := &mockSafety{enterErr: errors.New("persist failed")}
	r := newSafetyRouter(m)

	w := doJSON(t, r, http.MethodPost, "/api/v1/safety/safe-mode", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if m.enterCalls != 1 {
		t.Fatalf("enterCalls = %d", m.enterCalls)
	}
}
