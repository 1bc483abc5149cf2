package models

import "time"

// SafeModeReason records why the device entered safe mode.
type SafeModeReason string

const (
	SafeReasonNone          SafeModeReason = "NONE"
	SafeReasonBootLoop      SafeModeReason = "BOOT_LOOP"
	SafeReasonWatchdogReset SafeModeReason = "WATCHDOG_RESET"
	SafeReasonUserRequested SafeModeReason = "USER_REQUESTED"
	SafeReasonCriticalFault SafeModeReason = "CRITICAL_FAULT"
)

// SafetyState is the process-wide safety record, persisted across reboots.
// Only the SafetyManager mutates it. BootCount accumulates until MarkStable
// resets it; SafeMode, once set, survives restarts until explicitly exited.
// CleanShutdown is written false at boot and true on graceful stop, so the
// next boot can tell an orderly restart from a watchdog reset or crash.
type SafetyState struct {
	BootCount       int            `json:"boot_count"`
	LastBootAt      time.Time      `json:"last_boot_at"`
	StableSince     time.Time      `json:"stable_since,omitempty"`
	SafeMode        bool           `json:"safe_mode"`
	SafeModeReason  SafeModeReason `json:"safe_mode_reason"`
	WatchdogEnabled bool           `json:"watchdog_enabled"`
	CleanShutdown   bool           `json:"clean_shutdown"`
	LastFeedAt      time.Time      `json:"last_feed_at,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
