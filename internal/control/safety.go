package control

import (
	"time"

	"zonectl/internal/models"
)

// BootLoopThreshold is the boot count at which the device gives up and
// enters safe mode instead of crash-cycling forever.
const BootLoopThreshold = 3

// SafetyPersist saves the safety record. Persist failures are reported to
// the caller and never fatal; the manager keeps operating on in-memory state.
type SafetyPersist func(models.SafetyState) error

// SafetyManager owns the process-wide safety record: boot-loop counting,
// watchdog feed bookkeeping, and safe-mode entry/exit. Safe mode is one-way:
// once entered it persists across reboots until explicitly exited.
type SafetyManager struct {
	st              models.SafetyState
	persist         SafetyPersist
	stabilityWindow time.Duration
	watchdogTimeout time.Duration
}

// NewSafetyManager wraps a loaded (possibly zero) safety record. persist may
// be nil in tests.
func NewSafetyManager(loaded models.SafetyState, stabilityWindow, watchdogTimeout time.Duration, persist SafetyPersist) *SafetyManager {
	if loaded.SafeModeReason == "" {
		loaded.SafeModeReason = models.SafeReasonNone
	}
	return &SafetyManager{
		st:              loaded,
		persist:         persist,
		stabilityWindow: stabilityWindow,
		watchdogTimeout: watchdogTimeout,
	}
}

// State returns a copy of the safety record.
func (m *SafetyManager) State() models.SafetyState { return m.st }

// InSafeMode reports whether safe mode is active.
func (m *SafetyManager) InSafeMode() bool { return m.st.SafeMode }

// Boot registers a device boot: the counter increments once, and once more
// when the previous run did not shut down cleanly (watchdog reset or crash).
// Crossing the threshold enters safe mode; the reason distinguishes a plain
// boot loop from one that followed a watchdog reset. Returns whether safe
// mode was entered by this call.
func (m *SafetyManager) Boot(now time.Time) (bool, error) {
	dirtyPrev := !m.st.CleanShutdown && !m.st.LastBootAt.IsZero()

	m.st.BootCount++
	if dirtyPrev {
		m.st.BootCount++
	}
	m.st.LastBootAt = now
	m.st.StableSince = time.Time{}
	m.st.CleanShutdown = false
	m.st.UpdatedAt = now

	entered := false
	if !m.st.SafeMode && m.st.BootCount >= BootLoopThreshold {
		m.st.SafeMode = true
		if dirtyPrev {
			m.st.SafeModeReason = models.SafeReasonWatchdogReset
		} else {
			m.st.SafeModeReason = models.SafeReasonBootLoop
		}
		entered = true
	}
	return entered, m.save()
}

// ShouldMarkStable reports whether the system has now run continuously past
// the stability window since boot and the counter still needs resetting.
func (m *SafetyManager) ShouldMarkStable(now time.Time) bool {
	if m.st.BootCount == 0 && !m.st.StableSince.IsZero() {
		return false
	}
	if m.st.LastBootAt.IsZero() {
		return false
	}
	return now.Sub(m.st.LastBootAt) >= m.stabilityWindow
}

// MarkStable resets the boot counter so transient reboots stop accumulating
// toward the threshold, and records when stability was reached.
func (m *SafetyManager) MarkStable(now time.Time) error {
	m.st.BootCount = 0
	m.st.StableSince = now
	m.st.UpdatedAt = now
	return m.save()
}

// FeedWatchdog records a liveness feed. The platform watchdog performs the
// actual reset; this timestamp only serves diagnostics.
func (m *SafetyManager) FeedWatchdog(now time.Time) {
	m.st.LastFeedAt = now
}

// WatchdogMargin returns the time remaining until the platform watchdog
// would fire, given the last feed.
func (m *SafetyManager) WatchdogMargin(now time.Time) time.Duration {
	if m.st.LastFeedAt.IsZero() {
		return m.watchdogTimeout
	}
	margin := m.watchdogTimeout - now.Sub(m.st.LastFeedAt)
	if margin < 0 {
		return 0
	}
	return margin
}

// RequestSafeMode enters safe mode with the given reason. Idempotent.
func (m *SafetyManager) RequestSafeMode(now time.Time, reason models.SafeModeReason) error {
	if m.st.SafeMode {
		return nil
	}
	m.st.SafeMode = true
	m.st.SafeModeReason = reason
	m.st.UpdatedAt = now
	return m.save()
}

// ExitSafeMode leaves safe mode. This is the only way out; nothing in the
// core auto-exits.
func (m *SafetyManager) ExitSafeMode(now time.Time) error {
	if !m.st.SafeMode {
		return nil
	}
	m.st.SafeMode = false
	m.st.SafeModeReason = models.SafeReasonNone
	m.st.BootCount = 0
	m.st.UpdatedAt = now
	return m.save()
}

// MarkCleanShutdown records an orderly stop so the next boot does not count
// it as a crash.
func (m *SafetyManager) MarkCleanShutdown(now time.Time) error {
	m.st.CleanShutdown = true
	m.st.UpdatedAt = now
	return m.save()
}

func (m *SafetyManager) save() error {
	if m.persist == nil {
		return nil
	}
	return m.persist(m.st)
}
