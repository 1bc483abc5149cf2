package control

import (
	"time"

	"zonectl/internal/models"
)

// minSyncedYear is the embedded convention for "the RTC has been set".
// Devices without network time boot with a clock somewhere in the epoch;
// schedule targets stay unresolved until the wall clock looks sane.
const minSyncedYear = 2020

// ClockSynced reports whether now is usable for schedule resolution.
func ClockSynced(now time.Time) bool {
	return now.Year() >= minSyncedYear
}

// resolveSchedule scans the slot table and returns the target of the latest
// eligible slot at or before now. Eligibility: enabled, day bitmask includes
// the weekday, time-of-day at or before now. Ties on the same minute break
// toward the lower slot index. When no slot matches today, the most recent
// eligible slot from a prior day wins (scanning back a full week). Returns
// ok=false when no slot has ever matched or the clock is unsynced.
func resolveSchedule(slots []models.ScheduleSlot, now time.Time) (float64, bool) {
	if !ClockSynced(now) {
		return 0, false
	}

	// Today: latest slot at or before the current time of day.
	minuteOfDay := now.Hour()*60 + now.Minute()
	if target, ok := bestSlotFor(slots, now.Weekday(), minuteOfDay); ok {
		return target, true
	}

	// Prior days, most recent first. Any slot on that day qualifies since
	// the whole day has passed.
	for back := 1; back <= 7; back++ {
		day := time.Weekday((int(now.Weekday()) + 7 - back) % 7)
		if target, ok := bestSlotFor(slots, day, 24*60); ok {
			return target, true
		}
	}
	return 0, false
}

// bestSlotFor picks the latest enabled slot for day whose start is strictly
// before limitMinute+1, preferring the lowest index on equal times.
func bestSlotFor(slots []models.ScheduleSlot, day time.Weekday, limitMinute int) (float64, bool) {
	best := -1
	bestMinute := -1
	for i, s := range slots {
		if !s.Enabled || !s.AppliesOn(day) {
			continue
		}
		m := s.Hour*60 + s.Minute
		if m > limitMinute {
			continue
		}
		if m > bestMinute {
			best = i
			bestMinute = m
		}
	}
	if best < 0 {
		return 0, false
	}
	return slots[best].TargetC, true
}
