package control

import (
	"testing"
	"time"

	"zonectl/internal/models"
)

var testGains = models.PIDGains{Kp: 8.0, Ki: 0.2, Kd: 2.0}

func TestPIDFirstCallEstablishesBaseline(t *testing.T) {
	var p pidState
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got := p.step(now, testGains, 30, 20, 42)
	if got != 42 {
		t.Fatalf("first call should return prev unchanged, got %.1f", got)
	}
	if p.lastTick != now {
		t.Fatalf("baseline tick not recorded")
	}
}

func TestPIDGuardsAgainstFastTicks(t *testing.T) {
	var p pidState
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.step(now, testGains, 30, 20, 0)

	// 50ms later is under the guard: no-op.
	got := p.step(now.Add(50*time.Millisecond), testGains, 30, 20, 7)
	if got != 7 {
		t.Fatalf("sub-guard tick should be a no-op returning prev, got %.1f", got)
	}
	if p.integral != 0 {
		t.Fatalf("integral advanced on a no-op tick: %.3f", p.integral)
	}
}

func TestPIDAntiWindup(t *testing.T) {
	var p pidState
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.step(now, testGains, 45, 15, 0)

	// Sustained 30 degree error for many ticks must never push the
	// integral past the clamp.
	for i := 1; i <= 1000; i++ {
		now = now.Add(time.Second)
		power := p.step(now, testGains, 45, 15, 0)
		if power < 0 || power > 100 {
			t.Fatalf("tick %d: power %.2f out of [0,100]", i, power)
		}
		if p.integral > integralLimit || p.integral < -integralLimit {
			t.Fatalf("tick %d: integral %.2f beyond clamp", i, p.integral)
		}
	}
	if p.integral != integralLimit {
		t.Fatalf("sustained positive error should pin integral at +%v, got %.2f", integralLimit, p.integral)
	}
}

func TestPIDOutputClamped(t *testing.T) {
	var p pidState
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hot := models.PIDGains{Kp: 100, Ki: 10, Kd: 0}
	p.step(now, hot, 45, 15, 0)
	got := p.step(now.Add(time.Second), hot, 45, 15, 0)
	if got != 100 {
		t.Fatalf("expected clamp at 100, got %.2f", got)
	}
	// Flip the error sign: large negative output clamps at 0.
	got = p.step(now.Add(2*time.Second), hot, 15, 45, got)
	if got != 0 {
		t.Fatalf("expected clamp at 0, got %.2f", got)
	}
}

func TestOnOffHysteresisBand(t *testing.T) {
	cases := []struct {
		name            string
		current, target float64
		prev, want      float64
	}{
		{"well below turns on", 20.0, 25.0, 0, 100},
		{"just below band edge on", 24.4, 25.0, 0, 100},
		{"inside band keeps prev on", 25.0, 25.0, 100, 100},
		{"inside band keeps prev off", 25.0, 25.0, 0, 0},
		{"above band turns off", 25.6, 25.0, 100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := onOffPower(tc.target, tc.current, tc.prev); got != tc.want {
				t.Fatalf("onOffPower(%v, %v, %v) = %v, want %v", tc.target, tc.current, tc.prev, got, tc.want)
			}
		})
	}
}
