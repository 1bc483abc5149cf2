package hardware

import (
	"errors"
	"testing"
)

func TestFakeRecordsCommands(t *testing.T) {
	f := NewFake()

	if err := f.SetPower(0, 75); err != nil {
		t.Fatal(err)
	}
	if err := f.SetPower(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.SetPower(2, 100); err != nil {
		t.Fatal(err)
	}

	if pct, ok := f.LastFor(0); !ok || pct != 0 {
		t.Fatalf("LastFor(0) = (%.0f, %v)", pct, ok)
	}
	if pct, ok := f.LastFor(2); !ok || pct != 100 {
		t.Fatalf("LastFor(2) = (%.0f, %v)", pct, ok)
	}
	if _, ok := f.LastFor(1); ok {
		t.Fatal("channel 1 never commanded")
	}
	if len(f.History) != 3 {
		t.Fatalf("history = %d entries", len(f.History))
	}
}

func TestFakeErrorInjection(t *testing.T) {
	f := NewFake()
	boom := errors.New("relay stuck")
	f.SetPowerError = boom
	if err := f.SetPower(0, 50); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(f.History) != 0 {
		t.Fatal("failed command must not be recorded")
	}
}
