package sensor

// FakeDriver returns scripted readings for tests. Each Read of an id
// consumes the next sample for that id; the last sample repeats once the
// script is exhausted.
type FakeDriver struct {
	// Samples maps sensor id to its scripted readings.
	Samples map[string][]FakeSample

	// Closed tracks whether Close was called.
	Closed bool

	index map[string]int
}

// FakeSample is one scripted reading. Err, if set, is returned instead of
// the value.
type FakeSample struct {
	TempC float64
	Err   error
}

// NewFakeDriver creates a FakeDriver with the given scripts.
func NewFakeDriver(samples map[string][]FakeSample) *FakeDriver {
	return &FakeDriver{Samples: samples, index: make(map[string]int)}
}

// Scan returns the scripted identifiers.
func (f *FakeDriver) Scan() ([]string, error) {
	var ids []string
	for id := range f.Samples {
		ids = append(ids, id)
	}
	return ids, nil
}

// Read returns the next scripted sample for id.
func (f *FakeDriver) Read(id string) (float64, error) {
	script, ok := f.Samples[id]
	if !ok || len(script) == 0 {
		return 0, ErrUnknownSensor
	}
	i := f.index[id]
	if i < len(script)-1 {
		f.index[id] = i + 1
	}
	s := script[i]
	if s.Err != nil {
		return 0, s.Err
	}
	return s.TempC, nil
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}
