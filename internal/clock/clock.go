package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock supplies the current wall-clock time. All reservation logic reads
// time through this interface so tests can pin it.
type Clock interface {
	Now() time.Time
}

// Zoned is a Clock pinned to a fixed location.
type Zoned struct {
	loc *time.Location
}

// NewZoned loads the named timezone and returns a clock reporting time in it.
func NewZoned(timezone string) (*Zoned, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Zoned{loc: loc}, nil
}

// Now returns the current time in the configured location.
func (z *Zoned) Now() time.Time {
	return time.Now().In(z.loc)
}

// Location returns the clock's location.
func (z *Zoned) Location() *time.Location {
	return z.loc
}

// Fake is a controllable clock for tests.
type Fake struct {
	mu      sync.Mutex
	current time.Time
}

// NewFake returns a fake clock initialised to the supplied time.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

// Now returns the current instant tracked by the clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Set updates the clock to the provided time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.current = t
	f.mu.Unlock()
}

// Advance moves the clock forward by the provided duration and returns the
// updated time.
func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	f.current = f.current.Add(d)
	updated := f.current
	f.mu.Unlock()
	return updated
}
