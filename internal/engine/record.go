// Package engine implements the machine reservation state machine. All
// functions are pure: they take a record snapshot plus the current time and
// return the next record, leaving persistence and notification delivery to
// the caller.
package engine

import "time"

// Session is an active (or just-expired) occupation of a machine.
type Session struct {
	HolderName  string
	Designation string
	Comment     string
	PIN         string
	StartAt     time.Time
	EndAt       time.Time
	// TimeoutAlertSent arms the one-shot end-of-cycle notification.
	TimeoutAlertSent bool
}

// Active reports whether the session still holds the machine at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && now.Before(s.EndAt)
}

// Waiter is one entry in a machine's wait queue.
type Waiter struct {
	ID           string
	Name         string
	Designation  string
	Comment      string
	PIN          string
	Urgent       bool
	UrgentReason string
	JoinedAt     time.Time
}

// Record is the full reservation state of one machine: the occupant session,
// the wait queue in arrival order, and the timestamp anchoring the queue
// head's claim window. Version is the store's optimistic-concurrency token
// and is opaque to the engine.
type Record struct {
	Machine    string
	Occupant   *Session
	Queue      []Waiter
	LastFreeAt *time.Time
	Version    int64
}

// Empty reports whether the record carries no state worth persisting.
func (r Record) Empty() bool {
	return r.Occupant == nil && len(r.Queue) == 0
}

// Clone returns a deep copy so operations never alias the caller's snapshot.
func (r Record) Clone() Record {
	out := r
	if r.Occupant != nil {
		occ := *r.Occupant
		out.Occupant = &occ
	}
	if r.LastFreeAt != nil {
		t := *r.LastFreeAt
		out.LastFreeAt = &t
	}
	if r.Queue != nil {
		out.Queue = make([]Waiter, len(r.Queue))
		copy(out.Queue, r.Queue)
	}
	return out
}

// Rules carries the configured parameters the state machine applies.
type Rules struct {
	MasterPIN   string
	ClaimWindow time.Duration
	ExtendStep  time.Duration
}

// pinMatches checks a submitted PIN against a stored one. The master PIN
// satisfies every check; this is a convenience lock, not an auth boundary.
func (ru Rules) pinMatches(stored, submitted string) bool {
	return submitted != "" && (submitted == stored || submitted == ru.MasterPIN)
}
