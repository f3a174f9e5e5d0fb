package engine

import (
	"fmt"
	"time"
)

// Phase is the derived state of a machine.
type Phase string

const (
	PhaseAvailable       Phase = "available"
	PhaseBusy            Phase = "busy"
	PhaseClaimWindowOpen Phase = "claim_window_open"
	PhaseClaimExpired    Phase = "claim_expired"
)

// Status is the derived, read-only view of a record at a point in time.
type Status struct {
	Machine          string
	Phase            Phase
	Holder           string
	EndAt            *time.Time
	RemainingMinutes int
	// Claim window fields, set while the queue head holds or has blown
	// their window.
	NextUp                string
	ClaimDeadline         *time.Time
	ClaimRemainingMinutes int
	QueueLength           int
}

// DeriveStatus computes the machine's state from a record snapshot and the
// current time. It is side-effect free: expiry is detected here but cleaned
// up only by Reconcile.
func (ru Rules) DeriveStatus(rec Record, now time.Time) Status {
	st := Status{
		Machine:     rec.Machine,
		Phase:       PhaseAvailable,
		QueueLength: len(rec.Queue),
	}

	if rec.Occupant.Active(now) {
		st.Phase = PhaseBusy
		st.Holder = rec.Occupant.HolderName
		end := rec.Occupant.EndAt
		st.EndAt = &end
		st.RemainingMinutes = remainingMinutes(now, end)
		return st
	}

	if len(rec.Queue) == 0 {
		return st
	}

	freeAt := effectiveFreeTime(rec)
	if freeAt == nil {
		return st
	}

	st.NextUp = rec.Queue[0].Name
	deadline := freeAt.Add(ru.ClaimWindow)
	st.ClaimDeadline = &deadline
	if now.Before(deadline) {
		st.Phase = PhaseClaimWindowOpen
		st.ClaimRemainingMinutes = remainingMinutes(now, deadline)
	} else {
		st.Phase = PhaseClaimExpired
	}
	return st
}

// Reconcile applies the lazy-expiry cleanup: when the occupant's session has
// run out, the occupant is cleared and last_free_at anchored to the session
// end. The returned event fires only on the first detection; callers persist
// the result with a compare-and-update so concurrent readers cannot both
// claim it.
func (ru Rules) Reconcile(rec Record, now time.Time) (Record, *Event, bool) {
	if rec.Occupant == nil || rec.Occupant.Active(now) {
		return rec, nil, false
	}

	out := rec.Clone()
	ended := *out.Occupant
	endAt := ended.EndAt
	out.Occupant = nil
	out.LastFreeAt = &endAt

	if ended.TimeoutAlertSent {
		return out, nil, true
	}

	ev := &Event{
		Kind:    EventCycleFinished,
		Machine: rec.Machine,
		Title:   fmt.Sprintf("%s is free", rec.Machine),
		Body: fmt.Sprintf("%s's cycle has finished.%s",
			ended.HolderName, nextUpSuffix(out.Queue)),
	}
	return out, ev, true
}

// effectiveFreeTime anchors the claim window: the recorded free timestamp if
// set, else the just-expired occupant's end time.
func effectiveFreeTime(rec Record) *time.Time {
	if rec.LastFreeAt != nil {
		return rec.LastFreeAt
	}
	if rec.Occupant != nil {
		end := rec.Occupant.EndAt
		return &end
	}
	return nil
}

func remainingMinutes(now, until time.Time) int {
	if !until.After(now) {
		return 0
	}
	return int(until.Sub(now).Minutes())
}
