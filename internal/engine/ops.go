package engine

import (
	"fmt"
	"time"

	"laundry-reservation-backend/internal/parse"
)

// StartInput carries the fields submitted to claim a machine.
type StartInput struct {
	Name            string
	Designation     string
	Comment         string
	PIN             string
	DurationMinutes int
}

// Start claims a free machine for the submitted holder. With a non-empty
// queue the submitted name must match the queue head (trimmed,
// case-insensitive); the head is popped into the new session in the same
// record write.
func (ru Rules) Start(rec Record, in StartInput, now time.Time) (Record, *Event, error) {
	name := parse.CleanName(in.Name)
	if name == "" {
		return rec, nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !parse.ValidPIN(in.PIN) {
		return rec, nil, fmt.Errorf("%w: pin must be exactly 4 digits", ErrInvalidInput)
	}
	if !parse.ValidDuration(in.DurationMinutes) {
		return rec, nil, fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidInput, parse.MinDurationMinutes, parse.MaxDurationMinutes)
	}

	if rec.Occupant.Active(now) {
		return rec, nil, fmt.Errorf("%w: held by %s until %s",
			ErrMachineBusy, rec.Occupant.HolderName, rec.Occupant.EndAt.Format(timeLayout))
	}

	out := rec.Clone()
	if len(out.Queue) > 0 {
		if !parse.SameName(name, out.Queue[0].Name) {
			return rec, nil, fmt.Errorf("%w: %s is next in line", ErrNotYourTurn, out.Queue[0].Name)
		}
		out.Queue = out.Queue[1:]
	}

	duration := time.Duration(in.DurationMinutes) * time.Minute
	out.Occupant = &Session{
		HolderName:  name,
		Designation: in.Designation,
		Comment:     in.Comment,
		PIN:         in.PIN,
		StartAt:     now,
		EndAt:       now.Add(duration),
	}
	out.LastFreeAt = nil

	ev := &Event{
		Kind:    EventStarted,
		Machine: rec.Machine,
		Title:   fmt.Sprintf("%s started", rec.Machine),
		Body: fmt.Sprintf("%s started %s for %d minutes. Free at approx %s.",
			name, rec.Machine, in.DurationMinutes, out.Occupant.EndAt.Format(timeLayout)),
	}
	return out, ev, nil
}

// Extend pushes the occupant's end time forward by the configured step and
// re-arms the one-shot expiry notification.
func (ru Rules) Extend(rec Record, pin string, now time.Time) (Record, *Event, error) {
	if rec.Occupant == nil {
		return rec, nil, fmt.Errorf("%w: no active session to extend", ErrInvalidInput)
	}
	if !ru.pinMatches(rec.Occupant.PIN, pin) {
		return rec, nil, ErrWrongCredential
	}

	out := rec.Clone()
	out.Occupant.EndAt = out.Occupant.EndAt.Add(ru.ExtendStep)
	out.Occupant.TimeoutAlertSent = false

	ev := &Event{
		Kind:    EventExtended,
		Machine: rec.Machine,
		Title:   fmt.Sprintf("%s extended", rec.Machine),
		Body: fmt.Sprintf("%s added %d minutes on %s. Now free at approx %s.",
			out.Occupant.HolderName, int(ru.ExtendStep.Minutes()), rec.Machine,
			out.Occupant.EndAt.Format(timeLayout)),
	}
	return out, ev, nil
}

// Finish ends the occupant's session early. The free timestamp is now, not
// the planned end, so the queue head's claim window starts immediately.
func (ru Rules) Finish(rec Record, pin string, now time.Time) (Record, *Event, error) {
	if rec.Occupant == nil {
		return rec, nil, fmt.Errorf("%w: no active session to finish", ErrInvalidInput)
	}
	if !ru.pinMatches(rec.Occupant.PIN, pin) {
		return rec, nil, ErrWrongCredential
	}

	out := rec.Clone()
	holder := out.Occupant.HolderName
	out.Occupant = nil
	freeAt := now
	out.LastFreeAt = &freeAt

	ev := &Event{
		Kind:    EventFinishedEarly,
		Machine: rec.Machine,
		Title:   fmt.Sprintf("%s is free", rec.Machine),
		Body:    fmt.Sprintf("%s finished early.%s", holder, nextUpSuffix(out.Queue)),
	}
	return out, ev, nil
}

// JoinInput carries the fields submitted to enter a machine's queue.
type JoinInput struct {
	Name         string
	Designation  string
	Comment      string
	PIN          string
	Urgent       bool
	UrgentReason string
}

// ValidateJoin checks a join submission and builds the waiter entry. Urgent
// waiters still join at the tail; the flag and reason are informational only.
// The caller appends via the store so concurrent joins never clobber each
// other.
func (ru Rules) ValidateJoin(in JoinInput, now time.Time) (Waiter, error) {
	name := parse.CleanName(in.Name)
	if name == "" {
		return Waiter{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !parse.ValidPIN(in.PIN) {
		return Waiter{}, fmt.Errorf("%w: pin must be exactly 4 digits", ErrInvalidInput)
	}
	if in.Urgent && parse.CleanName(in.UrgentReason) == "" {
		return Waiter{}, fmt.Errorf("%w: urgent requests need a reason", ErrInvalidInput)
	}

	return Waiter{
		Name:         name,
		Designation:  in.Designation,
		Comment:      in.Comment,
		PIN:          in.PIN,
		Urgent:       in.Urgent,
		UrgentReason: in.UrgentReason,
		JoinedAt:     now,
	}, nil
}

// JoinEvent describes a completed join for the dispatcher.
func (ru Rules) JoinEvent(machine string, w Waiter) *Event {
	return &Event{
		Kind:    EventJoined,
		Machine: machine,
		Title:   fmt.Sprintf("Queue for %s grew", machine),
		Body:    fmt.Sprintf("%s joined the queue for %s.", w.Name, machine),
	}
}

// Swap exchanges queue[i] and queue[i+1], letting the waiter at i pass their
// turn to the next person. Requires the PIN of the waiter at i. Swapping the
// same pair twice restores the original order.
func (ru Rules) Swap(rec Record, i int, pin string) (Record, error) {
	if i < 0 || i >= len(rec.Queue)-1 {
		return rec, fmt.Errorf("%w: no waiter behind position %d to swap with", ErrInvalidInput, i)
	}
	if !ru.pinMatches(rec.Queue[i].PIN, pin) {
		return rec, ErrWrongCredential
	}

	out := rec.Clone()
	out.Queue[i], out.Queue[i+1] = out.Queue[i+1], out.Queue[i]
	return out, nil
}

// Leave removes queue[i]. Requires that waiter's PIN.
func (ru Rules) Leave(rec Record, i int, pin string) (Record, error) {
	if i < 0 || i >= len(rec.Queue) {
		return rec, fmt.Errorf("%w: no waiter at position %d", ErrInvalidInput, i)
	}
	if !ru.pinMatches(rec.Queue[i].PIN, pin) {
		return rec, ErrWrongCredential
	}

	out := rec.Clone()
	out.Queue = append(out.Queue[:i], out.Queue[i+1:]...)
	return out, nil
}

// Skip removes a queue head whose claim window has lapsed and re-arms the
// window for the next waiter. No PIN is required: anyone watching the board
// may skip a timed-out waiter, and the claim-expired precondition keeps an
// open window safe from being skipped out from under its holder.
func (ru Rules) Skip(rec Record, now time.Time) (Record, *Event, error) {
	if len(rec.Queue) < 2 {
		return rec, nil, fmt.Errorf("%w: nobody behind the queue head to promote", ErrSkipNotAllowed)
	}
	if st := ru.DeriveStatus(rec, now); st.Phase != PhaseClaimExpired {
		return rec, nil, fmt.Errorf("%w: claim window for %s has not expired", ErrSkipNotAllowed, rec.Queue[0].Name)
	}

	out := rec.Clone()
	skipped := out.Queue[0]
	out.Queue = out.Queue[1:]
	freeAt := now
	out.LastFreeAt = &freeAt

	ev := &Event{
		Kind:    EventSkipped,
		Machine: rec.Machine,
		Title:   fmt.Sprintf("Queue for %s moved on", rec.Machine),
		Body: fmt.Sprintf("%s did not claim %s in time and was skipped. %s is next in line.",
			skipped.Name, rec.Machine, out.Queue[0].Name),
	}
	return out, ev, nil
}
