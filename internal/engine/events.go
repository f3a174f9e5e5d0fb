package engine

import "fmt"

// EventKind identifies the state transition behind a notification.
type EventKind string

const (
	EventStarted       EventKind = "started"
	EventExtended      EventKind = "extended"
	EventFinishedEarly EventKind = "finished_early"
	EventCycleFinished EventKind = "cycle_finished"
	EventJoined        EventKind = "joined"
	EventSkipped       EventKind = "skipped"
)

// Event is a human-readable description of a state transition, handed to the
// notification dispatcher as-is. Delivery is fire-and-forget.
type Event struct {
	Kind    EventKind
	Machine string
	Title   string
	Body    string
}

// timeLayout matches the 12-hour clock shown to residents.
const timeLayout = "3:04 PM"

func nextUpSuffix(queue []Waiter) string {
	if len(queue) == 0 {
		return ""
	}
	return fmt.Sprintf(" %s is next in line.", queue[0].Name)
}
