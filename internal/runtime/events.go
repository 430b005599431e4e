package runtime

import (
	"time"
)

// EventType captures lifecycle notifications emitted while a command line is
// dispatched.
type EventType string

const (
	EventTypeClassified  EventType = "classified"
	EventTypeStarted     EventType = "started"
	EventTypeExited      EventType = "exited"
	EventTypeChildFailed EventType = "child_failed"
	EventTypeReaped      EventType = "reaped"
	EventTypeInterrupted EventType = "interrupted"
)

// Event represents a single lifecycle notification.
type Event struct {
	Timestamp  time.Time
	DispatchID string
	Type       EventType
	Pattern    string
	Stage      int
	Pid        int
	Argv       []string
	ExitCode   int
	Signal     string
	Op         string
	Err        error
}

// NewEvent stamps an event of type t.
func NewEvent(dispatchID string, t EventType) Event {
	return Event{
		Timestamp:  time.Now(),
		DispatchID: dispatchID,
		Type:       t,
		ExitCode:   -1,
	}
}
