package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Paintersrp/orsh/internal/runtime"
)

type eventRecord struct {
	Timestamp  time.Time `json:"ts"`
	Level      string    `json:"level"`
	Event      string    `json:"event"`
	DispatchID string    `json:"dispatch_id,omitempty"`
	Pattern    string    `json:"pattern,omitempty"`
	Stage      int       `json:"stage"`
	Pid        int       `json:"pid,omitempty"`
	Argv       []string  `json:"argv,omitempty"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	Signal     string    `json:"signal,omitempty"`
	Op         string    `json:"op,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func newEventRecord(event runtime.Event) eventRecord {
	record := eventRecord{
		Timestamp:  event.Timestamp,
		Level:      eventLevel(event.Type),
		Event:      string(event.Type),
		DispatchID: event.DispatchID,
		Pattern:    event.Pattern,
		Stage:      event.Stage,
		Pid:        event.Pid,
		Argv:       event.Argv,
		Signal:     event.Signal,
		Op:         event.Op,
	}
	if event.ExitCode >= 0 {
		code := event.ExitCode
		record.ExitCode = &code
	}
	if event.Err != nil {
		record.Error = event.Err.Error()
	}
	return record
}

func eventLevel(t runtime.EventType) string {
	switch t {
	case runtime.EventTypeChildFailed:
		return "error"
	case runtime.EventTypeInterrupted:
		return "warn"
	default:
		return "info"
	}
}

// eventEncoder writes lifecycle events as JSON lines. Events arrive from the
// dispatch path and the reaper goroutine, so writes are serialized.
type eventEncoder struct {
	mu  sync.Mutex
	enc *json.Encoder
	w   io.Writer
}

func newEventEncoder(w io.Writer) *eventEncoder {
	return &eventEncoder{enc: json.NewEncoder(w), w: w}
}

func (e *eventEncoder) Observe(event runtime.Event) {
	record := newEventRecord(event)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(&record); err != nil {
		fmt.Fprintf(e.w, "error: encode event: %v\n", err)
	}
}
