// Package devtools serves an HTTP inspector for running navigation
// containers: their current state, recent action history, Prometheus metrics
// and a live action stream over WebSocket.
//
// The inspector is meant for development builds. It exposes navigation state
// verbatim and performs no authentication.
package devtools

import (
	"time"

	"github.com/go-drift/navstate/pkg/navigation"
)

// Target is a container the inspector can observe.
type Target interface {
	// Name identifies the container in URLs and events.
	Name() string
	// Status describes the container right now.
	Status() Status
	// Subscribe calls fn for every action the container handles.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Status is the JSON view of a container.
type Status struct {
	Name    string `json:"name"`
	Mode    string `json:"mode"`
	Loading bool   `json:"loading"`
	State   any    `json:"state,omitempty"`
}

// Event is one handled action.
type Event struct {
	Target    string    `json:"target"`
	Action    any       `json:"action"`
	State     any       `json:"state"`
	LastState any       `json:"lastState,omitempty"`
	Changed   bool      `json:"changed"`
	Startup   bool      `json:"startup,omitempty"`
	Time      time.Time `json:"time"`
}

type containerTarget[S, A any] struct {
	name      string
	container *navigation.Container[S, A]
}

// Watch adapts a container into a Target named name.
func Watch[S, A any](name string, c *navigation.Container[S, A]) Target {
	return &containerTarget[S, A]{name: name, container: c}
}

func (t *containerTarget[S, A]) Name() string {
	return t.name
}

func (t *containerTarget[S, A]) Status() Status {
	state := t.container.State()
	status := Status{
		Name:    t.name,
		Mode:    t.container.Mode().String(),
		Loading: state == nil,
	}
	if state != nil {
		status.State = state
	}
	return status
}

func (t *containerTarget[S, A]) Subscribe(fn func(Event)) func() {
	sub := t.container.AddListener(navigation.EventAction, func(e navigation.ActionEvent[S, A]) {
		event := Event{
			Target:  t.name,
			Action:  e.Action,
			State:   e.State,
			Changed: e.State != e.LastState,
			Startup: e.LastState == nil,
			Time:    time.Now(),
		}
		if e.LastState != nil {
			event.LastState = e.LastState
		}
		fn(event)
	})
	return sub.Remove
}
