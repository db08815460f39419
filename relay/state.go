package relay

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-relay/diaglog"
)

// State is a step of a single login request.
type State int

const (
	Idle State = iota
	AwaitingAuth
	AuthFailed
	AuthSucceeded
	AwaitingInjection
	InjectionFailed
	InjectionSucceeded
	Done
)

var stateNames = map[State]string{
	Idle:               "idle",
	AwaitingAuth:       "awaitingAuth",
	AuthFailed:         "authFailed",
	AuthSucceeded:      "authSucceeded",
	AwaitingInjection:  "awaitingInjection",
	InjectionFailed:    "injectionFailed",
	InjectionSucceeded: "injectionSucceeded",
	Done:               "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// validTransitions lists the states reachable from each state.
var validTransitions = map[State][]State{
	Idle:               {AwaitingAuth},
	AwaitingAuth:       {AuthFailed, AuthSucceeded},
	AuthFailed:         {Done},
	AuthSucceeded:      {AwaitingInjection},
	AwaitingInjection:  {InjectionFailed, InjectionSucceeded},
	InjectionFailed:    {Done},
	InjectionSucceeded: {Done},
}

// run is the state of one in-flight login. It is owned by a single goroutine.
type run struct {
	id      string
	state   State
	path    []State
	started time.Time
	log     diaglog.Log
}

func newRun(log diaglog.Log, now time.Time) *run {
	return &run{id: uuid.NewString(), state: Idle, path: []State{Idle}, started: now, log: log}
}

func (r *run) to(next State) {
	allowed := false
	for _, s := range validTransitions[r.state] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		panic(fmt.Sprintf("relay: invalid transition %s -> %s", r.state, next))
	}
	r.log.Append("Login "+next.String(), map[string]string{"requestId": r.id, "from": r.state.String()})
	r.state = next
	r.path = append(r.path, next)
}
