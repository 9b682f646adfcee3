package dispatch

import (
	"fmt"
	"time"
)

// State is the send state machine: Idle → Sending → Succeeded|Failed → Idle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "sending":
		*s = StateSending
	case "succeeded":
		*s = StateSucceeded
	case "failed":
		*s = StateFailed
	default:
		return fmt.Errorf("unknown dispatch state %q", text)
	}
	return nil
}

// Event is published on every state transition.
type Event struct {
	State   State     `json:"state"`
	ChatID  string    `json:"chatId,omitempty"`
	Loading bool      `json:"loading"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}
