package envelope

import (
	"encoding/json"
	"fmt"
)

// State is the envelope lifecycle state.
type State string

// Envelope states. Committed and rejected are set by the broadcaster.
const (
	StatePending   State = "pending"
	StateReady     State = "ready"
	StateCommitted State = "committed"
	StateRejected  State = "rejected"
)

// IsValid checks whether s is one of known states.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateReady, StateCommitted, StateRejected:
		return true
	}
	return false
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	return string(s)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*s = StatePending
		return nil
	}
	if !State(str).IsValid() {
		return fmt.Errorf("unknown state %q", str)
	}
	*s = State(str)
	return nil
}
