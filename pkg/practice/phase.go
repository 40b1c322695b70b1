// Package practice drives the question/attempt loop around the core
// tracker, generator and scorer.
//
// A question moves through a small set of phases. Transition is a pure
// reducer over (Machine, Event); Recorder turns live audio blocks into a
// take; Session ties both to an exercise and the scorer.
package practice

import "encoding/json"

// Phase is the phase of the practice loop.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseRecording
	PhaseEvaluating
	PhaseLoop
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "first_countdown"
	case PhaseRecording:
		return "recording"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseLoop:
		return "practice_loop"
	default:
		return "unknown"
	}
}

// ParsePhase is the inverse of String. Unknown names map to PhaseIdle.
func ParsePhase(name string) Phase {
	switch name {
	case "first_countdown":
		return PhaseCountdown
	case "recording":
		return PhaseRecording
	case "evaluating":
		return PhaseEvaluating
	case "practice_loop":
		return PhaseLoop
	default:
		return PhaseIdle
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Phase) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	*p = ParsePhase(name)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// IsActive reports whether audio is being captured or scored.
func (p Phase) IsActive() bool {
	return p == PhaseRecording || p == PhaseEvaluating
}

// CanRecord reports whether a new take may start directly from p.
func (p Phase) CanRecord() bool {
	return p == PhaseIdle || p == PhaseLoop
}
