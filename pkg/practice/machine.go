package practice

import (
	"slices"

	"github.com/haivivi/intone/pkg/scoring"
)

// EventType names a practice event.
type EventType string

const (
	StartQuestion   EventType = "start_question"
	StartCountdown  EventType = "start_countdown"
	CountdownDone   EventType = "countdown_done"
	StartRecording  EventType = "start_recording"
	StartEvaluating EventType = "start_evaluating"
	AttemptDone     EventType = "attempt_done"
	NextQuestion    EventType = "next_question"
	ResetEvent      EventType = "reset"
)

// Event is an input to Transition. Attempt is only read for AttemptDone.
type Event struct {
	Type    EventType
	Attempt *scoring.Result
}

// QuestionState tracks the attempts made on the current question.
type QuestionState struct {
	Attempts []*scoring.Result `json:"attempts" yaml:"attempts"`

	// First is the first valid attempt.
	First *scoring.Result `json:"first,omitempty" yaml:"first,omitempty"`

	// Best is the best attempt so far according to scoring.IsAttemptBetter.
	Best *scoring.Result `json:"best,omitempty" yaml:"best,omitempty"`

	// Current is the most recent attempt, valid or not.
	Current *scoring.Result `json:"current,omitempty" yaml:"current,omitempty"`
}

// Machine is the state of the practice loop.
type Machine struct {
	Phase         Phase         `json:"phase" yaml:"phase"`
	AttemptsCount int           `json:"attempts_count" yaml:"attempts_count"`
	Question      QuestionState `json:"question" yaml:"question"`
}

// NewMachine returns an idle machine with an empty question.
func NewMachine() Machine {
	return Machine{Phase: PhaseIdle, Question: QuestionState{Attempts: []*scoring.Result{}}}
}

// Transition returns the machine that results from applying ev to m.
// Events that do not apply in the current phase leave m unchanged. m is
// never mutated.
func Transition(m Machine, ev Event) Machine {
	switch ev.Type {
	case StartQuestion, NextQuestion:
		next := NewMachine()
		next.Phase = PhaseCountdown
		return next

	case StartCountdown:
		if m.Phase.CanRecord() {
			m.Phase = PhaseCountdown
		}
		return m

	case CountdownDone:
		if m.Phase == PhaseCountdown {
			m.Phase = PhaseRecording
		}
		return m

	case StartRecording:
		if m.Phase.CanRecord() {
			m.Phase = PhaseRecording
		}
		return m

	case StartEvaluating:
		if m.Phase == PhaseRecording {
			m.Phase = PhaseEvaluating
		}
		return m

	case AttemptDone:
		if ev.Attempt == nil {
			return m
		}
		q := m.Question
		first := q.First
		if first == nil && ev.Attempt.Valid {
			first = ev.Attempt
		}
		best := q.Best
		if scoring.IsAttemptBetter(ev.Attempt, q.Best) {
			best = ev.Attempt
		}
		return Machine{
			Phase:         PhaseLoop,
			AttemptsCount: m.AttemptsCount + 1,
			Question: QuestionState{
				Attempts: append(slices.Clip(q.Attempts), ev.Attempt),
				First:    first,
				Best:     best,
				Current:  ev.Attempt,
			},
		}

	case ResetEvent:
		return NewMachine()

	default:
		return m
	}
}
