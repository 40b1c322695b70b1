package practice

import (
	"errors"

	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/scoring"
	"github.com/haivivi/intone/pkg/tonal"
)

var (
	// ErrNoQuestion is returned when recording is attempted before a
	// question has been started.
	ErrNoQuestion = errors.New("practice: no question")

	// ErrWrongPhase is returned when an operation does not apply in the
	// current phase.
	ErrWrongPhase = errors.New("practice: wrong phase")
)

// Session runs the practice loop for one singer: it holds the current
// exercise, the phase machine and a recorder that is reused across
// attempts.
type Session struct {
	machine  Machine
	exercise *exercise.Spec
	mode     tonal.Mode
	rec      *Recorder
	logger   Logger
}

// NewSession creates an idle session recording at sampleRate.
func NewSession(sampleRate int, opts ...RecorderOption) *Session {
	cfg := recorderConfig{logger: DefaultLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session{
		machine: NewMachine(),
		rec:     NewRecorder(sampleRate, opts...),
		logger:  cfg.logger,
	}
}

// Machine returns the current phase machine.
func (s *Session) Machine() Machine { return s.machine }

// Exercise returns the current exercise, or nil.
func (s *Session) Exercise() *exercise.Spec { return s.exercise }

// Recorder returns the session's recorder.
func (s *Session) Recorder() *Recorder { return s.rec }

func (s *Session) dispatch(ev Event) {
	prev := s.machine.Phase
	s.machine = Transition(s.machine, ev)
	if s.machine.Phase != prev {
		s.logger.DebugPrintf("%s: %s -> %s", ev.Type, prev, s.machine.Phase)
	}
}

// Start begins a new question on ex, scored in mode (or the exercise's
// own mode when empty). The session enters the countdown.
func (s *Session) Start(ex *exercise.Spec, mode tonal.Mode) {
	ev := StartQuestion
	if s.exercise != nil {
		ev = NextQuestion
	}
	s.exercise = ex
	s.mode = mode
	s.dispatch(Event{Type: ev})
	s.logger.InfoPrintf("question %s (%d notes, %s)", ex.ID, len(ex.Notes), ex.Difficulty)
}

// CountdownDone ends the countdown and starts recording the first take.
func (s *Session) CountdownDone() error {
	if s.machine.Phase != PhaseCountdown {
		return ErrWrongPhase
	}
	s.rec.Reset()
	s.dispatch(Event{Type: CountdownDone})
	return nil
}

// Retry starts another take on the current question without a countdown.
func (s *Session) Retry() error {
	if s.exercise == nil {
		return ErrNoQuestion
	}
	if !s.machine.Phase.CanRecord() {
		return ErrWrongPhase
	}
	s.rec.Reset()
	s.dispatch(Event{Type: StartRecording})
	return nil
}

// Push feeds one captured block into the current take.
func (s *Session) Push(block []float32) (Frame, StopReason, error) {
	if s.machine.Phase != PhaseRecording {
		return Frame{}, KeepRecording, ErrWrongPhase
	}
	f, stop := s.rec.Push(block)
	return f, stop, nil
}

// Finish ends the current take, scores it and records the attempt.
func (s *Session) Finish() (*scoring.Result, error) {
	if s.machine.Phase != PhaseRecording {
		return nil, ErrWrongPhase
	}
	s.dispatch(Event{Type: StartEvaluating})

	in := s.rec.Input(s.machine.AttemptsCount+1, s.exercise, s.mode)
	res, err := scoring.Evaluate(in)
	if err != nil {
		s.dispatch(Event{Type: ResetEvent})
		return nil, s.logger.Errorf("evaluate attempt %d: %w", in.AttemptIndex, err)
	}
	s.dispatch(Event{Type: AttemptDone, Attempt: res})
	if res.Valid {
		s.logger.InfoPrintf("attempt %d scored %d", res.AttemptIndex, res.Score)
	} else {
		s.logger.InfoPrintf("attempt %d not scored: %s", res.AttemptIndex, res.FailReason)
	}
	return res, nil
}

// Reset returns the session to idle and forgets the exercise.
func (s *Session) Reset() {
	s.exercise = nil
	s.rec.Reset()
	s.dispatch(Event{Type: ResetEvent})
}
