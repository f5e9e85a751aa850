package ui

import (
	"context"
	"errors"
	"sync"

	"github.com/Skufu/symptomcheck/internal/intake"
	"github.com/Skufu/symptomcheck/internal/prediction"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Failure
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is what the screen shows. Prediction is set only in Success and Err
// only in Failure.
type State struct {
	Phase      Phase
	Prediction *prediction.Prediction
	Err        string
}

func IdleState() State { return State{Phase: Idle} }
func LoadingState() State { return State{Phase: Loading} }
func SuccessState(p *prediction.Prediction) State { return State{Phase: Success, Prediction: p} }
func FailureState(msg string) State { return State{Phase: Failure, Err: msg} }
func (s State) ShowFeedback() bool { return s.Phase == Success }
func (s State) Busy() bool { return s.Phase == Loading }

// FailurePrefix starts every prediction failure shown to the user.
const FailurePrefix = "Failed to get prediction: "

// FailureMessage is the banner text for a failed prediction.
func FailureMessage(err error) string {
	return FailurePrefix + Reason(err)
}

// Reason picks the user-facing text of err. Errors with a Reason method
// (client.TransportError, client.ProtocolError) supply it; anything else
// shows its own text.
func Reason(err error) string {
	var r interface{ Reason() string }
	reason := ""
	if errors.As(err, &r) {
		reason = r.Reason()
	} else if err != nil {
		reason = err.Error()
	}
	if reason == "" {
		reason = "An unknown error occurred."
	}
	return reason
}

// ErrBusy is returned when a submission arrives while another is in flight.
var ErrBusy = errors.New("a prediction request is already in progress")

// PredictFunc fetches a prediction, usually client.Client.Predict.
type PredictFunc func(ctx context.Context, in prediction.UserInput) (*prediction.Prediction, error)

// Session drives one screen: at most one prediction request at a time, and
// every new submission replaces the previous result or error.
type Session struct {
	predict  PredictFunc
	onChange func(State)

	mu    sync.Mutex
	state State
}

func NewSession(predict PredictFunc, onChange func(State)) *Session {
	if onChange == nil {
		onChange = func(State) {}
	}
	return &Session{predict: predict, onChange: onChange, state: IdleState()}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SubmitForm validates the form and, when it has symptoms, runs Submit. An
// empty selection returns intake.ErrNoSymptoms and leaves the state untouched.
func (s *Session) SubmitForm(ctx context.Context, form *intake.Form) error {
	var in prediction.UserInput
	if err := form.Submit(func(u prediction.UserInput) { in = u }); err != nil {
		return err
	}
	return s.Submit(ctx, in)
}

// Submit runs one prediction request. The returned error is the request
// failure (also recorded in State) or ErrBusy.
func (s *Session) Submit(ctx context.Context, in prediction.UserInput) error {
	s.mu.Lock()
	if s.state.Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.setLocked(LoadingState())
	s.mu.Unlock()

	p, err := s.predict(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setLocked(FailureState(FailureMessage(err)))
		return err
	}
	s.setLocked(SuccessState(p))
	return nil
}

// Dismiss clears a shown error.
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase == Failure {
		s.setLocked(IdleState())
	}
}

func (s *Session) setLocked(st State) {
	s.state = st
	s.onChange(st)
}
