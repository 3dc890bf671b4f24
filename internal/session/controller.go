package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mind-engage/gradecalc/internal/grading"
	"github.com/mind-engage/gradecalc/internal/history"
)

// ClearPrompt is the question put to the Confirmer before history is wiped.
const ClearPrompt = "Are you sure you want to clear all history?"

// FailureThreshold is the highest percentage that still raises the failure alert.
const FailureThreshold = 50.0

type State int

const (
	StateIdle State = iota
	StateShowingResult
	StateShowingError
	StateShowingFailureAlert
)

func (s State) String() string {
	switch s {
	case StateShowingResult:
		return "showing_result"
	case StateShowingError:
		return "showing_error"
	case StateShowingFailureAlert:
		return "showing_failure_alert"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertPerfect
	AlertFailure
)

func (k AlertKind) String() string {
	switch k {
	case AlertPerfect:
		return "perfect"
	case AlertFailure:
		return "failure"
	default:
		return "none"
	}
}

func (k AlertKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Alert is at most one of the two themed signals raised by a submission.
// Percentage is set for AlertFailure.
type Alert struct {
	Kind       AlertKind `json:"kind"`
	Percentage float64   `json:"percentage"`
}

// Outcome is the result of an accepted submission. PersistErr is set when the
// entry was computed but could not be saved; the submission still counts.
type Outcome struct {
	Entry      grading.Entry `json:"entry"`
	Alert      Alert         `json:"alert"`
	PersistErr error         `json:"-"`
}

// Confirmer gates destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// AlwaysConfirm approves every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) bool { return true })

// Presenter is told about every state change.
type Presenter interface {
	Present(v View)
}

// Inputs are the working form values.
type Inputs struct {
	Earned float64 `json:"earned"`
	Total  float64 `json:"total"`
}

// View is a snapshot of everything a presenter renders.
type View struct {
	State   State           `json:"state"`
	Inputs  Inputs          `json:"inputs"`
	Current *grading.Entry  `json:"current,omitempty"`
	Error   string          `json:"error,omitempty"`
	Warning string          `json:"warning,omitempty"`
	Alert   Alert           `json:"alert"`
	History []grading.Entry `json:"history"`
}

// Controller orchestrates one user's session over a shared history.
type Controller struct {
	mu        sync.Mutex
	eval      *grading.Evaluator
	hist      *history.Store
	confirm   Confirmer
	presenter Presenter
	log       zerolog.Logger

	state   State
	inputs  Inputs
	current *grading.Entry
	errMsg  string
	warning string
	alert   Alert
}

type Option func(*Controller)

func WithEvaluator(e *grading.Evaluator) Option { return func(c *Controller) { c.eval = e } }
func WithConfirmer(cf Confirmer) Option         { return func(c *Controller) { c.confirm = cf } }
func WithPresenter(p Presenter) Option          { return func(c *Controller) { c.presenter = p } }
func WithLogger(l zerolog.Logger) Option        { return func(c *Controller) { c.log = l } }

// New wires a controller to an already loaded history store.
func New(hist *history.Store, opts ...Option) *Controller {
	c := &Controller{
		hist:    hist,
		confirm: AlwaysConfirm,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.eval == nil {
		c.eval = grading.NewEvaluator()
	}
	return c
}

// SubmitInput parses raw form values and submits them. Unparsable input
// leaves the working inputs at zero.
func (c *Controller) SubmitInput(ctx context.Context, earned, total string) (Outcome, error) {
	e, t, err := ParseInputs(earned, total)
	if err != nil {
		c.mu.Lock()
		c.inputs = Inputs{}
		c.reject(err)
		v := c.viewLocked()
		c.mu.Unlock()
		c.present(v)
		return Outcome{}, err
	}
	return c.Submit(ctx, e, t)
}

// Submit validates, evaluates and records one calculation. A non-nil error is
// always a *ValidationError and means nothing was recorded.
func (c *Controller) Submit(ctx context.Context, earned, total float64) (Outcome, error) {
	c.mu.Lock()
	out, err := c.submitLocked(ctx, earned, total)
	v := c.viewLocked()
	c.mu.Unlock()
	c.present(v)
	return out, err
}

func (c *Controller) submitLocked(ctx context.Context, earned, total float64) (Outcome, error) {
	c.inputs = Inputs{Earned: earned, Total: total}
	c.errMsg, c.warning, c.alert = "", "", Alert{}

	if err := Validate(earned, total); err != nil {
		c.reject(err)
		c.log.Debug().Err(err).Float64("earned", earned).Float64("total", total).Msg("submission rejected")
		return Outcome{}, err
	}

	entry := c.eval.Evaluate(earned, total)
	c.current = &entry
	c.state = StateShowingResult

	out := Outcome{Entry: entry, Alert: alertFor(entry.Percentage)}
	if err := c.hist.Append(ctx, entry); err != nil {
		out.PersistErr = err
		c.warning = "result not saved: " + err.Error()
		c.log.Warn().Err(err).Str("id", entry.ID).Msg("grade computed but not persisted")
	}

	c.alert = out.Alert
	if out.Alert.Kind == AlertFailure {
		c.state = StateShowingFailureAlert
	}
	c.log.Info().
		Str("id", entry.ID).
		Float64("percentage", entry.Percentage).
		Str("letter", entry.LetterGrade).
		Stringer("alert", out.Alert.Kind).
		Msg("grade calculated")
	return out, nil
}

func alertFor(pct float64) Alert {
	switch {
	case pct == 100:
		return Alert{Kind: AlertPerfect}
	case pct <= FailureThreshold:
		return Alert{Kind: AlertFailure, Percentage: pct}
	default:
		return Alert{}
	}
}

// reject records a refused submission; callers hold c.mu.
func (c *Controller) reject(err error) {
	c.current = nil
	c.alert = Alert{}
	c.warning = ""
	c.errMsg = err.Error()
	c.state = StateShowingError
}

// ResetInputs clears the form, the displayed result and any error. History is
// untouched, and an open failure alert stays open until DismissAlert.
func (c *Controller) ResetInputs() View {
	c.mu.Lock()
	c.inputs = Inputs{}
	c.current = nil
	c.errMsg, c.warning = "", ""
	if c.alert.Kind == AlertFailure {
		c.state = StateShowingFailureAlert
	} else {
		c.alert = Alert{}
		c.state = StateIdle
	}
	v := c.viewLocked()
	c.mu.Unlock()
	c.present(v)
	return v
}

// DismissAlert closes the failure alert. The result, if any, stays on screen.
func (c *Controller) DismissAlert() View {
	c.mu.Lock()
	if c.state == StateShowingFailureAlert {
		if c.current != nil {
			c.state = StateShowingResult
		} else {
			c.state = StateIdle
		}
	}
	c.alert = Alert{}
	v := c.viewLocked()
	c.mu.Unlock()
	c.present(v)
	return v
}

// Delete removes one history entry; unknown ids are ignored.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	removed, err := c.hist.Remove(ctx, id)
	v := c.viewLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if removed {
		c.log.Info().Str("id", id).Msg("history entry deleted")
	}
	c.present(v)
	return nil
}

// Clear wipes the history if the Confirmer agrees. It reports whether the
// history was cleared.
func (c *Controller) Clear(ctx context.Context) (bool, error) {
	if !c.confirm.Confirm(ctx, ClearPrompt) {
		return false, nil
	}
	c.mu.Lock()
	err := c.hist.Clear(ctx)
	v := c.viewLocked()
	c.mu.Unlock()
	if err != nil {
		return false, err
	}
	c.log.Info().Msg("history cleared")
	c.present(v)
	return true, nil
}

// History returns the entries newest first.
func (c *Controller) History() []grading.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hist.Entries()
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	v := View{
		State:   c.state,
		Inputs:  c.inputs,
		Error:   c.errMsg,
		Warning: c.warning,
		Alert:   c.alert,
		History: c.hist.Entries(),
	}
	if c.current != nil {
		cur := *c.current
		v.Current = &cur
	}
	return v
}

func (c *Controller) present(v View) {
	if c.presenter != nil {
		c.presenter.Present(v)
	}
}

// IsValidation reports whether err rejected a submission's values or format.
func IsValidation(err error) bool {
	var ve *ValidationError
	var pe *ParseError
	return errors.As(err, &ve) || errors.As(err, &pe)
}
