package flows

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-jsform/pkg/form"
	"github.com/goliatone/go-jsform/pkg/interpreter"
	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/render"
	"github.com/goliatone/go-jsform/pkg/validation"
)

// Stage is the lifecycle position of a flow.
type Stage string

const (
	StageLoading      Stage = "loading"
	StageForm         Stage = "form"
	StageConfirmation Stage = "confirmation_form"
	StageSubmitted    Stage = "submitted"
	StageError        Stage = "error"
)

var (
	// ErrNoChanges rejects a submission whose values match the initial ones.
	ErrNoChanges = errors.New("flows: no changes to submit")
	// ErrSubmitInFlight rejects a submission while another one is running.
	ErrSubmitInFlight = errors.New("flows: submission already in flight")
	// ErrInvalidStage rejects an operation the current stage does not allow.
	ErrInvalidStage = errors.New("flows: operation not allowed in current stage")
)

// Config shapes a flow's behaviour.
type Config struct {
	// Name identifies the flow to the client.
	Name string
	// RequireChanges enables the no-change submission guard.
	RequireChanges bool
	// Confirmation inserts a confirmation step before the remote submit.
	Confirmation bool
	// ComposerOptions pass through to the underlying composer.
	ComposerOptions []form.ComposerOption
	// InterpreterOptions pass through to interpreter construction.
	InterpreterOptions []interpreter.Option
}

// Outcome reports the result of a submission attempt.
type Outcome struct {
	Stage      Stage
	Validation validation.Result
	Response   map[string]any
}

// Flow is one running flow instance. It is safe for concurrent use, though a
// single user interaction loop is the expected caller.
type Flow struct {
	cfg     Config
	client  Client
	session *Session

	mu         sync.Mutex
	stage      Stage
	composer   *form.Composer
	initial    map[string]any
	submitting bool
	lastErr    *APIError
}

// NewAmendmentFlow edits an existing contract: prefilled values, a no-change
// guard, and a confirmation step before submission.
func NewAmendmentFlow(client Client, session *Session, options ...func(*Config)) (*Flow, error) {
	return newFlow(Config{Name: "amendment", RequireChanges: true, Confirmation: true}, client, session, options...)
}

// NewTerminationFlow collects termination details with a confirmation step.
func NewTerminationFlow(client Client, session *Session, options ...func(*Config)) (*Flow, error) {
	return newFlow(Config{Name: "termination", Confirmation: true}, client, session, options...)
}

// NewOnboardingFlow collects a new hire's details and submits directly.
func NewOnboardingFlow(client Client, session *Session, options ...func(*Config)) (*Flow, error) {
	return newFlow(Config{Name: "onboarding"}, client, session, options...)
}

// NewFlow builds a flow from an explicit config.
func NewFlow(cfg Config, client Client, session *Session) (*Flow, error) {
	return newFlow(cfg, client, session)
}

func newFlow(cfg Config, client Client, session *Session, options ...func(*Config)) (*Flow, error) {
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Name == "" {
		return nil, errors.New("flows: flow name is required")
	}
	if client == nil {
		return nil, errors.New("flows: client is required")
	}
	if session == nil {
		return nil, errors.New("flows: session is required")
	}
	return &Flow{cfg: cfg, client: client, session: session, stage: StageLoading}, nil
}

// Stage returns the current lifecycle position.
func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// LastError returns the most recent server rejection, if any.
func (f *Flow) LastError() *APIError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Load fetches the schema, builds the interpreter, and moves to the form
// stage. Initial values prefill the form and seed the no-change guard.
func (f *Flow) Load(ctx context.Context, initial map[string]any) error {
	f.mu.Lock()
	if f.stage != StageLoading {
		f.mu.Unlock()
		return fmt.Errorf("%w: load from %s", ErrInvalidStage, f.stage)
	}
	f.mu.Unlock()

	token, err := f.session.Token(ctx)
	if err != nil {
		return fmt.Errorf("flows: refresh session: %w", err)
	}
	doc, err := f.client.FetchSchema(ctx, token.Value, f.cfg.Name)
	if err != nil {
		f.setStage(StageError)
		return fmt.Errorf("flows: fetch schema: %w", err)
	}

	interp, err := interpreter.New(ctx, doc, f.cfg.InterpreterOptions...)
	if err != nil {
		f.setStage(StageError)
		return err
	}

	composerOptions := append([]form.ComposerOption{form.WithInitialValues(initial)}, f.cfg.ComposerOptions...)
	composer, err := form.NewComposer(interp, composerOptions...)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.composer = composer
	f.initial = snapshot(initial)
	f.stage = StageForm
	f.mu.Unlock()
	return nil
}

// Form composes the current field descriptors.
func (f *Flow) Form() (model.Form, error) {
	composer, err := f.activeComposer()
	if err != nil {
		return model.Form{}, err
	}
	return composer.Compose()
}

// SetValue stores a field value.
func (f *Flow) SetValue(path string, value any) error {
	composer, err := f.activeComposer()
	if err != nil {
		return err
	}
	return composer.SetValue(path, value)
}

// Values returns the current value map.
func (f *Flow) Values() (map[string]any, error) {
	composer, err := f.activeComposer()
	if err != nil {
		return nil, err
	}
	return composer.State().Values(), nil
}

// Back steps from confirmation or error back to the form without losing
// collected values.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.stage {
	case StageConfirmation, StageError:
		f.stage = StageForm
		return nil
	default:
		return fmt.Errorf("%w: back from %s", ErrInvalidStage, f.stage)
	}
}

// Submit advances the flow. In the form stage it validates and either moves
// to confirmation or posts to the server; in the confirmation stage it posts.
// Only one submission runs at a time.
func (f *Flow) Submit(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	if f.stage != StageForm && f.stage != StageConfirmation {
		stage := f.stage
		f.mu.Unlock()
		return Outcome{Stage: stage}, fmt.Errorf("%w: submit from %s", ErrInvalidStage, stage)
	}
	f.submitting = true
	stage := f.stage
	composer := f.composer
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	payload, result, err := composer.Submit()
	if err != nil {
		return Outcome{Stage: stage}, err
	}
	if !result.Valid {
		f.setStage(StageForm)
		return Outcome{Stage: StageForm, Validation: result}, nil
	}

	if f.cfg.RequireChanges && reflect.DeepEqual(payload, f.initialValues()) {
		return Outcome{Stage: stage, Validation: result}, ErrNoChanges
	}

	if f.cfg.Confirmation && stage == StageForm {
		f.setStage(StageConfirmation)
		return Outcome{Stage: StageConfirmation, Validation: result}, nil
	}

	return f.send(ctx, payload, result)
}

func (f *Flow) send(ctx context.Context, payload map[string]any, result validation.Result) (Outcome, error) {
	token, err := f.session.Token(ctx)
	if err != nil {
		f.setStage(StageError)
		return Outcome{Stage: StageError}, fmt.Errorf("flows: refresh session: %w", err)
	}

	response, err := f.client.Submit(ctx, token.Value, f.cfg.Name, payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// Server rejections with field details send the user back to the
			// form with the messages attached; anything else is terminal.
			f.mu.Lock()
			f.lastErr = apiErr
			if len(apiErr.FieldErrors) > 0 {
				f.stage = StageForm
			} else {
				f.stage = StageError
			}
			stage := f.stage
			f.mu.Unlock()
			return Outcome{Stage: stage, Validation: result}, err
		}
		f.setStage(StageError)
		return Outcome{Stage: StageError}, fmt.Errorf("flows: submit: %w", err)
	}

	f.mu.Lock()
	f.stage = StageSubmitted
	f.lastErr = nil
	f.mu.Unlock()
	return Outcome{Stage: StageSubmitted, Validation: result, Response: response}, nil
}

// FieldErrors maps the last server rejection onto the form's field paths.
func (f *Flow) FieldErrors() (render.ErrorMapping, error) {
	f.mu.Lock()
	lastErr := f.lastErr
	f.mu.Unlock()

	if lastErr == nil {
		return render.ErrorMapping{}, nil
	}
	current, err := f.Form()
	if err != nil {
		return render.ErrorMapping{}, err
	}
	return render.NormalizeFieldErrors(current, lastErr.FieldErrors), nil
}

func (f *Flow) activeComposer() (*form.Composer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.composer == nil {
		return nil, fmt.Errorf("%w: flow not loaded", ErrInvalidStage)
	}
	return f.composer, nil
}

func (f *Flow) setStage(stage Stage) {
	f.mu.Lock()
	f.stage = stage
	f.mu.Unlock()
}

func (f *Flow) initialValues() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initial
}

func snapshot(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}
