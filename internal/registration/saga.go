// Package registration runs the two-step signup: an account in the
// credential service, then a profile in the profile service. Steps are not
// atomic; a failed later step triggers best-effort undo of the earlier ones.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Step is one action of a saga and the action that reverts it.
// Undo may be nil for steps with nothing to revert.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// UndoResult is the outcome of reverting one completed step.
type UndoResult struct {
	Step string
	Err  error
}

// Failure reports a saga that stopped at FailedStep.
type Failure struct {
	FailedStep string
	Cause      error
	// Undone lists compensations in the order they ran; empty when
	// compensation is disabled or the first step failed.
	Undone      []UndoResult
	Compensated bool
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %s failed: %v", f.FailedStep, f.Cause)
	for _, u := range f.Undone {
		if u.Err != nil {
			fmt.Fprintf(&b, "; undo %s failed: %v", u.Step, u.Err)
		}
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Cause }

// CompensationFailed reports whether any undo returned an error.
func (f *Failure) CompensationFailed() bool {
	for _, u := range f.Undone {
		if u.Err != nil {
			return true
		}
	}
	return false
}

// Saga is an ordered list of steps.
type Saga struct {
	Steps []Step
	// Compensate runs Undo of completed steps when a later one fails.
	Compensate bool
}

// Run executes the steps in order. When step N fails it undoes steps N-1..1 in
// reverse and returns a *Failure. Undo runs on a context detached from ctx's
// cancellation so an aborted request still cleans up.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.Steps {
		err := step.Do(ctx)
		if err == nil {
			continue
		}
		f := &Failure{FailedStep: step.Name, Cause: err}
		if s.Compensate && i > 0 {
			f.Compensated = true
			undoCtx := context.WithoutCancel(ctx)
			for j := i - 1; j >= 0; j-- {
				prev := s.Steps[j]
				if prev.Undo == nil {
					continue
				}
				f.Undone = append(f.Undone, UndoResult{Step: prev.Name, Err: safeUndo(undoCtx, prev.Undo)})
			}
		}
		return f
	}
	return nil
}

func safeUndo(ctx context.Context, undo func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("undo panicked: %v", r)
		}
	}()
	return undo(ctx)
}

// AsFailure unwraps a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}
