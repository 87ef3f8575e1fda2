package output

import (
	"context"
	"errors"
	"fmt"

	"shop-agent/internal/domain/entity"
)

// StepError wraps a failed browser operation with enough context to classify
// and report it.
type StepError struct {
	Kind entity.FailureKind
	Op   string
	Sel  string
	Err  error
}

func (e *StepError) Error() string {
	if e.Sel != "" {
		return fmt.Sprintf("%s %q: %s", e.Op, e.Sel, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// KindOf classifies an error as a timeout or a generic exception.
func KindOf(err error) entity.FailureKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrElementNotVisible) {
		return entity.FailTimeout
	}
	return entity.FailException
}

// NewStepError builds a StepError, deriving the kind from the cause.
func NewStepError(op, sel string, err error) *StepError {
	kind := entity.FailException
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrElementNotVisible) {
		kind = entity.FailTimeout
	}
	return &StepError{Kind: kind, Op: op, Sel: sel, Err: err}
}
