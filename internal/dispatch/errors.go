package dispatch

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrBackendUnavailable means the backend could not be reached within the
	// retry budget, or the circuit breaker is open.
	ErrBackendUnavailable = eris.New("dispatch: backend unavailable")
	// ErrBackendRejected means the backend answered with a non-2xx status.
	ErrBackendRejected = eris.New("dispatch: backend rejected request")
	// ErrEmptyCompletion means the backend answered without any text.
	ErrEmptyCompletion = eris.New("dispatch: empty completion")
	// ErrEmptyPrompt is returned before any call when the prompt is blank.
	ErrEmptyPrompt = eris.New("dispatch: empty prompt")
)

// BackendError is the error returned by Send for backend failures. Kind is
// one of ErrBackendUnavailable, ErrBackendRejected or ErrEmptyCompletion, and
// errors.Is matches it.
type BackendError struct {
	Kind       error
	StatusCode int
	Attempts   int
	Err        error
}

func (e *BackendError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is reports whether target is this error's kind.
func (e *BackendError) Is(target error) bool { return target == e.Kind }

// HTTPStatus returns the status the backend answered with, or zero.
func (e *BackendError) HTTPStatus() int { return e.StatusCode }
