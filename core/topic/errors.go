package topic

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when publishing on a tree that has been closed.
	ErrClosed = errors.New("topic tree closed")

	// ErrLoopClosed is returned when scheduling onto a stopped loop.
	ErrLoopClosed = errors.New("task loop closed")

	// ErrLoopAlreadyStarted is returned when attempting to start a loop that is already running.
	ErrLoopAlreadyStarted = errors.New("task loop already started")

	// ErrLoopNotStarted is returned when attempting to stop a loop that is not running.
	ErrLoopNotStarted = errors.New("task loop not started")

	// ErrHealthcheckFailed is returned when the health check detects an issue.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	// ErrUnexpectedPayload is returned by typed subscribers when the payload cannot be converted.
	ErrUnexpectedPayload = errors.New("unexpected payload type")
)

// PanicError carries a value recovered from a panicking subscriber, middleware or task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
