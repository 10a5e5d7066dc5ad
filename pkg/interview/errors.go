package interview

import (
	"errors"
	"fmt"
)

// ErrStaleResponse is returned when a remote call completes for an interview
// that has since been reset. The response is discarded.
var ErrStaleResponse = errors.New("interview: response belongs to a previous interview")

// ValidationError marks malformed user input. The session stays where it was
// and the user is asked again.
type ValidationError struct {
	Field   string
	Message string
	// Missing is set when a grouped question is confirmed before every item
	// has a choice.
	Missing int
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GatewayError wraps a failed or malformed response from a remote service.
// The round stays incomplete and the caller may resubmit.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: remote returned status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// StateError reports an action that the current state does not accept.
type StateError struct {
	State  State
	Action string
	Reason string
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("cannot %s while %s", e.Action, e.State)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsGateway(err error) bool {
	var g *GatewayError
	return errors.As(err, &g)
}

func IsState(err error) bool {
	var s *StateError
	return errors.As(err, &s)
}
