package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when an event arrives while a gateway call is outstanding
	ErrBusy = errors.New("a gateway call is already in progress")
	// ErrInvalidTransition is returned for events the current stage does not accept
	ErrInvalidTransition = errors.New("event not allowed in the current stage")
	ErrNoFile            = errors.New("no file selected")
	ErrUnknownHeader     = errors.New("header not present in file")
	ErrNoSession         = errors.New("no import session is open")
)

// ParseError means the selected file cannot be previewed
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "The CSV file is " + e.Reason + "."
}

// GatewayError is a failed call to the task service: either the request never
// completed (StatusCode 0) or the service answered with a non-2xx status.
type GatewayError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": request failed"
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
