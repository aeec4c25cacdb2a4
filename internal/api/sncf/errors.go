package sncf

import "fmt"

// TransportError is a network failure reaching the endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("executing request: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is a response the endpoint produced but that is not a usable page:
// a non-success status, an undecodable body, or an exception reported under 200.
type ProtocolError struct {
	StatusCode int
	Reason     string
	Label      string
	Err        error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("unexpected response: %d %s", e.StatusCode, e.Reason)
	if e.Label != "" {
		msg += " (" + e.Label + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
