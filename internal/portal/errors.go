package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAssociated means the host has no network association, so no
	// request was attempted.
	ErrNotAssociated = errors.New("not associated with a network")

	// ErrTransportOpen means the request could not be built.
	ErrTransportOpen = errors.New("cannot open request")

	// ErrTransport wraps connection failures and timeouts.
	ErrTransport = errors.New("transport failure")
)

// UnexpectedStatusError reports a response status outside the accepted set.
type UnexpectedStatusError struct {
	Op   string
	Code int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
}

// StatusCode extracts the HTTP status from err, or 0 when none was received.
func StatusCode(err error) int {
	var se *UnexpectedStatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
