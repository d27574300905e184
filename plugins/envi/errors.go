package envi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady is returned for reads before the first successful poll. It
// signals "busy, try again shortly", not a permanent fault.
var ErrNotReady = errors.New("envi: device state not loaded yet")

// CommunicationError covers transport failures and unexpected HTTP statuses
// after any applicable re-auth retry.
type CommunicationError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *CommunicationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("envi %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("envi %s: http %d: %s", e.Op, e.Status, strings.TrimSpace(e.Body))
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// AuthorizationError is a 401 from the API: the request itself was rejected,
// distinct from a merely expired session token (403).
type AuthorizationError struct {
	Op   string
	Body string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("envi %s: unauthorized: %s", e.Op, strings.TrimSpace(e.Body))
}
