package remote

import (
	"errors"
	"fmt"
)

// ErrMalformedListing marks a structured (?json) listing body that could not be
// interpreted. It is the only error that triggers the ?simple fallback.
var ErrMalformedListing = errors.New("malformed structured listing")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %s", e.Method, e.URL, e.Status)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == 404
}
