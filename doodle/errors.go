package doodle

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthentication                = errors.New("doodle: authentication failed")
	ErrInvalidPollType               = errors.New("doodle: poll type must be TEXT or DATE")
	ErrDescriptionOrLocationRequired = errors.New("doodle: description or location is required")
	ErrMalformedResponse             = errors.New("doodle: malformed response")
)

// StatusError is returned for any non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("doodle: %s %s: %s", e.Method, e.URL, e.Status)
}

func (e *StatusError) IsNotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

func (e *StatusError) IsUnauthorized() bool {
	return e != nil && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// AsStatusError reports whether err carries a *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
