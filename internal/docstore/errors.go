package docstore

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// TransportError is a non-2xx response or a network failure.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("docstore: %s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("docstore: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFound reports whether the server answered 404.
func (e *TransportError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsNotFound reports whether err is a not-found outcome, either a 404
// transport error or any error in the chain with a NotFound() bool method
// that returns true.
func IsNotFound(err error) bool {
	var nf interface{ NotFound() bool }
	return errors.As(err, &nf) && nf.NotFound()
}
