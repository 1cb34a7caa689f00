package cloud

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure classes the client reports. Every
// error surfaced by this package carries exactly one kind, so callers can map
// failures to responses without inspecting messages.
type ErrorKind int

const (
	// KindService covers 5xx responses that persisted through retries and
	// unparseable response bodies.
	KindService ErrorKind = iota
	// KindConfiguration means the client was constructed with invalid settings.
	KindConfiguration
	// KindAuthentication covers 401 and 403 responses. Never retried.
	KindAuthentication
	// KindClient covers the remaining 4xx responses. Never retried.
	KindClient
	// KindTimeout means a request exceeded the configured timeout on every attempt.
	KindTimeout
	// KindConnection means the service could not be reached on every attempt.
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindClient:
		return "client"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every Client method.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cloud service %s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("cloud service %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed: timeouts, connection
// failures, and 5xx responses. Auth and other 4xx failures are final.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection:
		return true
	case KindService:
		return e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// IsKind reports whether err is a cloud *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var cloudErr *Error
	return errors.As(err, &cloudErr) && cloudErr.Kind == kind
}
