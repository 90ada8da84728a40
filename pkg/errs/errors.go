package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNetwork            = errors.New("network error")
	ErrServer             = errors.New("server error")
	ErrSessionExpired     = errors.New("session expired")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
)

const (
	msgNetwork        = "Network error. Please check your connection."
	msgSessionExpired = "Session expired. Please login again."
	msgServer         = "Server error"
	msgUnexpected     = "An unexpected error occurred"
)

// ServerError is a non-2xx answer from the API. Message is the server's
// detail/message field when it sent one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrServer:
		return true
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// ValidationError is a client-side check that failed before anything was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Message returns the text to show the resident for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var se *ServerError
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrSessionExpired):
		return msgSessionExpired
	case errors.Is(err, ErrNetwork):
		return msgNetwork
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &se):
		if se.Message != "" {
			return se.Message
		}
		return msgServer
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrMalformedResponse):
		return "Unexpected response from server"
	}
	return msgUnexpected
}
