package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence error carrying the HTTP status the API layer
// should respond with.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status for this error.
func (e *Error) HTTPCode() int { return e.Code }

// Sentinels returned by Store implementations. Compared with errors.Is.
var (
	ErrNotFound      = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
)
