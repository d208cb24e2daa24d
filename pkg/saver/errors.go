package saver

import (
	"errors"
	"time"
)

// Code is the machine-readable failure code returned by the save endpoint.
type Code string

const (
	CodeInvalidFormat Code = "INVALID_FORMAT"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeServerError   Code = "SERVER_ERROR"
)

// Error describes a failed save. Message is human readable and is what the
// builder records on the question.
type Error struct {
	Status    int       `json:"status"`
	Code      Code      `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Failures is the fixed failure taxonomy the simulator draws from.
var Failures = []Error{
	{Status: 400, Code: CodeInvalidFormat, Message: "Invalid question format"},
	{Status: 401, Code: CodeUnauthorized, Message: "Unauthorized access"},
	{Status: 403, Code: CodeForbidden, Message: "Permission denied"},
	{Status: 500, Code: CodeServerError, Message: "Internal server error"},
}

// AsError extracts a save failure from err.
func AsError(err error) (*Error, bool) {
	var saveErr *Error
	if errors.As(err, &saveErr) {
		return saveErr, true
	}
	return nil, false
}
