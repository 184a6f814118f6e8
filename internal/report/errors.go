package report

import (
	"errors"
	"fmt"
)

// Error kinds. Every kind except ErrSerialization is converted into a failure
// envelope at the call boundary.
var (
	ErrInput         = errors.New("invalid input")
	ErrIO            = errors.New("io failure")
	ErrDecode        = errors.New("decode failure")
	ErrSerialization = errors.New("serialization failure")
)

const (
	MessageNullPath        = "File path is null"
	MessageEmptyPath       = "File path is empty"
	MessageInvalidEncoding = "Invalid file path encoding"
)

// Error carries the envelope message alongside its kind and cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func inputError(message string) error {
	return &Error{Kind: ErrInput, Message: message}
}

func ioError(err error) error {
	return &Error{Kind: ErrIO, Message: fmt.Sprintf("Failed to read file: %v", err), Err: err}
}

func decodeError(err error) error {
	return &Error{Kind: ErrDecode, Message: fmt.Sprintf("Failed to parse replay: %v", err), Err: err}
}

// FailureMessage returns the envelope message for err.
func FailureMessage(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
