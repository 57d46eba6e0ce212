package service

import (
	"errors"
	"strings"
)

// ErrAuthFailed is returned on any failed authentication. There is
// deliberately no distinction between an unknown username and a wrong
// password.
var ErrAuthFailed = errors.New("invalid username or password")

// ValidationError collects every failed check on user creation as
// human-readable messages. State is never mutated when it is returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) add(msg string) {
	e.Messages = append(e.Messages, msg)
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
