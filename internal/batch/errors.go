package batch

import (
	"errors"
	"fmt"
)

// Input error kinds. Match with errors.Is.
var (
	ErrRFPNotFound      = errors.New("rfp not found")
	ErrResponseNotFound = errors.New("supplier response not found")
	ErrEmptyCatalog     = errors.New("rfp has no requirements")
)

// InputError is returned when an operation's inputs cannot be loaded. It is
// fatal to that operation only.
type InputError struct {
	Kind  error
	ID    string
	Cause error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.ID, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.ID)
}

func (e *InputError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}
