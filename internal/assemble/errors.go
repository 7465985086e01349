package assemble

import "errors"

// ErrMalformedCompletion matches every *MalformedCompletionError.
var ErrMalformedCompletion = errors.New("malformed completion")

// MalformedCompletionError means the completion yields no usable field at all.
// Callers retry the completion or report a generation failure.
type MalformedCompletionError struct {
	Reason string
}

func (e *MalformedCompletionError) Error() string {
	return "malformed completion: " + e.Reason
}

func (e *MalformedCompletionError) Is(target error) bool {
	return target == ErrMalformedCompletion
}

func malformed(reason string) error {
	return &MalformedCompletionError{Reason: reason}
}
