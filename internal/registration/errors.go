package registration

import (
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("registration not found")
	ErrDuplicate = errors.New("a registration with these details already exists")
	ErrInvalid   = errors.New("invalid registration")
)

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalid).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}
