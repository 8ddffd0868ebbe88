package resolver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("type not found")
	// ErrMemberNotFound is returned when a resolved type has no member of
	// the requested name.
	ErrMemberNotFound = errors.New("member not found")
)

// NotFoundError reports a type name that matches no scanned type.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("type %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AmbiguousError reports a short type name shared by several types. Callers
// should retry with one of the qualified candidates.
type AmbiguousError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("type %q is ambiguous: %s", e.Name, strings.Join(e.Candidates, ", "))
}
