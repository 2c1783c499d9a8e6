package cookies

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound          = errors.New("cookie not found")
	ErrCookieConflict    = errors.New("cookie conflict")
	ErrPathWithoutDomain = errors.New("cookie path given without domain")
	ErrStoreClosed       = errors.New("cookie store is closed")
)

// ConflictError is returned when a lookup matches more than one cookie.
// It matches ErrCookieConflict with errors.Is.
type ConflictError struct {
	Name    string
	Matches int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("multiple cookies exist with name=%s (%d matches)", e.Name, e.Matches)
}

// Is reports whether target is ErrCookieConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrCookieConflict
}
