package domain

import (
	"errors"
	"strings"
)

// ErrNotFound is wrapped by repositories and services when a referenced
// record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a malformed request: an unknown anchor, an item
// outside the stated scope, an order that is not a permutation of the scope.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// DependencyViolationError reports that placing ItemID where requested would
// leave it ahead of items it depends on.
type DependencyViolationError struct {
	ItemID    string
	Conflicts []string
	// Refs optionally maps item IDs to user-facing references for Error.
	Refs map[string]string
}

func (e *DependencyViolationError) ref(id string) string {
	if r, ok := e.Refs[id]; ok {
		return r
	}
	return "#" + id
}

func (e *DependencyViolationError) Error() string {
	refs := make([]string, len(e.Conflicts))
	for i, id := range e.Conflicts {
		refs[i] = e.ref(id)
	}
	return e.ref(e.ItemID) + " depends on other items (" + strings.Join(refs, ", ") + "), it cannot be sorted"
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
