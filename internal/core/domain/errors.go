package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared across the module. ErrTemporary marks collaborator
// failures a caller may retry; the HTTP layer maps it to 503 and the worker
// lets the document row record it rather than requeueing.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError tags err with a semantic kind and the failing operation. A nil
// err stays nil so call sites can wrap unconditionally.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
