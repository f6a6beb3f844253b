package atom

import (
	"errors"
	"fmt"
)

// Envelope errors.
var (
	// ErrEntityNotFound reports that a document does not contain the
	// requested entity. It covers malformed XML, envelopes missing the
	// entry or title elements, and feeds without entries.
	ErrEntityNotFound = errors.New("entity not found")
)

// DecodeError reports a failure while decoding a single field of an
// entity body. It names the entity kind and the wire element so callers
// can log actionable detail, and wraps the underlying cause.
type DecodeError struct {
	// Entity is the wire name of the entity being decoded, for example
	// "SubscriptionDescription".
	Entity string

	// Elem is the tag of the element whose value could not be decoded.
	Elem string

	// Err is the underlying cause.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: element %q: %v", e.Entity, e.Elem, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
