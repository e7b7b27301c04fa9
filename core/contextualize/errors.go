package contextualize

import "errors"

var (
	// ErrInvalidConfig is returned when construction input has the wrong
	// shape, no properties, or non-string property names.
	ErrInvalidConfig = errors.New("contextualize: invalid configuration")

	// ErrUncontextualized is returned when a request is used before the
	// root middleware installed its namespace.
	ErrUncontextualized = errors.New("contextualize: request is not contextualized")

	// ErrNotIdentified is returned when an identifier is required but the
	// object has none, or no handler is active on the request.
	ErrNotIdentified = errors.New("contextualize: object has no identifier")

	// ErrNotCallable is returned when a nil handler is wrapped or chained.
	ErrNotCallable = errors.New("contextualize: handler is not callable")

	// ErrUnknownProperty is returned when accessing a property the engine does not track.
	ErrUnknownProperty = errors.New("contextualize: property is not tracked")

	// ErrUnidentifiable is returned when an object cannot carry an identifier.
	ErrUnidentifiable = errors.New("contextualize: object cannot carry an identifier")

	// ErrEmptyIdentifier is returned when assigning an empty identifier.
	ErrEmptyIdentifier = errors.New("contextualize: empty identifier")

	// ErrAlreadyWrapped is returned when a wrapped stage is given another identifier.
	ErrAlreadyWrapped = errors.New("contextualize: stage is already wrapped")

	// ErrTypeMismatch is returned by typed properties when the stored value has another type.
	ErrTypeMismatch = errors.New("contextualize: type mismatch")
)
