package roleseer

import "errors"

var (
	// ErrKeyNotFound is returned by Lookup when a key is absent. A role with
	// zero servers reports the same error as an absent role.
	ErrKeyNotFound = errors.New("key not found")

	// ErrReadOnly is returned by every mutating operation on a LiveMap.
	ErrReadOnly = errors.New("live map is read-only")

	// ErrUnsupportedFormat is reported when the document path has neither a
	// .yaml nor a .json suffix.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
