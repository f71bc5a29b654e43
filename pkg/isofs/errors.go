package isofs

import "errors"

var (
	// ErrMalformedRecord reports a directory or path table record that fails
	// basic sanity checks: negative length, implausible location or truncated data.
	ErrMalformedRecord = errors.New("malformed directory record")
	// ErrNotFound reports a name or path with no matching entry, or a path
	// that tries to descend through a file.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidArgument reports an empty path given to Resolve or a path
	// table entry number out of range.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidVolume reports a sector 16 that is not a Primary Volume Descriptor.
	ErrInvalidVolume = errors.New("invalid primary volume descriptor")
)
