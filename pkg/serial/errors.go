package serial

import (
	"errors"
	"fmt"
)

// Decode failure roots. Every error returned while reading wraps exactly one of them.
var (
	// ErrFormatMismatch means the bytes are not this container format at all.
	// Callers treat it as "try another loader", not as a failure.
	ErrFormatMismatch = errors.New("not a blocks container")

	// ErrCorruptData means the header matched but the body is malformed.
	ErrCorruptData = errors.New("corrupt blocks data")
)

// Structural failures. Each wraps ErrCorruptData.
var (
	ErrTruncated       = fmt.Errorf("%w: truncated buffer", ErrCorruptData)
	ErrLabelMismatch   = fmt.Errorf("%w: unexpected chunk label", ErrCorruptData)
	ErrChunkOverrun    = fmt.Errorf("%w: chunk length exceeds enclosing region", ErrCorruptData)
	ErrCountOutOfRange = fmt.Errorf("%w: count out of range", ErrCorruptData)
	ErrInvalidValue    = fmt.Errorf("%w: invalid value", ErrCorruptData)
)

// ErrInvalidRegion is returned when SetupForReading is given an offset/length
// that does not fit the supplied slice.
var ErrInvalidRegion = errors.New("read region outside buffer")
