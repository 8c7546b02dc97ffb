package brotli

import (
	"fmt"
)

// FormatError is returned when a stream being decompressed violates the
// Brotli format, or when a Decompressor or Compressor is used in a way its
// current state does not permit.
type FormatError struct {
	Kind    ErrorKind
	Offset  uint64
	Problem string
}

// Error fulfills the error interface.
func (err FormatError) Error() string {
	return fmt.Sprintf("brotli: %v at/near byte offset %d: %s", err.Kind, err.Offset, err.Problem)
}

// Is returns true if target is a FormatError with the same Kind.  This makes
// the sentinel values below usable with errors.Is.
func (err FormatError) Is(target error) bool {
	if x, ok := target.(FormatError); ok {
		return x.Kind == err.Kind
	}
	if x, ok := target.(*FormatError); ok && x != nil {
		return x.Kind == err.Kind
	}
	return false
}

// Sentinel values for use with errors.Is.
var (
	ErrTruncatedInput      error = FormatError{Kind: TruncatedInput}
	ErrInvalidPrefixCode   error = FormatError{Kind: InvalidPrefixCode}
	ErrInvalidParameter    error = FormatError{Kind: InvalidParameter}
	ErrTrailingData        error = FormatError{Kind: TrailingData}
	ErrOutputLimitExceeded error = FormatError{Kind: OutputLimitExceeded}
	ErrInvalidState        error = FormatError{Kind: InvalidState}
)

func formatErrorf(kind ErrorKind, offset uint64, format string, v ...interface{}) FormatError {
	return FormatError{
		Kind:    kind,
		Offset:  offset,
		Problem: fmt.Sprintf(format, v...),
	}
}

var _ error = FormatError{}
