package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// ErrorKind classifies a FormatError.
type ErrorKind byte

const (
	// TruncatedInput indicates that the stream ended in the middle of a
	// field or before the final metablock.
	TruncatedInput ErrorKind = iota

	// InvalidPrefixCode indicates a code length table that does not
	// describe a complete prefix code, or a bit pattern that matches no
	// codeword.
	InvalidPrefixCode

	// InvalidParameter indicates a reserved or out-of-range value: a
	// window size, a length, a distance, a context map entry, nonzero
	// padding, and the like.
	InvalidParameter

	// TrailingData indicates that bytes remain after the logical end of
	// the stream.
	TrailingData

	// OutputLimitExceeded indicates that the uncompressed data would
	// exceed the configured maximum output size.
	OutputLimitExceeded

	// InvalidState indicates that the caller used a Decompressor or
	// Compressor in a state that does not permit the call, such as
	// feeding more data after the end of the stream.
	InvalidState
)

var errorKindData = []enumhelper.EnumData{
	{GoName: "TruncatedInput", Name: "truncated input"},
	{GoName: "InvalidPrefixCode", Name: "invalid prefix code"},
	{GoName: "InvalidParameter", Name: "invalid parameter"},
	{GoName: "TrailingData", Name: "trailing data"},
	{GoName: "OutputLimitExceeded", Name: "output limit exceeded"},
	{GoName: "InvalidState", Name: "invalid state"},
}

// IsValid returns true if kind is a valid ErrorKind constant.
func (kind ErrorKind) IsValid() bool {
	return kind <= InvalidState
}

// GoString returns the Go string representation of this ErrorKind constant.
func (kind ErrorKind) GoString() string {
	return enumhelper.DereferenceEnumData("ErrorKind", errorKindData, uint(kind)).GoName
}

// String returns the string representation of this ErrorKind constant.
func (kind ErrorKind) String() string {
	return enumhelper.DereferenceEnumData("ErrorKind", errorKindData, uint(kind)).Name
}

// MarshalJSON returns the JSON representation of this ErrorKind constant.
func (kind ErrorKind) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("ErrorKind", errorKindData, uint(kind))
}

var _ fmt.GoStringer = ErrorKind(0)
var _ fmt.Stringer = ErrorKind(0)
