package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// ContextMode selects how the two most recent output bytes are combined into
// a literal context id.  The numeric values match the 2-bit field on the
// wire.
type ContextMode byte

const (
	// LSB6Context uses the low 6 bits of the last byte.
	LSB6Context ContextMode = iota

	// MSB6Context uses the high 6 bits of the last byte.
	MSB6Context

	// UTF8Context classifies the last two bytes as UTF-8 text.
	UTF8Context

	// SignedContext classifies the last two bytes as signed integers.
	SignedContext
)

var contextModeData = []enumhelper.EnumData{
	{GoName: "LSB6Context", Name: "lsb6"},
	{GoName: "MSB6Context", Name: "msb6"},
	{GoName: "UTF8Context", Name: "utf8"},
	{GoName: "SignedContext", Name: "signed"},
}

// IsValid returns true if mode is a valid ContextMode constant.
func (mode ContextMode) IsValid() bool {
	return mode <= SignedContext
}

// GoString returns the Go string representation of this ContextMode constant.
func (mode ContextMode) GoString() string {
	return enumhelper.DereferenceEnumData("ContextMode", contextModeData, uint(mode)).GoName
}

// String returns the string representation of this ContextMode constant.
func (mode ContextMode) String() string {
	return enumhelper.DereferenceEnumData("ContextMode", contextModeData, uint(mode)).Name
}

// MarshalJSON returns the JSON representation of this ContextMode constant.
func (mode ContextMode) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("ContextMode", contextModeData, uint(mode))
}

var _ fmt.GoStringer = ContextMode(0)
var _ fmt.Stringer = ContextMode(0)
