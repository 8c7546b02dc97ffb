package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// Mode hints at the kind of data being compressed.  It only influences the
// Compressor's heuristics; every Mode produces a standard stream.
type Mode byte

const (
	// GenericMode makes no assumptions about the data.
	GenericMode Mode = iota

	// TextMode indicates UTF-8 encoded text.
	TextMode

	// FontMode indicates WOFF 2.0 font data.
	FontMode
)

var modeData = []enumhelper.EnumData{
	{GoName: "GenericMode", Name: "generic", Aliases: []string{strDefault}},
	{GoName: "TextMode", Name: "text"},
	{GoName: "FontMode", Name: "font"},
}

// IsValid returns true if mode is a valid Mode constant.
func (mode Mode) IsValid() bool {
	return mode >= GenericMode && mode <= FontMode
}

// GoString returns the Go string representation of this Mode constant.
func (mode Mode) GoString() string {
	return enumhelper.DereferenceEnumData("Mode", modeData, uint(mode)).GoName
}

// String returns the string representation of this Mode constant.
func (mode Mode) String() string {
	return enumhelper.DereferenceEnumData("Mode", modeData, uint(mode)).Name
}

// MarshalJSON returns the JSON representation of this Mode constant.
func (mode Mode) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("Mode", modeData, uint(mode))
}

// Parse parses a string representation of a Mode constant.
func (mode *Mode) Parse(str string) error {
	value, err := enumhelper.ParseEnum("Mode", modeData, str)
	*mode = Mode(value)
	return err
}

var _ fmt.GoStringer = Mode(0)
var _ fmt.Stringer = Mode(0)
