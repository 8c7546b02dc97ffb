package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

type compressorState byte

const (
	// noStreamCompressorState: we have not written the stream header yet.
	noStreamCompressorState compressorState = iota

	// openStreamCompressorState: we have written the stream header and 0
	// or more non-final metablocks.
	openStreamCompressorState

	// finishedCompressorState: we have written the final metablock, and
	// the only valid action is to Reset.
	finishedCompressorState
)

var compressorStateData = []enumhelper.EnumData{
	{GoName: "noStreamCompressorState", Name: "noStream"},
	{GoName: "openStreamCompressorState", Name: "openStream"},
	{GoName: "finishedCompressorState", Name: "finished"},
}

func (s compressorState) GoString() string {
	return enumhelper.DereferenceEnumData("compressorState", compressorStateData, uint(s)).GoName
}

func (s compressorState) String() string {
	return enumhelper.DereferenceEnumData("compressorState", compressorStateData, uint(s)).Name
}

func (s compressorState) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("compressorState", compressorStateData, uint(s))
}

var _ fmt.GoStringer = compressorState(0)
var _ fmt.Stringer = compressorState(0)
