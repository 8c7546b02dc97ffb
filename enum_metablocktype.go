package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// MetaBlockType indicates the kind of a Brotli metablock.
type MetaBlockType byte

const (
	// InvalidMetaBlock is a dummy value indicating an invalid metablock.
	InvalidMetaBlock MetaBlockType = iota

	// CompressedMetaBlock indicates a metablock with prefix codes and a
	// command stream.
	CompressedMetaBlock

	// UncompressedMetaBlock indicates a byte-aligned verbatim copy.
	UncompressedMetaBlock

	// MetadataMetaBlock indicates a block of bytes that carry no output
	// and are skipped by the decoder.
	MetadataMetaBlock

	// EmptyMetaBlock indicates the final ISLAST+ISLASTEMPTY metablock.
	EmptyMetaBlock
)

var metaBlockTypeData = []enumhelper.EnumData{
	{GoName: "InvalidMetaBlock", Name: "invalid"},
	{GoName: "CompressedMetaBlock", Name: "compressed"},
	{GoName: "UncompressedMetaBlock", Name: "uncompressed"},
	{GoName: "MetadataMetaBlock", Name: "metadata"},
	{GoName: "EmptyMetaBlock", Name: "empty"},
}

// GoString returns the Go string representation of this MetaBlockType constant.
func (t MetaBlockType) GoString() string {
	return enumhelper.DereferenceEnumData("MetaBlockType", metaBlockTypeData, uint(t)).GoName
}

// String returns the string representation of this MetaBlockType constant.
func (t MetaBlockType) String() string {
	return enumhelper.DereferenceEnumData("MetaBlockType", metaBlockTypeData, uint(t)).Name
}

// MarshalJSON returns the JSON representation of this MetaBlockType constant.
func (t MetaBlockType) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("MetaBlockType", metaBlockTypeData, uint(t))
}

var _ fmt.GoStringer = MetaBlockType(0)
var _ fmt.Stringer = MetaBlockType(0)
