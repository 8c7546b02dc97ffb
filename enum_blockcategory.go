package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// BlockCategory names one of the three symbol streams of a compressed
// metablock, each of which is split into typed blocks independently.
type BlockCategory byte

const (
	// LiteralCategory is the stream of literal bytes.
	LiteralCategory BlockCategory = iota

	// CommandCategory is the stream of insert-and-copy commands.
	CommandCategory

	// DistanceCategory is the stream of explicit distance codes.
	DistanceCategory
)

const numBlockCategories = 3

var blockCategoryData = []enumhelper.EnumData{
	{GoName: "LiteralCategory", Name: "literal"},
	{GoName: "CommandCategory", Name: "command"},
	{GoName: "DistanceCategory", Name: "distance"},
}

// GoString returns the Go string representation of this BlockCategory constant.
func (cat BlockCategory) GoString() string {
	return enumhelper.DereferenceEnumData("BlockCategory", blockCategoryData, uint(cat)).GoName
}

// String returns the string representation of this BlockCategory constant.
func (cat BlockCategory) String() string {
	return enumhelper.DereferenceEnumData("BlockCategory", blockCategoryData, uint(cat)).Name
}

// MarshalJSON returns the JSON representation of this BlockCategory constant.
func (cat BlockCategory) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("BlockCategory", blockCategoryData, uint(cat))
}

var _ fmt.GoStringer = BlockCategory(0)
var _ fmt.Stringer = BlockCategory(0)
