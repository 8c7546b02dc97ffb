package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

type decoderState byte

const (
	// streamHeaderDecoderState: we are waiting for the WBITS field.
	streamHeaderDecoderState decoderState = iota

	// metaBlockHeaderDecoderState: we are at the start of a metablock.
	metaBlockHeaderDecoderState

	// uncompressedDecoderState: we are copying the bytes of an
	// uncompressed metablock.
	uncompressedDecoderState

	// metadataDecoderState: we are skipping the bytes of a metadata
	// metablock.
	metadataDecoderState

	// blockTypesDecoderState: we are reading NBLTYPES and the block
	// switch codes of one block category.
	blockTypesDecoderState

	// distanceParamsDecoderState: we are reading NPOSTFIX, NDIRECT, and
	// the literal context modes.
	distanceParamsDecoderState

	// literalContextMapDecoderState: we are reading NTREESL and the
	// literal context map.
	literalContextMapDecoderState

	// distanceContextMapDecoderState: we are reading NTREESD and the
	// distance context map.
	distanceContextMapDecoderState

	// treesDecoderState: we are reading the prefix codes, one per step.
	treesDecoderState

	// commandDecoderState: we are reading an insert-and-copy command.
	commandDecoderState

	// insertDecoderState: we are reading the literals of a command.
	insertDecoderState

	// distanceDecoderState: we are reading the distance of a command.
	distanceDecoderState

	// copyDecoderState: we are copying a backward reference.
	copyDecoderState

	// wordDecoderState: we are emitting a transformed dictionary word.
	wordDecoderState

	// metaBlockEndDecoderState: the current metablock has produced all of
	// its bytes.
	metaBlockEndDecoderState

	// doneDecoderState: the last metablock has been decoded and the stream
	// is over.
	doneDecoderState
)

var decoderStateData = []enumhelper.EnumData{
	{GoName: "streamHeaderDecoderState", Name: "streamHeader"},
	{GoName: "metaBlockHeaderDecoderState", Name: "metaBlockHeader"},
	{GoName: "uncompressedDecoderState", Name: "uncompressed"},
	{GoName: "metadataDecoderState", Name: "metadata"},
	{GoName: "blockTypesDecoderState", Name: "blockTypes"},
	{GoName: "distanceParamsDecoderState", Name: "distanceParams"},
	{GoName: "literalContextMapDecoderState", Name: "literalContextMap"},
	{GoName: "distanceContextMapDecoderState", Name: "distanceContextMap"},
	{GoName: "treesDecoderState", Name: "trees"},
	{GoName: "commandDecoderState", Name: "command"},
	{GoName: "insertDecoderState", Name: "insert"},
	{GoName: "distanceDecoderState", Name: "distance"},
	{GoName: "copyDecoderState", Name: "copy"},
	{GoName: "wordDecoderState", Name: "word"},
	{GoName: "metaBlockEndDecoderState", Name: "metaBlockEnd"},
	{GoName: "doneDecoderState", Name: "done"},
}

func (s decoderState) GoString() string {
	return enumhelper.DereferenceEnumData("decoderState", decoderStateData, uint(s)).GoName
}

func (s decoderState) String() string {
	return enumhelper.DereferenceEnumData("decoderState", decoderStateData, uint(s)).Name
}

func (s decoderState) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("decoderState", decoderStateData, uint(s))
}

var _ fmt.GoStringer = decoderState(0)
var _ fmt.Stringer = decoderState(0)
