package brotli

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// EventType indicates the type of an Event.
type EventType byte

const (
	// StreamBeginEvent indicates that a compressed stream has started.
	StreamBeginEvent EventType = iota

	// StreamHeaderEvent indicates that the WBITS stream header was
	// successfully processed.
	StreamHeaderEvent

	// MetaBlockBeginEvent indicates that a metablock header was
	// successfully processed.
	MetaBlockBeginEvent

	// MetaBlockTreesEvent indicates that the block type descriptors,
	// context maps, and prefix codes of the current compressed metablock
	// have been successfully processed.
	MetaBlockTreesEvent

	// MetaBlockEndEvent indicates that the data for the current metablock
	// has been successfully processed.
	MetaBlockEndEvent

	// StreamEndEvent indicates that the last metablock of the stream has
	// been processed.
	StreamEndEvent
)

var eventTypeData = []enumhelper.EnumData{
	{GoName: "StreamBeginEvent", Name: "stream-begin"},
	{GoName: "StreamHeaderEvent", Name: "stream-header"},
	{GoName: "MetaBlockBeginEvent", Name: "metablock-begin"},
	{GoName: "MetaBlockTreesEvent", Name: "metablock-trees"},
	{GoName: "MetaBlockEndEvent", Name: "metablock-end"},
	{GoName: "StreamEndEvent", Name: "stream-end"},
}

// GoString returns the Go string representation of this EventType constant.
func (e EventType) GoString() string {
	return enumhelper.DereferenceEnumData("EventType", eventTypeData, uint(e)).GoName
}

// String returns the string representation of this EventType constant.
func (e EventType) String() string {
	return enumhelper.DereferenceEnumData("EventType", eventTypeData, uint(e)).Name
}

// MarshalJSON returns the JSON representation of this EventType constant.
func (e EventType) MarshalJSON() ([]byte, error) {
	return enumhelper.MarshalEnumToJSON("EventType", eventTypeData, uint(e))
}

var _ fmt.GoStringer = EventType(0)
var _ fmt.Stringer = EventType(0)
