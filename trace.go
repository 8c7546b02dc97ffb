package brotli

import (
	"github.com/chronos-tachyon/assert"
	"github.com/rs/zerolog"
)

// Tracer is an interface which callers can implement in order to receive
// Events.  Events provide feedback on the progress of the compression or
// decompression operation.
type Tracer interface {
	OnEvent(Event)
}

// Event is a collection of fields that provide feedback on the progress of the
// compression or decompression operation in progress.  Events are provided to
// Tracers registered with a Compressor, Decompressor, Reader, or Writer.
type Event struct {
	Type             EventType
	InputBytesTotal  uint64
	OutputBytesTotal uint64
	NumMetaBlocks    uint
	Header           *Header
	MetaBlock        *MetaBlockEvent
	Trees            *TreesEvent
	Footer           *FooterEvent
}

// MetaBlockEvent is a sub-struct that is only present for MetaBlockFooEvent.
type MetaBlockEvent struct {
	Type   MetaBlockType
	IsLast bool
	Length uint32
}

// TreesEvent is a sub-struct that is only present for MetaBlockTreesEvent.
// NumBlockTypes is indexed by BlockCategory.
type TreesEvent struct {
	NumBlockTypes    [numBlockCategories]uint16
	ContextModes     []ContextMode
	NumLiteralTrees  uint16
	NumDistanceTrees uint16
	NPostfix         byte
	NDirect          byte

	LiteralSizes  []SizeList
	CommandSizes  []SizeList
	DistanceSizes []SizeList
}

// FooterEvent is a sub-struct that is only present for StreamEndEvent.
type FooterEvent struct {
	XXH64 Checksum64
}

// type NoOpTracer {{{

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// OnEvent fulfills Tracer.
func (NoOpTracer) OnEvent(event Event) {}

var _ Tracer = NoOpTracer{}

// }}}

// type TracerFunc {{{

// TracerFunc is an implementation of Tracer that calls a function.
type TracerFunc func(Event)

// OnEvent fulfills Tracer.
func (tr TracerFunc) OnEvent(event Event) {
	tr(event)
}

var _ Tracer = TracerFunc(nil)

// }}}

// type captureHeaderTracer {{{

// CaptureHeader returns a Tracer implementation which will fill the pointed-to
// Header object when StreamHeaderEvent is encountered.
func CaptureHeader(ptr *Header) Tracer {
	assert.NotNil(&ptr)
	return captureHeaderTracer{ptr: ptr}
}

type captureHeaderTracer struct {
	ptr *Header
}

// OnEvent fulfills Tracer.
func (tr captureHeaderTracer) OnEvent(event Event) {
	if event.Type == StreamHeaderEvent && event.Header != nil {
		*tr.ptr = *event.Header
	}
}

var _ Tracer = captureHeaderTracer{}

// }}}

// type logTracer {{{

// Log returns a Tracer implementation which will log each Event at Trace
// priority.
func Log(logger zerolog.Logger) Tracer {
	return logTracer{logger: logger}
}

type logTracer struct {
	logger zerolog.Logger
}

// OnEvent fulfills Tracer.
func (tr logTracer) OnEvent(event Event) {
	ev := tr.logger.Trace().
		Stringer("type", event.Type).
		Uint64("inputBytes", event.InputBytesTotal).
		Uint64("outputBytes", event.OutputBytesTotal)
	if event.MetaBlock != nil {
		ev = ev.Stringer("metaBlockType", event.MetaBlock.Type).
			Bool("isLast", event.MetaBlock.IsLast).
			Uint32("length", event.MetaBlock.Length)
	}
	if event.Footer != nil {
		ev = ev.Stringer("xxh64", event.Footer.XXH64)
	}
	ev.Interface("event", event).Msg("OnEvent")
}

var _ Tracer = logTracer{}

// }}}
