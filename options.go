package brotli

import (
	"github.com/chronos-tachyon/assert"
)

// Option represents a configuration option for Compressor, Decompressor,
// Writer, or Reader.
type Option func(*options)

type options struct {
	quality       Quality
	wbits         WindowBits
	lgblock       BlockBits
	mode          Mode
	dict          []byte
	tracers       []Tracer
	strictPadding bool
	maxOutputSize uint64

	distParams    distanceParams
	hasDistParams bool
}

func (o *options) reset() {
	*o = options{
		quality:       DefaultQuality,
		wbits:         DefaultWindowBits,
		lgblock:       DefaultBlockBits,
		mode:          GenericMode,
		dict:          nil,
		tracers:       nil,
		strictPadding: true,
		maxOutputSize: 0,
	}
}

func (o *options) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
}

func (o *options) populateDecoderDefaults() {
	if o.wbits == DefaultWindowBits {
		o.wbits = defaultWindowBits
	}
}

func (o *options) populateEncoderDefaults() {
	o.populateDecoderDefaults()
	if o.quality == DefaultQuality {
		o.quality = BestQuality
	}
	if o.lgblock == DefaultBlockBits {
		o.lgblock = defaultBlockBits(o.quality, o.wbits)
	}
}

// defaultBlockBits follows the reference encoder: 64 KiB metablocks, or up
// to 256 KiB for the slowest qualities when the window is large enough.
func defaultBlockBits(q Quality, wbits WindowBits) BlockBits {
	lgblock := MinBlockBits
	if q >= 9 && BlockBits(wbits) > lgblock {
		lgblock = BlockBits(wbits)
		if lgblock > 18 {
			lgblock = 18
		}
	}
	return lgblock
}

// config is the immutable configuration captured by a stream when it is
// constructed or reset.
type config struct {
	quality       Quality
	wbits         WindowBits
	lgblock       BlockBits
	mode          Mode
	dict          []byte
	tracers       []Tracer
	strictPadding bool
	maxOutputSize uint64

	distParams    distanceParams
	hasDistParams bool
}

func (o *options) config() config {
	return config{
		quality:       o.quality,
		wbits:         o.wbits,
		lgblock:       o.lgblock,
		mode:          o.mode,
		dict:          o.dict,
		tracers:       o.tracers,
		strictPadding: o.strictPadding,
		maxOutputSize: o.maxOutputSize,
		distParams:    o.distParams,
		hasDistParams: o.hasDistParams,
	}
}

func decoderConfig(opts []Option) config {
	var o options
	o.reset()
	o.apply(opts)
	o.populateDecoderDefaults()
	return o.config()
}

func encoderConfig(opts []Option) config {
	var o options
	o.reset()
	o.apply(opts)
	o.populateEncoderDefaults()
	return o.config()
}

// WithQuality specifies the Quality to use (Compressor, Writer).  Ignored by
// Decompressor and Reader.
func WithQuality(q Quality) Option {
	assert.Assertf(q.IsValid(), "invalid Quality %d", int(q))
	return func(o *options) { o.quality = q }
}

// WithWindowBits specifies the WindowBits to use (Compressor, Writer).  The
// decoder reads the window size from the stream itself and ignores this.
func WithWindowBits(wbits WindowBits) Option {
	assert.Assertf(wbits.IsValid(), "invalid WindowBits %d", uint(wbits))
	return func(o *options) { o.wbits = wbits }
}

// WithBlockBits specifies the maximum metablock input size (Compressor,
// Writer).  Ignored by Decompressor and Reader.
func WithBlockBits(lgblock BlockBits) Option {
	assert.Assertf(lgblock.IsValid(), "invalid BlockBits %d", uint(lgblock))
	return func(o *options) { o.lgblock = lgblock }
}

// WithMode specifies the Mode hint to use (Compressor, Writer).  Ignored by
// Decompressor and Reader.
func WithMode(mode Mode) Option {
	assert.Assertf(mode.IsValid(), "invalid Mode %d", uint(mode))
	return func(o *options) { o.mode = mode }
}

// WithDictionary specifies a custom dictionary that is treated as if it
// preceded the data (all).  The same dictionary must be used to compress and
// to decompress a stream.  May specify nil to abandon a previously specified
// dictionary.
func WithDictionary(dict []byte) Option {
	assert.Assert(dict == nil || len(dict) > 0, "invalid zero-length dictionary; specify nil to omit the dictionary entirely")
	if dict != nil {
		tmp := make([]byte, len(dict))
		copy(tmp, dict)
		dict = tmp
	}
	return func(o *options) { o.dict = dict }
}

// WithTracers specifies the list of Tracer instances which will receive Events
// as compression or decompression proceeds.  Completely replaces any previous
// list.
func WithTracers(tracers ...Tracer) Option {
	for _, tr := range tracers {
		assert.NotNil(&tr)
	}
	if len(tracers) == 0 {
		tracers = nil
	} else {
		tmp := make([]Tracer, len(tracers))
		copy(tmp, tracers)
		tracers = tmp
	}
	return func(o *options) { o.tracers = tracers }
}

// WithStrictPadding specifies whether the decoder rejects nonzero padding
// bits (Decompressor, Reader).  The default is true.
func WithStrictPadding(strict bool) Option {
	return func(o *options) { o.strictPadding = strict }
}

// WithMaxOutputSize caps the total number of bytes the decoder will produce
// (Decompressor, Reader).  Zero means no cap.
func WithMaxOutputSize(limit uint64) Option {
	return func(o *options) { o.maxOutputSize = limit }
}

// withDistanceParams forces NPOSTFIX and NDIRECT for every compressed
// metablock instead of letting the Compressor choose.
func withDistanceParams(npostfix, ndirect uint) Option {
	params := distanceParams{npostfix: npostfix, ndirect: ndirect}
	assert.Assertf(params.isValid(), "invalid distance parameters NPOSTFIX=%d NDIRECT=%d", npostfix, ndirect)
	return func(o *options) {
		o.distParams = params
		o.hasDistParams = true
	}
}
