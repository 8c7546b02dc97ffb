package brotli

import (
	"github.com/andybalholm/brotli/matchfinder"
	"github.com/cespare/xxhash/v2"
	"github.com/chronos-tachyon/assert"
)

// Compressor encodes one Brotli stream incrementally.  Uncompressed bytes
// are pushed in with Process, which returns whatever compressed output is
// ready; Flush and Finish force output.
//
// A Compressor is not safe for concurrent use.
type Compressor struct {
	cfg   config
	state compressorState

	bb          bitBuffer
	mf          matchfinder.MatchFinder
	matches     []matchfinder.Match
	pending     []byte
	blockSize   int
	maxBackward uint
	pos         uint64
	p1          byte
	p2          byte
	dist        distanceCache
	xxh         *xxhash.Digest

	inputBytesTotal  uint64
	outputBytesTotal uint64
	numMetaBlocks    uint
}

// NewCompressor constructs and returns a new Compressor with the given
// options.
func NewCompressor(opts ...Option) *Compressor {
	c := &Compressor{}
	c.Reset(opts...)
	return c
}

// Reset discards all state and prepares to encode a new stream with the
// given options.
func (c *Compressor) Reset(opts ...Option) {
	for _, opt := range opts {
		assert.NotNil(&opt)
	}
	cfg := encoderConfig(opts)
	*c = Compressor{
		cfg:         cfg,
		state:       noStreamCompressorState,
		pending:     c.pending[:0],
		matches:     c.matches[:0],
		blockSize:   1 << cfg.lgblock,
		maxBackward: cfg.wbits.MaxDistance(),
		xxh:         xxhash.New(),
	}
	c.dist.reset()
	c.mf = newMatchFinder(cfg)
	if dict := cfg.dict; dict != nil {
		c.pos = uint64(len(dict))
		c.p1 = dict[len(dict)-1]
		if len(dict) >= 2 {
			c.p2 = dict[len(dict)-2]
		}
	}
}

// Process accepts more uncompressed data and returns the compressed bytes
// that are complete so far.  Data is buffered until a whole metablock is
// available, so the result is often empty.
func (c *Compressor) Process(data []byte) ([]byte, error) {
	if err := c.checkOpen("Process"); err != nil {
		return nil, err
	}
	c.start()

	c.pending = append(c.pending, data...)
	_, _ = c.xxh.Write(data)
	c.inputBytesTotal += uint64(len(data))

	consumed := 0
	for len(c.pending)-consumed >= c.blockSize {
		c.encodeMetaBlock(c.pending[consumed:consumed+c.blockSize], false)
		consumed += c.blockSize
	}
	n := copy(c.pending, c.pending[consumed:])
	c.pending = c.pending[:n]

	return c.take(), nil
}

// Flush compresses all buffered data and pads the stream to a byte
// boundary, so that everything passed to Process so far can be decoded
// from the bytes returned up to now.  The stream stays open.
func (c *Compressor) Flush() ([]byte, error) {
	if err := c.checkOpen("Flush"); err != nil {
		return nil, err
	}
	c.start()

	if len(c.pending) != 0 {
		c.encodeMetaBlock(c.pending, false)
		c.pending = c.pending[:0]
	}
	if !c.bb.isAligned() {
		c.numMetaBlocks++
		c.sendMetaBlockEvent(MetaBlockBeginEvent, MetadataMetaBlock, false, 0)
		writeEmptyMetadataMetaBlock(&c.bb)
		c.sendMetaBlockEvent(MetaBlockEndEvent, MetadataMetaBlock, false, 0)
	}
	return c.take(), nil
}

// Finish compresses all buffered data and ends the stream.  The Compressor
// accepts no more data until it is Reset.
func (c *Compressor) Finish() ([]byte, error) {
	if err := c.checkOpen("Finish"); err != nil {
		return nil, err
	}
	c.start()

	if len(c.pending) != 0 {
		c.encodeMetaBlock(c.pending, true)
		c.pending = c.pending[:0]
	} else {
		c.writeEmptyLast()
	}
	c.bb.outputBitsFlush()
	c.state = finishedCompressorState

	c.sendEvent(Event{
		Type: StreamEndEvent,
		Footer: &FooterEvent{
			XXH64: Checksum64(c.xxh.Sum64()),
		},
	})
	return c.take(), nil
}

// IsFinished returns true once Finish has been called.
func (c *Compressor) IsFinished() bool {
	return c.state == finishedCompressorState
}

// Compress encodes data as a complete Brotli stream.
func Compress(data []byte, opts ...Option) ([]byte, error) {
	c := NewCompressor(opts...)
	out, err := c.Process(data)
	if err != nil {
		return nil, err
	}
	tail, err := c.Finish()
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}

func (c *Compressor) checkOpen(method string) error {
	if c.state == finishedCompressorState {
		return formatErrorf(InvalidState, c.inputBytesTotal, "%s called after Finish", method)
	}
	return nil
}

func (c *Compressor) start() {
	if c.state != noStreamCompressorState {
		return
	}
	c.state = openStreamCompressorState
	c.sendEvent(Event{Type: StreamBeginEvent})

	writeWindowBits(&c.bb, c.cfg.wbits)
	c.sendEvent(Event{
		Type: StreamHeaderEvent,
		Header: &Header{
			WindowBits:    c.cfg.wbits,
			HasDictionary: c.cfg.dict != nil,
		},
	})
}

func (c *Compressor) take() []byte {
	out := c.bb.take()
	c.outputBytesTotal += uint64(len(out))
	return out
}

func (c *Compressor) writeEmptyLast() {
	c.numMetaBlocks++
	c.sendMetaBlockEvent(MetaBlockBeginEvent, EmptyMetaBlock, true, 0)
	writeEmptyLastMetaBlock(&c.bb)
	c.sendMetaBlockEvent(MetaBlockEndEvent, EmptyMetaBlock, true, 0)
}

// planOptions returns the modeling effort for the configured quality.
func (c *Compressor) planOptions() planOptions {
	q := c.cfg.quality
	return planOptions{
		contextModeling: q >= 5,
		splitLiterals:   q >= 10,
		splitCommands:   q >= 11,
		mode:            c.cfg.mode,
	}
}

func (c *Compressor) distanceParams(cmds []command) distanceParams {
	switch {
	case c.cfg.hasDistParams:
		return c.cfg.distParams
	case c.cfg.quality >= 10:
		return chooseDistanceParams(cmds)
	case c.cfg.mode == FontMode:
		return distanceParams{npostfix: 1, ndirect: 12}
	default:
		return distanceParams{}
	}
}

// planMetaBlock builds the compressed form of data.  At the qualities that
// split blocks, the unsplit plan is also built and the cheaper one wins.
func (c *Compressor) planMetaBlock(data []byte, cmds []command, isLast bool) (*metaBlockPlan, uint64) {
	dp := c.distanceParams(cmds)
	opts := c.planOptions()

	best := newMetaBlockPlan(data, c.p1, c.p2, cmds, dp, opts)
	bestCost := c.price(best, isLast)
	if opts.splitLiterals || opts.splitCommands {
		opts.splitLiterals = false
		opts.splitCommands = false
		alt := newMetaBlockPlan(data, c.p1, c.p2, cmds, dp, opts)
		if cost := c.price(alt, isLast); cost < bestCost {
			best, bestCost = alt, cost
		}
	}
	return best, bestCost
}

func (c *Compressor) price(p *metaBlockPlan, isLast bool) uint64 {
	bc := c.counter()
	p.write(&bc, isLast)
	if isLast {
		bc.outputBitsFlush()
	}
	return bc.length()
}

// counter returns a bitcounter aligned the same way as the output.
func (c *Compressor) counter() bitcounter {
	return bitcounter{numBits: uint64(c.bb.obLen & 7)}
}

// encodeMetaBlock emits data as one metablock, compressed or uncompressed
// according to which is smaller.
func (c *Compressor) encodeMetaBlock(data []byte, isLast bool) {
	assert.Assertf(len(data) > 0, "empty metablock")
	assert.Assertf(len(data) <= maxMetaBlockLength, "metablock length %d > maximum %d", len(data), maxMetaBlockLength)

	c.matches = normalizeMatches(c.mf.FindMatches(c.matches[:0], data), len(data))

	pooled := takeCommands()
	defer giveCommands(pooled)

	cb := commandBuilder{
		data:          data,
		pos:           c.pos,
		maxBackward:   c.maxBackward,
		useDictionary: c.cfg.quality >= 4,
		cache:         c.dist,
		commands:      *pooled,
	}
	cmds := cb.build(c.matches)
	*pooled = cmds
	plan, compressedCost := c.planMetaBlock(data, cmds, isLast)

	raw := c.counter()
	writeUncompressedMetaBlock(&raw, data)
	if isLast {
		writeEmptyLastMetaBlock(&raw)
	}

	c.numMetaBlocks++
	if compressedCost <= raw.length() {
		c.sendMetaBlockEvent(MetaBlockBeginEvent, CompressedMetaBlock, isLast, len(data))
		c.sendEvent(Event{
			Type:      MetaBlockTreesEvent,
			MetaBlock: &MetaBlockEvent{Type: CompressedMetaBlock, IsLast: isLast, Length: uint32(len(data))},
			Trees:     plan.treesEvent(),
		})
		plan.write(&c.bb, isLast)
		c.dist = cb.cache
		c.sendMetaBlockEvent(MetaBlockEndEvent, CompressedMetaBlock, isLast, len(data))
	} else {
		c.sendMetaBlockEvent(MetaBlockBeginEvent, UncompressedMetaBlock, false, len(data))
		writeUncompressedMetaBlock(&c.bb, data)
		c.sendMetaBlockEvent(MetaBlockEndEvent, UncompressedMetaBlock, false, len(data))
		if isLast {
			c.writeEmptyLast()
		}
	}

	c.pos += uint64(len(data))
	if len(data) >= 2 {
		c.p2 = data[len(data)-2]
	} else {
		c.p2 = c.p1
	}
	c.p1 = data[len(data)-1]
}

func (c *Compressor) sendMetaBlockEvent(t EventType, typ MetaBlockType, isLast bool, length int) {
	c.sendEvent(Event{
		Type: t,
		MetaBlock: &MetaBlockEvent{
			Type:   typ,
			IsLast: isLast,
			Length: uint32(length),
		},
	})
}

func (c *Compressor) sendEvent(event Event) {
	if len(c.cfg.tracers) == 0 {
		return
	}
	event.InputBytesTotal = c.inputBytesTotal
	event.OutputBytesTotal = c.outputBytesTotal + uint64(len(c.bb.out))
	event.NumMetaBlocks = c.numMetaBlocks
	for _, tr := range c.cfg.tracers {
		tr.OnEvent(event)
	}
}
