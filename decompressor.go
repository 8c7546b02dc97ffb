package brotli

import (
	"errors"

	"github.com/cespare/xxhash/v2"
	"github.com/chronos-tachyon/assert"
	buffer "github.com/chronos-tachyon/buffer/v3"

	"github.com/chronos-tachyon/brotli/internal/dictionary"
)

// Decompressor decodes one Brotli stream incrementally.  Compressed bytes
// are pushed in with Process, which returns whatever output they complete.
//
// A Decompressor is not safe for concurrent use.
type Decompressor struct {
	cfg   config
	state decoderState
	err   error

	input     []byte
	inputBase uint64
	br        bitReader
	out       []byte
	limit     int
	blocked   bool
	started   bool

	header      Header
	window      buffer.Window
	maxBackward uint
	pos         uint64
	p1          byte
	p2          byte
	dist        distanceCache
	xxh         *xxhash.Digest
	hashed      int

	outputBytesTotal uint64
	numMetaBlocks    uint

	mb metaBlock
}

type blockCategoryState struct {
	numTypes   int
	typeCode   prefixDecoder
	lengthCode prefixDecoder
	ring       blockTypeRing
	remaining  uint32
}

type metaBlock struct {
	typ       MetaBlockType
	isLast    bool
	length    int
	remaining int

	category     BlockCategory
	cats         [numBlockCategories]blockCategoryState
	dp           distanceParams
	contextModes []ContextMode
	literalMap   []byte
	distanceMap  []byte

	numLiteralTrees  int
	numDistanceTrees int
	treeIndex        int
	literalTrees     []prefixDecoder
	commandTrees     []prefixDecoder
	distanceTrees    []prefixDecoder

	insertRemaining int
	copyRemaining   int
	copyLen         int
	copyDistance    uint
	implicit        bool
	word            []byte
	wordPos         int
}

type stepResult byte

const (
	stepContinue stepResult = iota
	stepNeedInput
	stepBlocked
	stepDone
)

// NewDecompressor constructs and returns a new Decompressor with the given
// options.
func NewDecompressor(opts ...Option) *Decompressor {
	d := &Decompressor{}
	d.Reset(opts...)
	return d
}

// Reset discards all state and prepares to decode a new stream with the
// given options.
func (d *Decompressor) Reset(opts ...Option) {
	for _, opt := range opts {
		assert.NotNil(&opt)
	}
	*d = Decompressor{
		cfg:   decoderConfig(opts),
		state: streamHeaderDecoderState,
		input: d.input[:0],
	}
	d.dist.reset()
}

// IsFinished returns true once the last metablock has been decoded and all
// of its output has been returned.
func (d *Decompressor) IsFinished() bool {
	return d.state == doneDecoderState
}

// CanAcceptMoreData returns false if the previous call to Process stopped
// because it hit its output limit rather than because it ran out of input.
// In that case the caller must call Process again with no new data to
// collect the remaining output before supplying more input.
func (d *Decompressor) CanAcceptMoreData() bool {
	return d.err == nil && d.state != doneDecoderState && !d.blocked
}

// Process decodes as much of the stream as possible using the given
// compressed bytes and any bytes left over from previous calls.  At most
// outputLimit bytes are returned, unless outputLimit is 0.
//
// On error, Process returns the output it produced before the error was
// detected.  Errors are permanent.
func (d *Decompressor) Process(data []byte, outputLimit int) ([]byte, error) {
	assert.Assertf(outputLimit >= 0, "outputLimit %d < 0", outputLimit)

	if d.err != nil {
		return nil, d.err
	}
	if d.state == doneDecoderState {
		if len(data) != 0 {
			d.err = formatErrorf(TrailingData, d.inputBase+uint64(len(d.input)), "%d bytes of trailing data after the end of the stream", len(data))
		} else {
			d.err = formatErrorf(InvalidState, d.inputBase+uint64(len(d.input)), "Process called after the stream has finished")
		}
		return nil, d.err
	}
	if d.blocked && len(data) != 0 {
		return nil, formatErrorf(InvalidState, d.inputBase+uint64(len(d.input)), "Process called with new data while %d bytes of output are still pending; call Process with no data first", d.mb.remaining)
	}

	if !d.started {
		d.started = true
		d.sendEvent(Event{Type: StreamBeginEvent})
	}

	d.input = append(d.input, data...)
	d.br.data = d.input
	d.out = nil
	d.hashed = 0
	d.limit = outputLimit
	d.blocked = false

	err := d.run()
	d.compactInput()
	d.updateDigest()

	out := d.out
	d.out = nil
	if err != nil {
		d.err = err
		return out, err
	}
	return out, nil
}

// Decompress decodes a complete Brotli stream.
func Decompress(data []byte, opts ...Option) ([]byte, error) {
	d := NewDecompressor(opts...)
	out, err := d.Process(data, 0)
	if err != nil {
		return nil, err
	}
	if !d.IsFinished() {
		return nil, formatErrorf(TruncatedInput, uint64(len(data)), "stream ended before its last metablock")
	}
	return out, nil
}

func (d *Decompressor) compactInput() {
	consumed := d.br.bytePos()
	if consumed > len(d.input) {
		consumed = len(d.input)
	}
	n := copy(d.input, d.input[consumed:])
	d.input = d.input[:n]
	d.inputBase += uint64(consumed)
	d.br.data = d.input
	d.br.pos -= uint64(consumed) << 3
}

func (d *Decompressor) offset() uint64 {
	return d.inputBase + uint64(d.br.bytePos())
}

func (d *Decompressor) fail(err error) error {
	var fe FormatError
	if errors.As(err, &fe) && fe.Offset == 0 {
		fe.Offset = d.offset()
		return fe
	}
	return err
}

func (d *Decompressor) corruptf(kind ErrorKind, format string, v ...interface{}) error {
	return formatErrorf(kind, d.offset(), format, v...)
}

func (d *Decompressor) run() error {
	for {
		mark := d.br.pos
		result, err := d.step()

		if d.br.short {
			// A field ran past the end of the buffered input.  Anything
			// decoded from the zero bits beyond it is meaningless,
			// including errors.
			d.br.pos = mark
			d.br.short = false
			return nil
		}
		if err != nil {
			return d.fail(err)
		}

		switch result {
		case stepNeedInput:
			d.br.pos = mark
			return nil
		case stepBlocked:
			d.br.pos = mark
			d.blocked = true
			return nil
		case stepDone:
			return nil
		}
	}
}

func (d *Decompressor) step() (stepResult, error) {
	switch d.state {
	case streamHeaderDecoderState:
		return d.stepStreamHeader()
	case metaBlockHeaderDecoderState:
		return d.stepMetaBlockHeader()
	case uncompressedDecoderState:
		return d.stepUncompressed()
	case metadataDecoderState:
		return d.stepMetadata()
	case blockTypesDecoderState:
		return d.stepBlockTypes()
	case distanceParamsDecoderState:
		return d.stepDistanceParams()
	case literalContextMapDecoderState:
		return d.stepLiteralContextMap()
	case distanceContextMapDecoderState:
		return d.stepDistanceContextMap()
	case treesDecoderState:
		return d.stepTrees()
	case commandDecoderState:
		return d.stepCommand()
	case insertDecoderState:
		return d.stepInsert()
	case distanceDecoderState:
		return d.stepDistance()
	case copyDecoderState:
		return d.stepCopy()
	case wordDecoderState:
		return d.stepWord()
	case metaBlockEndDecoderState:
		return d.stepMetaBlockEnd()
	case doneDecoderState:
		return stepDone, nil
	default:
		assert.Raisef("decoderState %#v not implemented", d.state)
		return stepDone, nil
	}
}

func (d *Decompressor) stepStreamHeader() (stepResult, error) {
	wbits := readWindowBits(&d.br)
	if d.br.short {
		return stepNeedInput, nil
	}
	if wbits == 0 {
		return stepDone, d.corruptf(InvalidParameter, "reserved WBITS value (large window streams are not supported)")
	}

	d.header = Header{
		WindowBits:    wbits,
		HasDictionary: d.cfg.dict != nil,
	}
	d.maxBackward = wbits.MaxDistance()
	d.xxh = xxhash.New()
	if d.cfg.dict != nil {
		d.pos = uint64(len(d.cfg.dict))
		d.p1 = d.cfg.dict[len(d.cfg.dict)-1]
		if len(d.cfg.dict) >= 2 {
			d.p2 = d.cfg.dict[len(d.cfg.dict)-2]
		}
	}

	h := new(Header)
	*h = d.header
	d.sendEvent(Event{
		Type:   StreamHeaderEvent,
		Header: h,
	})

	d.state = metaBlockHeaderDecoderState
	return stepContinue, nil
}

func (d *Decompressor) stepMetaBlockHeader() (stepResult, error) {
	br := &d.br

	isLast := br.readBool()
	if isLast && br.readBool() {
		if br.short {
			return stepNeedInput, nil
		}
		d.beginMetaBlock(EmptyMetaBlock, true, 0)
		d.state = metaBlockEndDecoderState
		return stepContinue, nil
	}

	nibbles := int(br.read(2)) + 4
	if nibbles == 7 {
		if br.readBool() {
			return stepDone, d.corruptf(InvalidParameter, "reserved bit in metadata metablock header is set")
		}
		skipBytes := int(br.read(2))
		length := 0
		for i := 0; i < skipBytes; i++ {
			b := int(br.read(8))
			if i+1 == skipBytes && skipBytes > 1 && b == 0 {
				return stepDone, d.corruptf(InvalidParameter, "metadata length has a superfluous zero byte")
			}
			length |= b << (8 * uint(i))
		}
		if skipBytes > 0 {
			length++
		}
		pad := br.alignToByte()
		if br.short {
			return stepNeedInput, nil
		}
		if d.cfg.strictPadding && pad != 0 {
			return stepDone, d.corruptf(InvalidParameter, "nonzero padding bits %#x before metadata", pad)
		}
		d.beginMetaBlock(MetadataMetaBlock, isLast, length)
		d.state = metadataDecoderState
		return stepContinue, nil
	}

	length := 0
	for i := 0; i < nibbles; i++ {
		nibble := int(br.read(4))
		if i+1 == nibbles && nibbles > 4 && nibble == 0 {
			return stepDone, d.corruptf(InvalidParameter, "metablock length has a superfluous zero nibble")
		}
		length |= nibble << (4 * uint(i))
	}
	length++

	isUncompressed := false
	if !isLast {
		isUncompressed = br.readBool()
	}
	if isUncompressed {
		pad := br.alignToByte()
		if br.short {
			return stepNeedInput, nil
		}
		if d.cfg.strictPadding && pad != 0 {
			return stepDone, d.corruptf(InvalidParameter, "nonzero padding bits %#x before uncompressed data", pad)
		}
		d.initWindow(false, length)
		d.beginMetaBlock(UncompressedMetaBlock, false, length)
		d.state = uncompressedDecoderState
		return stepContinue, nil
	}
	if br.short {
		return stepNeedInput, nil
	}

	d.initWindow(isLast, length)
	d.beginMetaBlock(CompressedMetaBlock, isLast, length)
	d.mb.category = LiteralCategory
	d.state = blockTypesDecoderState
	return stepContinue, nil
}

// initWindow allocates the window when the first metablock with output
// begins.  If that metablock is also the last one, the window only needs
// to hold the dictionary and the metablock.
func (d *Decompressor) initWindow(isLast bool, length int) {
	if d.window.Size() != 0 {
		return
	}
	numBits := uint(d.header.WindowBits)
	if isLast {
		need := uint64(len(d.cfg.dict)) + uint64(length)
		for numBits > 0 && uint64(1)<<(numBits-1) >= need {
			numBits--
		}
	}
	d.window.Init(numBits)
	if d.cfg.dict != nil {
		_, _ = d.window.Write(d.cfg.dict)
	}
}

func (d *Decompressor) beginMetaBlock(typ MetaBlockType, isLast bool, length int) {
	d.numMetaBlocks++
	d.mb = metaBlock{
		typ:       typ,
		isLast:    isLast,
		length:    length,
		remaining: length,
	}
	d.sendEvent(Event{
		Type:      MetaBlockBeginEvent,
		MetaBlock: d.metaBlockEvent(),
	})
}

func (d *Decompressor) metaBlockEvent() *MetaBlockEvent {
	return &MetaBlockEvent{
		Type:   d.mb.typ,
		IsLast: d.mb.isLast,
		Length: uint32(d.mb.length),
	}
}

func (d *Decompressor) stepUncompressed() (stepResult, error) {
	if d.mb.remaining == 0 {
		d.state = metaBlockEndDecoderState
		return stepContinue, nil
	}

	n := d.mb.remaining
	if d.limit > 0 {
		room := d.limit - len(d.out)
		if room == 0 {
			return stepBlocked, nil
		}
		n = minInt(n, room)
	}
	p := d.br.readBytes(n)
	if len(p) == 0 {
		return stepNeedInput, nil
	}
	if err := d.emit(p); err != nil {
		return stepDone, err
	}
	d.mb.remaining -= len(p)
	return stepContinue, nil
}

func (d *Decompressor) stepMetadata() (stepResult, error) {
	if d.mb.remaining == 0 {
		d.state = metaBlockEndDecoderState
		return stepContinue, nil
	}

	p := d.br.readBytes(d.mb.remaining)
	if len(p) == 0 {
		return stepNeedInput, nil
	}
	d.mb.remaining -= len(p)
	return stepContinue, nil
}

func (d *Decompressor) readBlockLength(pd *prefixDecoder) (uint32, error) {
	code, ok := pd.decode(&d.br)
	if !ok {
		return 0, d.corruptf(InvalidPrefixCode, "no block length codeword matches the input")
	}
	bc := blockLengthCodes[code]
	return bc.base + d.br.read(bc.extra), nil
}

func (d *Decompressor) stepBlockTypes() (stepResult, error) {
	br := &d.br
	cat := &d.mb.cats[d.mb.category]
	cat.numTypes = readVarUint8(br) + 1
	cat.ring.reset()
	if cat.numTypes >= 2 {
		if err := readPrefixCode(br, cat.numTypes+2, &cat.typeCode); err != nil || br.short {
			return stepNeedInput, err
		}
		if err := readPrefixCode(br, numBlockLengthSymbols, &cat.lengthCode); err != nil || br.short {
			return stepNeedInput, err
		}
		length, err := d.readBlockLength(&cat.lengthCode)
		if err != nil {
			return stepDone, err
		}
		cat.remaining = length
	} else {
		cat.remaining = singleBlockLength
	}
	if br.short {
		return stepNeedInput, nil
	}

	if d.mb.category < DistanceCategory {
		d.mb.category++
	} else {
		d.state = distanceParamsDecoderState
	}
	return stepContinue, nil
}

func (d *Decompressor) stepDistanceParams() (stepResult, error) {
	br := &d.br
	np := uint(br.read(2))
	nd := uint(br.read(4)) << np
	modes := make([]ContextMode, d.mb.cats[LiteralCategory].numTypes)
	for i := range modes {
		modes[i] = ContextMode(br.read(2))
	}
	if br.short {
		return stepNeedInput, nil
	}

	d.mb.dp = distanceParams{npostfix: np, ndirect: nd}
	d.mb.contextModes = modes
	d.state = literalContextMapDecoderState
	return stepContinue, nil
}

func (d *Decompressor) readTreeCountAndMap(size int) (int, []byte, error) {
	numTrees := readVarUint8(&d.br) + 1
	if numTrees < 2 {
		return numTrees, make([]byte, size), nil
	}
	cmap, err := readContextMap(&d.br, size, numTrees)
	return numTrees, cmap, err
}

func (d *Decompressor) stepLiteralContextMap() (stepResult, error) {
	size := d.mb.cats[LiteralCategory].numTypes << literalContextBits
	numTrees, cmap, err := d.readTreeCountAndMap(size)
	if err != nil || d.br.short {
		return stepNeedInput, err
	}
	d.mb.numLiteralTrees = numTrees
	d.mb.literalMap = cmap
	d.state = distanceContextMapDecoderState
	return stepContinue, nil
}

func (d *Decompressor) stepDistanceContextMap() (stepResult, error) {
	size := d.mb.cats[DistanceCategory].numTypes << distanceContextBits
	numTrees, cmap, err := d.readTreeCountAndMap(size)
	if err != nil || d.br.short {
		return stepNeedInput, err
	}
	d.mb.numDistanceTrees = numTrees
	d.mb.distanceMap = cmap

	d.mb.literalTrees = make([]prefixDecoder, d.mb.numLiteralTrees)
	d.mb.commandTrees = make([]prefixDecoder, d.mb.cats[CommandCategory].numTypes)
	d.mb.distanceTrees = make([]prefixDecoder, d.mb.numDistanceTrees)
	d.mb.treeIndex = 0
	d.state = treesDecoderState
	return stepContinue, nil
}

// stepTrees reads one prefix code.  The literal codes come first, then the
// insert-and-copy codes, then the distance codes.
func (d *Decompressor) stepTrees() (stepResult, error) {
	mb := &d.mb
	index := mb.treeIndex
	var pd *prefixDecoder
	var alphabetSize int
	switch {
	case index < len(mb.literalTrees):
		pd = &mb.literalTrees[index]
		alphabetSize = numLiteralSymbols
	case index < len(mb.literalTrees)+len(mb.commandTrees):
		pd = &mb.commandTrees[index-len(mb.literalTrees)]
		alphabetSize = numCommandSymbols
	case index < len(mb.literalTrees)+len(mb.commandTrees)+len(mb.distanceTrees):
		pd = &mb.distanceTrees[index-len(mb.literalTrees)-len(mb.commandTrees)]
		alphabetSize = mb.dp.alphabetSize()
	default:
		d.sendEvent(Event{
			Type:      MetaBlockTreesEvent,
			MetaBlock: d.metaBlockEvent(),
			Trees:     d.treesEvent(),
		})
		d.state = commandDecoderState
		return stepContinue, nil
	}

	if err := readPrefixCode(&d.br, alphabetSize, pd); err != nil || d.br.short {
		return stepNeedInput, err
	}
	mb.treeIndex++
	return stepContinue, nil
}

func (d *Decompressor) treesEvent() *TreesEvent {
	mb := &d.mb
	ev := &TreesEvent{
		ContextModes:     mb.contextModes,
		NumLiteralTrees:  uint16(mb.numLiteralTrees),
		NumDistanceTrees: uint16(mb.numDistanceTrees),
		NPostfix:         byte(mb.dp.npostfix),
		NDirect:          byte(mb.dp.ndirect),
	}
	for i := range mb.cats {
		ev.NumBlockTypes[i] = uint16(mb.cats[i].numTypes)
	}
	sizesOf := func(trees []prefixDecoder) []SizeList {
		out := make([]SizeList, len(trees))
		for i := range trees {
			out[i] = trees[i].sizes
		}
		return out
	}
	ev.LiteralSizes = sizesOf(mb.literalTrees)
	ev.CommandSizes = sizesOf(mb.commandTrees)
	ev.DistanceSizes = sizesOf(mb.distanceTrees)
	return ev
}

// nextBlockType returns the block type of category c for the next symbol,
// reading a block switch if the current block is used up.  The switch is
// returned rather than applied so the caller can discard it if the input
// runs out.
func (d *Decompressor) nextBlockType(c BlockCategory) (blockTypeRing, uint32, error) {
	cat := &d.mb.cats[c]
	ring := cat.ring
	remaining := cat.remaining
	if remaining == 0 {
		code, ok := cat.typeCode.decode(&d.br)
		if !ok {
			return ring, 0, d.corruptf(InvalidPrefixCode, "no %v block type codeword matches the input", c)
		}
		ring.next(code, cat.numTypes)
		length, err := d.readBlockLength(&cat.lengthCode)
		if err != nil {
			return ring, 0, err
		}
		remaining = length
	}
	return ring, remaining, nil
}

func (d *Decompressor) commitBlockType(c BlockCategory, ring blockTypeRing, remaining uint32) {
	cat := &d.mb.cats[c]
	cat.ring = ring
	cat.remaining = remaining - 1
}

func (d *Decompressor) stepCommand() (stepResult, error) {
	mb := &d.mb
	if mb.remaining == 0 {
		d.state = metaBlockEndDecoderState
		return stepContinue, nil
	}

	br := &d.br
	ring, remaining, err := d.nextBlockType(CommandCategory)
	if err != nil {
		return stepDone, err
	}
	sym, ok := mb.commandTrees[ring.current].decode(br)
	if !ok {
		return stepDone, d.corruptf(InvalidPrefixCode, "no insert-and-copy codeword matches the input")
	}
	insCode, copyCode, implicit := decodeCommandSymbol(sym)
	ic := insertLengthCodes[insCode]
	cc := copyLengthCodes[copyCode]
	insLen := int(ic.base + br.read(ic.extra))
	copyLen := int(cc.base + br.read(cc.extra))
	if br.short {
		return stepNeedInput, nil
	}
	if insLen > mb.remaining {
		return stepDone, d.corruptf(InvalidParameter, "insert length %d exceeds the %d bytes left in the metablock", insLen, mb.remaining)
	}

	d.commitBlockType(CommandCategory, ring, remaining)
	mb.insertRemaining = insLen
	mb.copyLen = copyLen
	mb.implicit = implicit
	d.state = insertDecoderState
	return stepContinue, nil
}

func (d *Decompressor) stepInsert() (stepResult, error) {
	mb := &d.mb
	if mb.insertRemaining == 0 {
		if mb.remaining == 0 {
			d.state = metaBlockEndDecoderState
		} else {
			d.state = distanceDecoderState
		}
		return stepContinue, nil
	}
	if d.outputFull() {
		return stepBlocked, nil
	}

	ring, remaining, err := d.nextBlockType(LiteralCategory)
	if err != nil {
		return stepDone, err
	}
	t := ring.current
	ctx := literalContext(mb.contextModes[t], d.p1, d.p2)
	tree := &mb.literalTrees[mb.literalMap[t<<literalContextBits|ctx]]
	sym, ok := tree.decode(&d.br)
	if d.br.short {
		return stepNeedInput, nil
	}
	if !ok {
		return stepDone, d.corruptf(InvalidPrefixCode, "no literal codeword matches the input")
	}

	d.commitBlockType(LiteralCategory, ring, remaining)
	if err := d.emitByte(byte(sym)); err != nil {
		return stepDone, err
	}
	mb.insertRemaining--
	mb.remaining--
	return stepContinue, nil
}

func (d *Decompressor) stepDistance() (stepResult, error) {
	mb := &d.mb
	br := &d.br

	var distance int
	explicit := false
	var ring blockTypeRing
	var remaining uint32
	if mb.implicit {
		distance = d.dist.last()
	} else {
		var err error
		ring, remaining, err = d.nextBlockType(DistanceCategory)
		if err != nil {
			return stepDone, err
		}
		ctx := distanceContext(uint32(mb.copyLen))
		tree := &mb.distanceTrees[mb.distanceMap[ring.current<<distanceContextBits|ctx]]
		code, ok := tree.decode(br)
		if !ok {
			return stepDone, d.corruptf(InvalidPrefixCode, "no distance codeword matches the input")
		}
		if code < numDistanceShortCodes {
			distance = d.dist.lookup(code)
		} else {
			extra := br.read(mb.dp.extraBits(code))
			distance = int(mb.dp.decode(code, extra))
		}
		if br.short {
			return stepNeedInput, nil
		}
		if distance <= 0 {
			return stepDone, d.corruptf(InvalidParameter, "distance short code %d resolves to %d", code, distance)
		}
		explicit = code != 0
		d.commitBlockType(DistanceCategory, ring, remaining)
	}

	maxDistance := d.maxBackward
	if d.pos < uint64(maxDistance) {
		maxDistance = uint(d.pos)
	}

	if uint(distance) > maxDistance {
		word, err := d.dictionaryWord(uint(distance)-maxDistance-1, mb.copyLen)
		if err != nil {
			return stepDone, err
		}
		mb.word = word
		mb.wordPos = 0
		d.state = wordDecoderState
		return stepContinue, nil
	}

	if mb.copyLen > mb.remaining {
		return stepDone, d.corruptf(InvalidParameter, "copy length %d exceeds the %d bytes left in the metablock", mb.copyLen, mb.remaining)
	}
	if explicit {
		d.dist.push(distance)
	}
	mb.copyDistance = uint(distance)
	mb.copyRemaining = mb.copyLen
	d.state = copyDecoderState
	return stepContinue, nil
}

func (d *Decompressor) dictionaryWord(address uint, length int) ([]byte, error) {
	if length < dictionary.MinWordLength || length > dictionary.MaxWordLength {
		return nil, d.corruptf(InvalidParameter, "static dictionary reference with invalid length %d", length)
	}
	sizeBits := dictionary.SizeBits(length)
	wordIndex := int(address & ((1 << sizeBits) - 1))
	transformIndex := address >> sizeBits
	if transformIndex >= dictionary.NumTransforms {
		return nil, d.corruptf(InvalidParameter, "static dictionary reference with invalid transform %d", transformIndex)
	}
	word := dictionary.Transform(d.mb.word[:0], dictionary.Word(length, wordIndex), int(transformIndex))
	if len(word) > d.mb.remaining {
		return nil, d.corruptf(InvalidParameter, "dictionary word of %d bytes exceeds the %d bytes left in the metablock", len(word), d.mb.remaining)
	}
	return word, nil
}

func (d *Decompressor) stepCopy() (stepResult, error) {
	mb := &d.mb
	for mb.copyRemaining > 0 {
		if d.outputFull() {
			return stepBlocked, nil
		}
		ch, err := d.window.LookupByte(mb.copyDistance)
		if err != nil {
			return stepDone, d.corruptf(InvalidParameter, "distance %d > window size %d", mb.copyDistance, d.window.Size())
		}
		if err := d.emitByte(ch); err != nil {
			return stepDone, err
		}
		mb.copyRemaining--
		mb.remaining--
	}
	d.state = commandDecoderState
	return stepContinue, nil
}

func (d *Decompressor) stepWord() (stepResult, error) {
	mb := &d.mb
	for mb.wordPos < len(mb.word) {
		if d.outputFull() {
			return stepBlocked, nil
		}
		if err := d.emitByte(mb.word[mb.wordPos]); err != nil {
			return stepDone, err
		}
		mb.wordPos++
		mb.remaining--
	}
	d.state = commandDecoderState
	return stepContinue, nil
}

func (d *Decompressor) stepMetaBlockEnd() (stepResult, error) {
	d.sendEvent(Event{
		Type:      MetaBlockEndEvent,
		MetaBlock: d.metaBlockEvent(),
	})

	if !d.mb.isLast {
		d.state = metaBlockHeaderDecoderState
		return stepContinue, nil
	}

	pad := d.br.alignToByte()
	if d.cfg.strictPadding && pad != 0 {
		return stepDone, d.corruptf(InvalidParameter, "nonzero padding bits %#x after the last metablock", pad)
	}
	if extra := len(d.input) - d.br.bytePos(); extra > 0 {
		return stepDone, d.corruptf(TrailingData, "%d bytes of trailing data after the end of the stream", extra)
	}

	d.state = doneDecoderState
	d.updateDigest()
	d.sendEvent(Event{
		Type: StreamEndEvent,
		Footer: &FooterEvent{
			XXH64: Checksum64(d.xxh.Sum64()),
		},
	})
	return stepDone, nil
}

func (d *Decompressor) outputFull() bool {
	return d.limit > 0 && len(d.out) >= d.limit
}

func (d *Decompressor) checkOutputSize(n int) error {
	if d.cfg.maxOutputSize != 0 && d.outputBytesTotal+uint64(n) > d.cfg.maxOutputSize {
		return d.corruptf(OutputLimitExceeded, "output would exceed the limit of %d bytes", d.cfg.maxOutputSize)
	}
	return nil
}

func (d *Decompressor) emitByte(ch byte) error {
	if err := d.checkOutputSize(1); err != nil {
		return err
	}
	_ = d.window.WriteByte(ch)
	d.out = append(d.out, ch)
	d.p2 = d.p1
	d.p1 = ch
	d.pos++
	d.outputBytesTotal++
	return nil
}

func (d *Decompressor) emit(p []byte) error {
	if err := d.checkOutputSize(len(p)); err != nil {
		return err
	}
	_, _ = d.window.Write(p)
	d.out = append(d.out, p...)
	if len(p) >= 2 {
		d.p2 = p[len(p)-2]
	} else {
		d.p2 = d.p1
	}
	d.p1 = p[len(p)-1]
	d.pos += uint64(len(p))
	d.outputBytesTotal += uint64(len(p))
	return nil
}

// updateDigest hashes the output produced since the last call.
func (d *Decompressor) updateDigest() {
	if d.hashed < len(d.out) {
		_, _ = d.xxh.Write(d.out[d.hashed:])
		d.hashed = len(d.out)
	}
}

func (d *Decompressor) sendEvent(event Event) {
	if len(d.cfg.tracers) == 0 {
		return
	}
	event.InputBytesTotal = d.offset()
	event.OutputBytesTotal = d.outputBytesTotal
	event.NumMetaBlocks = d.numMetaBlocks
	for _, tr := range d.cfg.tracers {
		tr.OnEvent(event)
	}
}
