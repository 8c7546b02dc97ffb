package brotli

const (
	// emptyMetadataBits is a non-last metadata metablock that skips zero
	// bytes: ISLAST=0, MNIBBLES=0b11, reserved=0, MSKIPBYTES=0.
	emptyMetadataBits   = 6
	emptyMetadataLength = 6
)

// writeMetaBlockHeader writes ISLAST, ISLASTEMPTY (always 0 here), the
// length, and ISUNCOMPRESSED.
func writeMetaBlockHeader(bw bitwriter, length int, isLast bool, isUncompressed bool) {
	if isLast {
		bw.outputBitsWrite(2, 1)
	} else {
		bw.outputBitsWrite(1, 0)
	}
	writeMetaBlockLength(bw, length)
	if !isLast {
		bw.outputBitsWrite(1, block(boolToUint(isUncompressed)))
	}
}

func writeUncompressedMetaBlock(bw bitwriter, data []byte) {
	writeMetaBlockHeader(bw, len(data), false, true)
	bw.outputBufferWrite(data)
}

func writeEmptyLastMetaBlock(bw bitwriter) {
	bw.outputBitsWrite(2, 3)
	bw.outputBitsFlush()
}

func writeEmptyMetadataMetaBlock(bw bitwriter) {
	bw.outputBitsWrite(emptyMetadataBits, emptyMetadataLength)
	bw.outputBitsFlush()
}

func writeBlockLength(bw bitwriter, pe *prefixEncoder, length uint32) {
	code, nbits, extra := splitBlockLength(length)
	pe.encode(bw, code)
	bw.outputBitsWrite(nbits, extra)
}

// planOptions selects the modeling effort for one metablock.
type planOptions struct {
	contextModeling bool
	splitLiterals   bool
	splitCommands   bool
	mode            Mode
}

// metaBlockSymbols is the symbol streams of one metablock, with the two
// preceding bytes of every literal.
type metaBlockSymbols struct {
	literals  []byte
	p1s       []byte
	p2s       []byte
	commands  []uint16
	distances []uint16
	dctx      []byte
}

func collectSymbols(data []byte, p1 byte, p2 byte, cmds []command, dp distanceParams) metaBlockSymbols {
	var syms metaBlockSymbols
	pos := 0
	for _, c := range cmds {
		syms.commands = append(syms.commands, uint16(c.symbol()))
		for k := uint32(0); k < c.insertLen; k++ {
			ch := data[pos]
			syms.literals = append(syms.literals, ch)
			syms.p1s = append(syms.p1s, p1)
			syms.p2s = append(syms.p2s, p2)
			p2, p1 = p1, ch
			pos++
		}
		if c.isInsertOnly() {
			continue
		}
		if c.hasDistanceSymbol() {
			code, _, _ := c.distanceSymbol(dp)
			syms.distances = append(syms.distances, uint16(code))
			syms.dctx = append(syms.dctx, byte(c.distanceContext()))
		}
		pos += int(c.outputLen)
		switch {
		case c.outputLen >= 2:
			p2, p1 = data[pos-2], data[pos-1]
		case c.outputLen == 1:
			p2, p1 = p1, data[pos-1]
		}
	}
	return syms
}

// type metaBlockPlan {{{

// metaBlockPlan is a compressed metablock with every encoding decision
// made.  It can be priced by writing it to a bitcounter and then written
// for real to a bitBuffer.
type metaBlockPlan struct {
	data     []byte
	p1       byte
	p2       byte
	commands []command
	dp       distanceParams

	splits      [numBlockCategories]blockSplit
	switchCodes [numBlockCategories][]int
	typeCodes   [numBlockCategories]prefixEncoder
	lengthCodes [numBlockCategories]prefixEncoder

	contextModes     []ContextMode
	literalMap       []byte
	numLiteralTrees  int
	distanceMap      []byte
	numDistanceTrees int

	literalCodes  []prefixEncoder
	commandCodes  []prefixEncoder
	distanceCodes []prefixEncoder
}

func newMetaBlockPlan(data []byte, p1 byte, p2 byte, cmds []command, dp distanceParams, opts planOptions) *metaBlockPlan {
	p := &metaBlockPlan{
		data:     data,
		p1:       p1,
		p2:       p2,
		commands: cmds,
		dp:       dp,
	}
	syms := collectSymbols(data, p1, p2, cmds, dp)

	p.planSplits(syms, opts)
	p.planLiterals(syms, opts)
	p.planCommands(syms)
	p.planDistances(syms, opts)
	for c := range p.splits {
		p.planBlockSwitches(BlockCategory(c))
	}
	return p
}

func (p *metaBlockPlan) planSplits(syms metaBlockSymbols, opts planOptions) {
	p.splits[LiteralCategory] = singleBlockSplit(len(syms.literals))
	if opts.splitLiterals {
		literals := make([]uint16, len(syms.literals))
		for i, ch := range syms.literals {
			literals[i] = uint16(ch)
		}
		p.splits[LiteralCategory] = splitSymbols(literals, numLiteralSymbols, literalSplitChunkSize, maxSplitTypes)
	}

	p.splits[CommandCategory] = singleBlockSplit(len(syms.commands))
	p.splits[DistanceCategory] = singleBlockSplit(len(syms.distances))
	if opts.splitCommands {
		p.splits[CommandCategory] = splitSymbols(syms.commands, numCommandSymbols, commandSplitChunkSize, maxSplitTypes)
		p.splits[DistanceCategory] = splitSymbols(syms.distances, p.dp.alphabetSize(), commandSplitChunkSize, maxSplitTypes)
	}
}

func (p *metaBlockPlan) planLiterals(syms metaBlockSymbols, opts planOptions) {
	split := p.splits[LiteralCategory]
	types := split.symbolTypes()

	p.contextModes = make([]ContextMode, split.numTypes)
	if opts.contextModeling {
		for t := range p.contextModes {
			var literals, p1s, p2s []byte
			for i, ch := range syms.literals {
				if int(types[i]) == t {
					literals = append(literals, ch)
					p1s = append(p1s, syms.p1s[i])
					p2s = append(p2s, syms.p2s[i])
				}
			}
			p.contextModes[t] = chooseContextMode(literals, p1s, p2s, opts.mode)
		}

		hists := contextHistograms(syms.literals, syms.p1s, syms.p2s, types, split.numTypes, p.contextModes)
		var clusters []histogram
		p.literalMap, clusters = clusterHistograms(hists, maxLiteralClusters)
		p.numLiteralTrees = len(clusters)
		p.literalCodes = make([]prefixEncoder, len(clusters))
		for i := range clusters {
			p.literalCodes[i].initFromHistogram(clusters[i].counts)
		}
		return
	}

	hists := make([]histogram, split.numTypes)
	for t := range hists {
		hists[t] = newHistogram(numLiteralSymbols)
	}
	for i, ch := range syms.literals {
		hists[types[i]].add(int(ch))
	}
	p.numLiteralTrees = split.numTypes
	p.literalMap = make([]byte, split.numTypes<<literalContextBits)
	for i := range p.literalMap {
		p.literalMap[i] = byte(i >> literalContextBits)
	}
	p.literalCodes = make([]prefixEncoder, split.numTypes)
	for t := range hists {
		p.literalCodes[t].initFromHistogram(hists[t].counts)
	}
}

func (p *metaBlockPlan) planCommands(syms metaBlockSymbols) {
	split := p.splits[CommandCategory]
	types := split.symbolTypes()
	hists := make([]histogram, split.numTypes)
	for t := range hists {
		hists[t] = newHistogram(numCommandSymbols)
	}
	for i, sym := range syms.commands {
		hists[types[i]].add(int(sym))
	}
	p.commandCodes = make([]prefixEncoder, split.numTypes)
	for t := range hists {
		p.commandCodes[t].initFromHistogram(hists[t].counts)
	}
}

func (p *metaBlockPlan) planDistances(syms metaBlockSymbols, opts planOptions) {
	split := p.splits[DistanceCategory]
	types := split.symbolTypes()
	alphabetSize := p.dp.alphabetSize()

	hists := make([]histogram, split.numTypes<<distanceContextBits)
	for i := range hists {
		hists[i] = newHistogram(alphabetSize)
	}
	for i, code := range syms.distances {
		hists[int(types[i])<<distanceContextBits|int(syms.dctx[i])].add(int(code))
	}

	var clusters []histogram
	if opts.contextModeling {
		p.distanceMap, clusters = clusterHistograms(hists, maxDistanceClusters)
	} else {
		clusters = make([]histogram, split.numTypes)
		p.distanceMap = make([]byte, len(hists))
		for i := range hists {
			t := i >> distanceContextBits
			p.distanceMap[i] = byte(t)
			if clusters[t].counts == nil {
				clusters[t] = newHistogram(alphabetSize)
			}
			clusters[t].merge(hists[i])
		}
	}
	p.numDistanceTrees = len(clusters)
	p.distanceCodes = make([]prefixEncoder, len(clusters))
	for i := range clusters {
		p.distanceCodes[i].initFromHistogram(clusters[i].counts)
	}
}

func (p *metaBlockPlan) planBlockSwitches(c BlockCategory) {
	split := p.splits[c]
	if split.numTypes < 2 {
		return
	}
	codes := split.switchCodes()
	typeHist := newHistogram(split.numTypes + 2)
	for _, code := range codes {
		typeHist.add(code)
	}
	lengthHist := newHistogram(numBlockLengthSymbols)
	for _, length := range split.lengths {
		lengthHist.add(blockLengthCodeFor(length))
	}
	p.switchCodes[c] = codes
	p.typeCodes[c].initFromHistogram(typeHist.counts)
	p.lengthCodes[c].initFromHistogram(lengthHist.counts)
}

func (p *metaBlockPlan) write(bw bitwriter, isLast bool) {
	writeMetaBlockHeader(bw, len(p.data), isLast, false)
	p.writeBody(bw)
}

// writeBody writes everything that follows the metablock header.
func (p *metaBlockPlan) writeBody(bw bitwriter) {
	for c := range p.splits {
		split := p.splits[c]
		writeVarUint8(bw, split.numTypes-1)
		if split.numTypes >= 2 {
			p.typeCodes[c].write(bw, split.numTypes+2)
			p.lengthCodes[c].write(bw, numBlockLengthSymbols)
			writeBlockLength(bw, &p.lengthCodes[c], split.lengths[0])
		}
	}

	bw.outputBitsWrite(2, block(p.dp.npostfix))
	bw.outputBitsWrite(4, block(p.dp.ndirect>>p.dp.npostfix))
	for _, mode := range p.contextModes {
		bw.outputBitsWrite(2, block(mode))
	}

	writeVarUint8(bw, p.numLiteralTrees-1)
	if p.numLiteralTrees >= 2 {
		writeContextMap(bw, p.literalMap, p.numLiteralTrees)
	}
	writeVarUint8(bw, p.numDistanceTrees-1)
	if p.numDistanceTrees >= 2 {
		writeContextMap(bw, p.distanceMap, p.numDistanceTrees)
	}

	for i := range p.literalCodes {
		p.literalCodes[i].write(bw, numLiteralSymbols)
	}
	for i := range p.commandCodes {
		p.commandCodes[i].write(bw, numCommandSymbols)
	}
	for i := range p.distanceCodes {
		p.distanceCodes[i].write(bw, p.dp.alphabetSize())
	}

	p.writeCommands(bw)
}

func (p *metaBlockPlan) writeCommands(bw bitwriter) {
	var cursors [numBlockCategories]blockCursor
	for c := range cursors {
		cursors[c] = blockCursor{
			split:      &p.splits[c],
			codes:      p.switchCodes[c],
			typeCode:   &p.typeCodes[c],
			lengthCode: &p.lengthCodes[c],
			remaining:  p.splits[c].lengths[0],
		}
	}

	data := p.data
	p1, p2 := p.p1, p.p2
	pos := 0
	for _, c := range p.commands {
		t := cursors[CommandCategory].next(bw)
		p.commandCodes[t].encode(bw, c.symbol())
		c.writeLengthExtras(bw)

		for k := uint32(0); k < c.insertLen; k++ {
			t := cursors[LiteralCategory].next(bw)
			ctx := literalContext(p.contextModes[t], p1, p2)
			ch := data[pos]
			p.literalCodes[p.literalMap[t<<literalContextBits|ctx]].encode(bw, int(ch))
			p2, p1 = p1, ch
			pos++
		}
		if c.isInsertOnly() {
			continue
		}

		if c.hasDistanceSymbol() {
			t := cursors[DistanceCategory].next(bw)
			tree := p.distanceMap[t<<distanceContextBits|c.distanceContext()]
			code, nbits, extra := c.distanceSymbol(p.dp)
			p.distanceCodes[tree].encode(bw, code)
			bw.outputBitsWrite(nbits, block(extra))
		}

		pos += int(c.outputLen)
		switch {
		case c.outputLen >= 2:
			p2, p1 = data[pos-2], data[pos-1]
		case c.outputLen == 1:
			p2, p1 = p1, data[pos-1]
		}
	}
}

func (p *metaBlockPlan) treesEvent() *TreesEvent {
	ev := &TreesEvent{
		ContextModes:     p.contextModes,
		NumLiteralTrees:  uint16(p.numLiteralTrees),
		NumDistanceTrees: uint16(p.numDistanceTrees),
		NPostfix:         byte(p.dp.npostfix),
		NDirect:          byte(p.dp.ndirect),
	}
	for c := range p.splits {
		ev.NumBlockTypes[c] = uint16(p.splits[c].numTypes)
	}
	sizesOf := func(codes []prefixEncoder) []SizeList {
		out := make([]SizeList, len(codes))
		for i := range codes {
			out[i] = codes[i].sizes
		}
		return out
	}
	ev.LiteralSizes = sizesOf(p.literalCodes)
	ev.CommandSizes = sizesOf(p.commandCodes)
	ev.DistanceSizes = sizesOf(p.distanceCodes)
	return ev
}

// }}}

// type blockCursor {{{

// blockCursor walks the blocks of one category while symbols are written,
// emitting a block switch whenever the current block is used up.
type blockCursor struct {
	split      *blockSplit
	codes      []int
	typeCode   *prefixEncoder
	lengthCode *prefixEncoder
	index      int
	remaining  uint32
}

func (bc *blockCursor) next(bw bitwriter) int {
	if bc.split.numTypes < 2 {
		return 0
	}
	if bc.remaining == 0 {
		bc.index++
		bc.typeCode.encode(bw, bc.codes[bc.index-1])
		bc.remaining = bc.split.lengths[bc.index]
		writeBlockLength(bw, bc.lengthCode, bc.remaining)
	}
	bc.remaining--
	return int(bc.split.types[bc.index])
}

// }}}
