package brotli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chronos-tachyon/assert"
	"github.com/chronos-tachyon/huffman"
)

const (
	maxCodeLength             = 15
	maxCodeLengthCodeLength   = 5
	numCodeLengthCodes        = 18
	repeatPreviousCodeLength  = 16
	repeatZeroCodeLength      = 17
	initialRepeatedCodeLength = 8
	kraftSpace                = 1 << maxCodeLength
	codeLengthKraftSpace      = 1 << maxCodeLengthCodeLength
)

// codeLengthCodeOrder is the order in which the lengths of the code length
// code are transmitted.
var codeLengthCodeOrder = [numCodeLengthCodes]byte{1, 2, 3, 4, 0, 5, 17, 6, 16, 7, 8, 9, 10, 11, 12, 13, 14, 15}

// fixedCodeLengthCodes is the fixed variable-length code used to transmit
// each length of the code length code, indexed by length.
var fixedCodeLengthCodes = [maxCodeLengthCodeLength + 1]huffman.Code{
	{Size: 2, Bits: 0},
	{Size: 4, Bits: 7},
	{Size: 3, Bits: 3},
	{Size: 2, Bits: 2},
	{Size: 2, Bits: 1},
	{Size: 4, Bits: 15},
}

type fixedCodeLengthEntry struct {
	size  byte
	value byte
}

// fixedCodeLengthTable maps 4 peeked bits to the entry of
// fixedCodeLengthCodes they begin with.
var fixedCodeLengthTable [16]fixedCodeLengthEntry

func init() {
	for p := uint32(0); p < 16; p++ {
		found := false
		for value, hc := range fixedCodeLengthCodes {
			if p&mask32(uint(hc.Size)) == uint32(hc.Bits) {
				fixedCodeLengthTable[p] = fixedCodeLengthEntry{size: hc.Size, value: byte(value)}
				found = true
				break
			}
		}
		assert.Assertf(found, "bit pattern %#x matches no fixed code length code", p)
	}
}

// SizeList represents a list of symbol sizes in a Canonical Huffman Code.
// A code with only one symbol is listed with size 1 for that symbol, even
// though the symbol takes no bits in the stream.
type SizeList []byte

func singleSizeList(alphabetSize int, symbol int) SizeList {
	sizes := make(SizeList, alphabetSize)
	sizes[symbol] = 1
	return sizes
}

// MarshalJSON returns the JSON representation of this SizeList, as a JSON
// Array of JSON Numbers.
func (sizelist SizeList) MarshalJSON() ([]byte, error) {
	var arr []uint
	if sizelist != nil {
		arr = make([]uint, len(sizelist))
		for index, size := range sizelist {
			arr[index] = uint(size)
		}
	}
	return json.Marshal(arr)
}

// type prefixDecoder {{{

// prefixDecoder decodes the symbols of one prefix code.  A code with only
// one symbol takes zero bits per symbol and bypasses huffman.Decoder.
type prefixDecoder struct {
	hd     huffman.Decoder
	sizes  SizeList
	single int
}

func (pd *prefixDecoder) initSingle(alphabetSize int, symbol int) {
	pd.sizes = singleSizeList(alphabetSize, symbol)
	pd.single = symbol
}

func (pd *prefixDecoder) initSizes(sizes []byte) error {
	pd.sizes = sizes
	pd.single = -1
	if err := pd.hd.Init(sizes); err != nil {
		return formatErrorf(InvalidPrefixCode, 0, "failed to initialize prefix code: %v", err)
	}
	return nil
}

// decode reads one symbol.  It returns false if no codeword matches, which
// also happens when the input runs out; check br.short to tell them apart.
func (pd *prefixDecoder) decode(br *bitReader) (int, bool) {
	if pd.single >= 0 {
		return pd.single, true
	}

	hdec := &pd.hd
	min := hdec.MinSize()
	max := hdec.MaxSize()
	numBits := min
	for numBits <= max {
		out := br.peek(numBits)
		hc := huffman.MakeCode(numBits, out)

		symbol, newMin, newMax := hdec.Decode(hc)
		if symbol >= 0 {
			br.skip(numBits)
			return int(symbol), true
		}
		if br.wouldOverrun(numBits) {
			br.short = true
			return 0, false
		}
		if newMax == 0 {
			return 0, false
		}
		numBits = newMin
	}
	return 0, false
}

// }}}

// readPrefixCode reads the description of a prefix code over an alphabet
// of alphabetSize symbols and initializes pd from it.
func readPrefixCode(br *bitReader, alphabetSize int, pd *prefixDecoder) error {
	hskip := br.read(2)
	if hskip == 1 {
		return readSimplePrefixCode(br, alphabetSize, pd)
	}
	return readComplexPrefixCode(br, hskip, alphabetSize, pd)
}

func readSimplePrefixCode(br *bitReader, alphabetSize int, pd *prefixDecoder) error {
	numSymbols := int(br.read(2)) + 1
	width := byte(log2Floor(uint32(alphabetSize-1)) + 1)

	var symbols [4]int
	for i := 0; i < numSymbols; i++ {
		symbols[i] = int(br.read(width))
		if br.short {
			return nil
		}
		if symbols[i] >= alphabetSize {
			return formatErrorf(InvalidPrefixCode, 0, "simple prefix code symbol %d >= alphabet size %d", symbols[i], alphabetSize)
		}
	}
	for i := 0; i < numSymbols; i++ {
		for j := i + 1; j < numSymbols; j++ {
			if symbols[i] == symbols[j] {
				return formatErrorf(InvalidPrefixCode, 0, "simple prefix code lists symbol %d twice", symbols[i])
			}
		}
	}

	if numSymbols == 1 {
		pd.initSingle(alphabetSize, symbols[0])
		return nil
	}

	sizes := make([]byte, alphabetSize)
	switch numSymbols {
	case 2:
		sizes[symbols[0]] = 1
		sizes[symbols[1]] = 1
	case 3:
		sizes[symbols[0]] = 1
		sizes[symbols[1]] = 2
		sizes[symbols[2]] = 2
	case 4:
		if br.readBool() {
			sizes[symbols[0]] = 1
			sizes[symbols[1]] = 2
			sizes[symbols[2]] = 3
			sizes[symbols[3]] = 3
		} else {
			sizes[symbols[0]] = 2
			sizes[symbols[1]] = 2
			sizes[symbols[2]] = 2
			sizes[symbols[3]] = 2
		}
	}
	return pd.initSizes(sizes)
}

func readComplexPrefixCode(br *bitReader, hskip uint32, alphabetSize int, pd *prefixDecoder) error {
	var clSizes [numCodeLengthCodes]byte
	space := codeLengthKraftSpace
	numCodes := 0
	lastCode := 0
	for i := int(hskip); i < numCodeLengthCodes && space > 0; i++ {
		code := int(codeLengthCodeOrder[i])
		entry := fixedCodeLengthTable[br.peek(4)]
		br.skip(entry.size)
		clSizes[code] = entry.value
		if entry.value != 0 {
			space -= codeLengthKraftSpace >> entry.value
			numCodes++
			lastCode = code
		}
	}
	if br.short {
		return nil
	}
	if numCodes != 1 && space != 0 {
		return formatErrorf(InvalidPrefixCode, 0, "code length code is not a complete prefix code")
	}

	var clCode prefixDecoder
	if numCodes == 1 {
		clCode.initSingle(numCodeLengthCodes, lastCode)
	} else if err := clCode.initSizes(clSizes[:]); err != nil {
		return err
	}

	sizes := make([]byte, alphabetSize)
	symbol := 0
	prevCodeLen := byte(initialRepeatedCodeLength)
	repeat := 0
	repeatCodeLen := byte(0)
	space = kraftSpace
	for symbol < alphabetSize && space > 0 {
		p, ok := clCode.decode(br)
		if br.short {
			return nil
		}
		if !ok {
			return formatErrorf(InvalidPrefixCode, 0, "no code length codeword matches the input")
		}

		if p < repeatPreviousCodeLength {
			repeat = 0
			sizes[symbol] = byte(p)
			symbol++
			if p != 0 {
				prevCodeLen = byte(p)
				space -= kraftSpace >> uint(p)
			}
			continue
		}

		extraBits := byte(p - 14)
		newLen := byte(0)
		if p == repeatPreviousCodeLength {
			newLen = prevCodeLen
		}
		if repeatCodeLen != newLen {
			repeat = 0
			repeatCodeLen = newLen
		}
		oldRepeat := repeat
		if repeat > 0 {
			repeat = (repeat - 2) << extraBits
		}
		repeat += int(br.read(extraBits)) + 3
		if br.short {
			return nil
		}
		delta := repeat - oldRepeat
		if symbol+delta > alphabetSize {
			return formatErrorf(InvalidPrefixCode, 0, "code length repeat of %d overruns alphabet size %d at symbol %d", delta, alphabetSize, symbol)
		}
		for i := 0; i < delta; i++ {
			sizes[symbol] = repeatCodeLen
			symbol++
		}
		if repeatCodeLen != 0 {
			space -= delta << (maxCodeLength - repeatCodeLen)
		}
	}
	if space != 0 {
		return formatErrorf(InvalidPrefixCode, 0, "code lengths do not form a complete prefix code (Kraft space left %d)", space)
	}
	return pd.initSizes(sizes)
}

// type prefixEncoder {{{

// prefixEncoder writes the symbols of one prefix code.  As with
// prefixDecoder, a code with a single symbol takes zero bits per symbol.
type prefixEncoder struct {
	he     huffman.Encoder
	sizes  SizeList
	single int
}

func (pe *prefixEncoder) initFromHistogram(hist []uint32) {
	pe.initFromSizes(buildSizes(hist, maxCodeLength))
}

func (pe *prefixEncoder) initFromSizes(sizes []byte) {
	pe.sizes = sizes
	pe.single = -1

	numUsed := 0
	for symbol, size := range sizes {
		if size != 0 {
			numUsed++
			pe.single = symbol
		}
	}
	if numUsed <= 1 {
		if pe.single < 0 {
			pe.single = 0
		}
		pe.sizes = singleSizeList(len(sizes), pe.single)
		return
	}

	pe.single = -1
	err := pe.he.InitFromSizes(sizes)
	assert.Assertf(err == nil, "failed to initialize prefix encoder: %v", err)
}

func (pe *prefixEncoder) encode(bw bitwriter, symbol int) {
	if pe.single >= 0 {
		assert.Assertf(symbol == pe.single, "symbol %d is not the only symbol %d", symbol, pe.single)
		return
	}
	bw.outputBitsWriteHC(pe.he.Encode(huffman.Symbol(symbol)))
}

// write transmits the code description, as a simple code when at most four
// symbols are used and as a complex code otherwise.
func (pe *prefixEncoder) write(bw bitwriter, alphabetSize int) {
	var used [4]int
	numUsed := 0
	for symbol, size := range pe.sizes {
		if size == 0 {
			continue
		}
		if numUsed < 4 {
			used[numUsed] = symbol
		}
		numUsed++
	}

	if pe.single >= 0 {
		numUsed = 1
		used[0] = pe.single
	}

	if numUsed <= 4 {
		writeSimplePrefixCode(bw, pe.sizes, used[:numUsed], alphabetSize)
		return
	}
	writeComplexPrefixCode(bw, pe.sizes)
}

// }}}

func writeSimplePrefixCode(bw bitwriter, sizes []byte, symbols []int, alphabetSize int) {
	width := byte(log2Floor(uint32(alphabetSize-1)) + 1)

	sorted := make([]int, len(symbols))
	copy(sorted, symbols)
	if len(sorted) > 1 {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sizes[sorted[i]] < sizes[sorted[j]]
		})
	}

	bw.outputBitsWrite(2, 1)
	bw.outputBitsWrite(2, block(len(sorted)-1))
	for _, symbol := range sorted {
		bw.outputBitsWrite(width, block(symbol))
	}
	if len(sorted) == 4 {
		treeSelect := block(0)
		if sizes[sorted[0]] == 1 {
			treeSelect = 1
		}
		bw.outputBitsWrite(1, treeSelect)
	}
}

func writeComplexPrefixCode(bw bitwriter, sizes []byte) {
	tokens := encodeCodeLengths(sizes)

	var hist [numCodeLengthCodes]uint32
	for _, t := range tokens {
		hist[t.symbol]++
	}

	numCodes := 0
	onlyCode := 0
	for code, count := range hist {
		if count != 0 {
			numCodes++
			onlyCode = code
		}
	}

	clSizes := buildSizes(hist[:], maxCodeLengthCodeLength)

	numToStore := numCodeLengthCodes
	if numCodes > 1 {
		for numToStore > 0 && clSizes[codeLengthCodeOrder[numToStore-1]] == 0 {
			numToStore--
		}
	}

	skip := 0
	if clSizes[codeLengthCodeOrder[0]] == 0 && clSizes[codeLengthCodeOrder[1]] == 0 {
		skip = 2
		if clSizes[codeLengthCodeOrder[2]] == 0 {
			skip = 3
		}
	}

	bw.outputBitsWrite(2, block(skip))
	for i := skip; i < numToStore; i++ {
		bw.outputBitsWriteHC(fixedCodeLengthCodes[clSizes[codeLengthCodeOrder[i]]])
	}

	var clCode prefixEncoder
	if numCodes == 1 {
		single := make([]byte, numCodeLengthCodes)
		single[onlyCode] = 1
		clCode.initFromSizes(single)
	} else {
		clCode.initFromSizes(clSizes)
	}

	for _, t := range tokens {
		t.encode(bw, &clCode)
	}
}

// type codeLengthToken {{{

// codeLengthToken is one symbol of the run-length encoded code length
// sequence, plus the extra bits for the repeat codes.
type codeLengthToken struct {
	symbol byte
	extra  byte
}

func makeLengthToken(size byte) codeLengthToken {
	assert.Assertf(size <= maxCodeLength, "symbol bit length %d > %d", size, maxCodeLength)
	return codeLengthToken{symbol: size}
}

func makeRepeatToken(symbol byte, extra byte) codeLengthToken {
	assert.Assertf(symbol == repeatPreviousCodeLength || symbol == repeatZeroCodeLength, "invalid repeat code %d", symbol)
	return codeLengthToken{symbol: symbol, extra: extra}
}

func (t codeLengthToken) encode(bw bitwriter, clCode *prefixEncoder) {
	clCode.encode(bw, int(t.symbol))
	switch t.symbol {
	case repeatPreviousCodeLength:
		bw.outputBitsWrite(2, block(t.extra))
	case repeatZeroCodeLength:
		bw.outputBitsWrite(3, block(t.extra))
	}
}

func (t codeLengthToken) String() string {
	switch t.symbol {
	case repeatPreviousCodeLength:
		return fmt.Sprintf("[repeat previous: extra=%d]", t.extra)
	case repeatZeroCodeLength:
		return fmt.Sprintf("[repeat zero: extra=%d]", t.extra)
	default:
		return fmt.Sprintf("[length %d]", t.symbol)
	}
}

// }}}

// encodeCodeLengths run-length encodes a code length sequence with the
// repeat codes 16 and 17.  Trailing zero lengths are dropped: the decoder
// stops as soon as the code is complete.
func encodeCodeLengths(sizes []byte) []codeLengthToken {
	n := len(sizes)
	for n > 0 && sizes[n-1] == 0 {
		n--
	}
	sizes = sizes[:n]

	useRLEForNonZero, useRLEForZero := false, false
	if len(sizes) > 50 {
		useRLEForNonZero, useRLEForZero = decideOverRLEUse(sizes)
	}

	tokens := make([]codeLengthToken, 0, len(sizes))
	previous := byte(initialRepeatedCodeLength)
	for i := 0; i < len(sizes); {
		value := sizes[i]
		reps := 1
		if (value != 0 && useRLEForNonZero) || (value == 0 && useRLEForZero) {
			for k := i + 1; k < len(sizes) && sizes[k] == value; k++ {
				reps++
			}
		}

		if value == 0 {
			tokens = appendZeroRepetitions(tokens, reps)
		} else {
			tokens = appendRepetitions(tokens, previous, value, reps)
			previous = value
		}
		i += reps
	}
	return tokens
}

func decideOverRLEUse(sizes []byte) (forNonZero bool, forZero bool) {
	totalRepsZero, totalRepsNonZero := 0, 0
	countRepsZero, countRepsNonZero := 1, 1
	for i := 0; i < len(sizes); {
		value := sizes[i]
		reps := 1
		for k := i + 1; k < len(sizes) && sizes[k] == value; k++ {
			reps++
		}
		if reps >= 3 && value == 0 {
			totalRepsZero += reps
			countRepsZero++
		}
		if reps >= 4 && value != 0 {
			totalRepsNonZero += reps
			countRepsNonZero++
		}
		i += reps
	}
	return totalRepsNonZero > countRepsNonZero*2, totalRepsZero > countRepsZero*2
}

// appendRepetitions emits reps copies of a nonzero length.  Consecutive
// repeat codes multiply, so the run is written most significant part first.
func appendRepetitions(tokens []codeLengthToken, previous byte, value byte, reps int) []codeLengthToken {
	if previous != value {
		tokens = append(tokens, makeLengthToken(value))
		reps--
	}
	if reps == 7 {
		tokens = append(tokens, makeLengthToken(value))
		reps--
	}
	if reps < 3 {
		for i := 0; i < reps; i++ {
			tokens = append(tokens, makeLengthToken(value))
		}
		return tokens
	}

	start := len(tokens)
	reps -= 3
	for {
		tokens = append(tokens, makeRepeatToken(repeatPreviousCodeLength, byte(reps&3)))
		reps >>= 2
		if reps == 0 {
			break
		}
		reps--
	}
	reverseTokens(tokens[start:])
	return tokens
}

func appendZeroRepetitions(tokens []codeLengthToken, reps int) []codeLengthToken {
	if reps == 11 {
		tokens = append(tokens, makeLengthToken(0))
		reps--
	}
	if reps < 3 {
		for i := 0; i < reps; i++ {
			tokens = append(tokens, makeLengthToken(0))
		}
		return tokens
	}

	start := len(tokens)
	reps -= 3
	for {
		tokens = append(tokens, makeRepeatToken(repeatZeroCodeLength, byte(reps&7)))
		reps >>= 3
		if reps == 0 {
			break
		}
		reps--
	}
	reverseTokens(tokens[start:])
	return tokens
}

func reverseTokens(tokens []codeLengthToken) {
	for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
}

// buildSizes computes Huffman code lengths for hist, none longer than
// maxSize.  When the unrestricted tree is too deep, small counts are raised
// to a floor that doubles on each attempt, which flattens the tree.
func buildSizes(hist []uint32, maxSize byte) []byte {
	sizes := make([]byte, len(hist))

	numUsed := 0
	for _, count := range hist {
		if count != 0 {
			numUsed++
		}
	}
	switch numUsed {
	case 0:
		return sizes
	case 1:
		for symbol, count := range hist {
			if count != 0 {
				sizes[symbol] = 1
			}
		}
		return sizes
	}

	for floor := uint32(1); ; floor *= 2 {
		if tryBuildSizes(hist, floor, maxSize, sizes) {
			return sizes
		}
	}
}

type treeNode struct {
	weight uint64
	left   int32
	right  int32
	symbol int32
}

func tryBuildSizes(hist []uint32, floor uint32, maxSize byte, sizes []byte) bool {
	nodes := make([]treeNode, 0, 2*len(hist))
	for symbol, count := range hist {
		if count == 0 {
			continue
		}
		weight := count
		if weight < floor {
			weight = floor
		}
		nodes = append(nodes, treeNode{weight: uint64(weight), left: -1, right: -1, symbol: int32(symbol)})
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].weight != nodes[j].weight {
			return nodes[i].weight < nodes[j].weight
		}
		return nodes[i].symbol > nodes[j].symbol
	})

	// Two-queue construction: leaves are consumed in sorted order and
	// internal nodes are created in nondecreasing weight order.
	numLeaves := len(nodes)
	nextLeaf := 0
	nextInner := numLeaves
	pick := func() int {
		if nextLeaf < numLeaves && (nextInner >= len(nodes) || nodes[nextLeaf].weight <= nodes[nextInner].weight) {
			nextLeaf++
			return nextLeaf - 1
		}
		nextInner++
		return nextInner - 1
	}
	for i := 1; i < numLeaves; i++ {
		a := pick()
		b := pick()
		nodes = append(nodes, treeNode{
			weight: nodes[a].weight + nodes[b].weight,
			left:   int32(a),
			right:  int32(b),
			symbol: -1,
		})
	}

	for i := range sizes {
		sizes[i] = 0
	}

	type frame struct {
		node  int
		depth int
	}
	stack := []frame{{node: len(nodes) - 1, depth: 0}}
	for len(stack) != 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := nodes[f.node]
		if n.symbol >= 0 {
			if f.depth > int(maxSize) {
				return false
			}
			sizes[n.symbol] = byte(f.depth)
			continue
		}
		stack = append(stack, frame{node: int(n.left), depth: f.depth + 1})
		stack = append(stack, frame{node: int(n.right), depth: f.depth + 1})
	}
	return true
}
