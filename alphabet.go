package brotli

import (
	"fmt"
)

const (
	numLiteralSymbols     = 256
	numCommandSymbols     = 704
	numBlockLengthSymbols = 26
	numDistanceShortCodes = 16
	maxNPostfix           = 3
	maxNDirect            = 120

	literalContextBits  = 6
	distanceContextBits = 2

	maxMetaBlockLength = 1 << 24
	singleBlockLength  = 1 << 28
)

type lengthCode struct {
	base  uint32
	extra byte
}

var insertLengthCodes = [24]lengthCode{
	{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0},
	{6, 1}, {8, 1}, {10, 2}, {14, 2}, {18, 3}, {26, 3},
	{34, 4}, {50, 4}, {66, 5}, {98, 5}, {130, 6}, {194, 7},
	{322, 8}, {578, 9}, {1090, 10}, {2114, 12}, {6210, 14}, {22594, 24},
}

var copyLengthCodes = [24]lengthCode{
	{2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0},
	{8, 0}, {9, 0}, {10, 1}, {12, 1}, {14, 2}, {18, 2},
	{22, 3}, {30, 3}, {38, 4}, {54, 4}, {70, 5}, {102, 5},
	{134, 6}, {198, 7}, {326, 8}, {582, 9}, {1094, 10}, {2118, 24},
}

var blockLengthCodes = [numBlockLengthSymbols]lengthCode{
	{1, 2}, {5, 2}, {9, 2}, {13, 2}, {17, 3}, {25, 3}, {33, 3}, {41, 3},
	{49, 4}, {65, 4}, {81, 4}, {97, 4}, {113, 5}, {145, 5}, {177, 5}, {209, 5},
	{241, 6}, {305, 6}, {369, 7}, {497, 8}, {753, 9}, {1265, 10}, {2289, 11}, {4337, 12},
	{8433, 13}, {16625, 24},
}

// findLengthCode returns the index of the last entry whose base is <= n.
func findLengthCode(table []lengthCode, n uint32) int {
	for i := len(table) - 1; i > 0; i-- {
		if table[i].base <= n {
			return i
		}
	}
	return 0
}

func insertCodeFor(n uint32) int { return findLengthCode(insertLengthCodes[:], n) }

func copyCodeFor(n uint32) int { return findLengthCode(copyLengthCodes[:], n) }

func blockLengthCodeFor(n uint32) int { return findLengthCode(blockLengthCodes[:], n) }

// The insert-and-copy alphabet is made of 11 cells of 64 symbols.  Each
// cell fixes the high bits of the insert and copy length codes; the first
// two cells also imply distance code 0.
var (
	cellInsertGroup = [11]byte{0, 0, 0, 0, 1, 1, 0, 2, 1, 2, 2}
	cellCopyGroup   = [11]byte{0, 1, 0, 1, 0, 1, 2, 0, 2, 1, 2}

	explicitCellBase = [3][3]int{
		{128, 192, 384},
		{256, 320, 512},
		{448, 576, 640},
	}
)

// decodeCommandSymbol splits an insert-and-copy symbol into its insert
// length code, copy length code, and implicit distance flag.
func decodeCommandSymbol(sym int) (insCode int, copyCode int, implicit bool) {
	cell := sym >> 6
	insCode = int(cellInsertGroup[cell])<<3 | (sym>>3)&7
	copyCode = int(cellCopyGroup[cell])<<3 | sym&7
	implicit = cell < 2
	return
}

// encodeCommandSymbol is the inverse of decodeCommandSymbol.  The implicit
// cells can only be used when the lengths are small enough to fit them.
func encodeCommandSymbol(insCode int, copyCode int, implicit bool) int {
	low := (insCode&7)<<3 | copyCode&7
	if implicit && canUseImplicitCell(insCode, copyCode) {
		if copyCode < 8 {
			return low
		}
		return 64 | low
	}
	return explicitCellBase[insCode>>3][copyCode>>3] | low
}

func canUseImplicitCell(insCode int, copyCode int) bool {
	return insCode < 8 && copyCode < 16
}

// distanceContext maps a copy length to one of the four distance contexts.
func distanceContext(copyLen uint32) int {
	if copyLen > 4 {
		return 3
	}
	return int(copyLen) - 2
}

// type distanceParams {{{

// distanceParams holds NPOSTFIX and NDIRECT, which shape the distance
// alphabet of one metablock.
type distanceParams struct {
	npostfix uint
	ndirect  uint
}

func (dp distanceParams) isValid() bool {
	if dp.npostfix > maxNPostfix || dp.ndirect > maxNDirect {
		return false
	}
	if dp.ndirect > (15 << dp.npostfix) {
		return false
	}
	return dp.ndirect&((1<<dp.npostfix)-1) == 0
}

func (dp distanceParams) alphabetSize() int {
	return numDistanceShortCodes + int(dp.ndirect) + (48 << dp.npostfix)
}

// extraBits returns the number of extra bits that follow distance code
// code.  Short codes and direct codes have none.
func (dp distanceParams) extraBits(code int) byte {
	x := code - numDistanceShortCodes - int(dp.ndirect)
	if x < 0 {
		return 0
	}
	return byte(1 + (x >> (dp.npostfix + 1)))
}

// decode resolves a non-short distance code and its extra bits to a
// backward distance.
func (dp distanceParams) decode(code int, extra uint32) uint {
	if code < numDistanceShortCodes+int(dp.ndirect) {
		return uint(code - numDistanceShortCodes + 1)
	}
	x := uint(code - numDistanceShortCodes - int(dp.ndirect))
	np := dp.npostfix
	ndistbits := 1 + (x >> (np + 1))
	hcode := x >> np
	lcode := x & ((1 << np) - 1)
	offset := ((2 + (hcode & 1)) << ndistbits) - 4
	return ((offset + uint(extra)) << np) + lcode + dp.ndirect + 1
}

// encode returns the distance code, extra bit count, and extra bits that
// represent backward distance d without the distance cache.
func (dp distanceParams) encode(d uint) (code int, nbits byte, extra uint32) {
	if d <= dp.ndirect {
		return numDistanceShortCodes - 1 + int(d), 0, 0
	}
	np := dp.npostfix
	dist := (uint(1) << (np + 2)) + d - dp.ndirect - 1
	bucket := log2Floor(uint32(dist)) - 1
	postfix := dist & ((1 << np) - 1)
	prefix := (dist >> bucket) & 1
	offset := (2 + prefix) << bucket
	n := bucket - np
	code = numDistanceShortCodes + int(dp.ndirect) + int(((2*(n-1)+prefix)<<np)+postfix)
	return code, byte(n), uint32((dist - offset) >> np)
}

func (dp distanceParams) String() string {
	return fmt.Sprintf("NPOSTFIX=%d NDIRECT=%d", dp.npostfix, dp.ndirect)
}

// }}}

// type distanceCache {{{

var (
	shortCodeIndexOffset = [numDistanceShortCodes]int{0, 3, 2, 1, 0, 0, 0, 0, 0, 0, 3, 3, 3, 3, 3, 3}
	shortCodeValueOffset = [numDistanceShortCodes]int{0, 0, 0, 0, -1, 1, -2, 2, -3, 3, -1, 1, -2, 2, -3, 3}
)

// distanceCache is the ring of the last four distances.  It lives for the
// whole stream.
type distanceCache struct {
	ring  [4]int
	index int
}

func (dc *distanceCache) reset() {
	*dc = distanceCache{ring: [4]int{16, 15, 11, 4}, index: 3}
}

func (dc distanceCache) last() int {
	return dc.ring[dc.index]
}

// lookup returns the distance named by short code code.  The result may be
// zero or negative, which the caller must reject.
func (dc distanceCache) lookup(code int) int {
	return dc.ring[(dc.index+shortCodeIndexOffset[code])&3] + shortCodeValueOffset[code]
}

func (dc *distanceCache) push(d int) {
	dc.index = (dc.index + 1) & 3
	dc.ring[dc.index] = d
}

// find returns the first short code naming distance d, if any.
func (dc distanceCache) find(d int) (int, bool) {
	for code := 0; code < numDistanceShortCodes; code++ {
		if dc.lookup(code) == d {
			return code, true
		}
	}
	return 0, false
}

// }}}

// type blockTypeRing {{{

// blockTypeRing tracks the current and previous block type of one
// category so block type codes can be resolved (decoder) or chosen
// (encoder).
type blockTypeRing struct {
	previous int
	current  int
}

func (r *blockTypeRing) reset() {
	*r = blockTypeRing{previous: 1, current: 0}
}

// next resolves a block type code to the new block type and advances.
func (r *blockTypeRing) next(code int, numTypes int) int {
	var t int
	switch code {
	case 0:
		t = r.previous
	case 1:
		t = r.current + 1
	default:
		t = code - 2
	}
	if t >= numTypes {
		t -= numTypes
	}
	r.previous = r.current
	r.current = t
	return t
}

// codeFor chooses the block type code for switching to type t and
// advances.
func (r *blockTypeRing) codeFor(t int, numTypes int) int {
	code := t + 2
	if t == (r.current+1)%numTypes {
		code = 1
	} else if t == r.previous {
		code = 0
	}
	r.previous = r.current
	r.current = t
	return code
}

// }}}

// readWindowBits reads the WBITS field at the start of a stream.  It
// returns 0 for the reserved encoding.
func readWindowBits(br *bitReader) WindowBits {
	if !br.readBool() {
		return 16
	}
	n := br.read(3)
	if n != 0 {
		return WindowBits(17 + n)
	}
	m := br.read(3)
	switch m {
	case 0:
		return 17
	case 1:
		return 0
	default:
		return WindowBits(8 + m)
	}
}

func writeWindowBits(bw bitwriter, wbits WindowBits) {
	switch {
	case wbits == 16:
		bw.outputBitsWrite(1, 0)
	case wbits == 17:
		bw.outputBitsWrite(7, 1)
	case wbits > 17:
		bw.outputBitsWrite(4, block(1|(uint(wbits)-17)<<1))
	default:
		bw.outputBitsWrite(7, block(1|(uint(wbits)-8)<<4))
	}
}

// readVarUint8 reads the variable-length encoding used for NBLTYPES and
// NTREES, returning a value in 0..255.
func readVarUint8(br *bitReader) int {
	if !br.readBool() {
		return 0
	}
	n := byte(br.read(3))
	if n == 0 {
		return 1
	}
	return int(br.read(n)) + (1 << n)
}

func writeVarUint8(bw bitwriter, v int) {
	if v == 0 {
		bw.outputBitsWrite(1, 0)
		return
	}
	n := byte(log2Floor(uint32(v)))
	bw.outputBitsWrite(1, 1)
	bw.outputBitsWrite(3, block(n))
	bw.outputBitsWrite(n, block(v-(1<<n)))
}

// writeMetaBlockLength writes MNIBBLES and MLEN-1 using the fewest nibbles
// that hold the value.
func writeMetaBlockLength(bw bitwriter, length int) {
	lg := uint(1)
	if length > 1 {
		lg = log2Floor(uint32(length-1)) + 1
	}
	nibbles := uint(4)
	if lg > 16 {
		nibbles = (lg + 3) / 4
	}
	bw.outputBitsWrite(2, block(nibbles-4))
	bw.outputBitsWrite(byte(nibbles*4), block(length-1))
}

// splitBlockLength returns the block length code for n along with its
// extra bits.
func splitBlockLength(n uint32) (code int, nbits byte, extra block) {
	code = blockLengthCodeFor(n)
	bc := blockLengthCodes[code]
	return code, bc.extra, block(n - bc.base)
}
