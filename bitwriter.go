package brotli

import (
	"encoding/binary"

	"github.com/chronos-tachyon/assert"
	"github.com/chronos-tachyon/huffman"
)

// bitwriter is the sink for everything the Compressor emits.  bitBuffer
// produces real bytes; bitcounter only measures, so that alternative
// encodings of a metablock can be priced before one is chosen.
type bitwriter interface {
	outputBufferWrite([]byte)
	outputBitsWrite(byte, block)
	outputBitsWriteHC(huffman.Code)
	outputBitsFlush()
}

// type bitBuffer {{{

type bitBuffer struct {
	out     []byte
	obBlock block
	obLen   byte
}

// outputBufferWrite pads to a byte boundary with zero bits, then appends p.
func (bb *bitBuffer) outputBufferWrite(p []byte) {
	bb.outputBitsFlush()
	bb.out = append(bb.out, p...)
}

func (bb *bitBuffer) outputBitsWrite(size byte, bits block) {
	assert.Assertf(size <= bitsPerBlock, "size %d > bitsPerBlock %d", size, bitsPerBlock)

	inBlock := bits & makeMask(size)
	inLen := size
	for inLen != 0 {
		shiftA := bb.obLen
		shiftB := bitsPerBlock - bb.obLen
		if shiftB > inLen {
			shiftB = inLen
		}
		maskB := makeMask(shiftB)
		bb.obBlock |= (inBlock & maskB) << shiftA
		inBlock >>= shiftB
		bb.obLen += shiftB
		inLen -= shiftB

		if bb.obLen == bitsPerBlock {
			var tmp [bytesPerBlock]byte
			bytesFromBlock(binary.LittleEndian, tmp[:], bb.obBlock)
			bb.out = append(bb.out, tmp[:]...)
			bb.obBlock = 0
			bb.obLen = 0
		}
	}
}

func (bb *bitBuffer) outputBitsWriteHC(hc huffman.Code) {
	bb.outputBitsWrite(hc.Size, block(hc.Bits))
}

// outputBitsFlush pads the pending bits with zeroes to a byte boundary and
// moves them to out.
func (bb *bitBuffer) outputBitsFlush() {
	if bb.obLen == 0 {
		return
	}

	var tmp [bytesPerBlock]byte
	n := (bb.obLen + 7) / 8
	bytesFromBlock(binary.LittleEndian, tmp[:], bb.obBlock)
	bb.out = append(bb.out, tmp[:n]...)
	bb.obBlock = 0
	bb.obLen = 0
}

// take returns the complete bytes written so far and forgets them.  Up to 7
// pending bits stay behind for the next write.
func (bb *bitBuffer) take() []byte {
	for bb.obLen >= bitsPerByte {
		bb.out = append(bb.out, byte(bb.obBlock))
		bb.obBlock >>= bitsPerByte
		bb.obLen -= bitsPerByte
	}
	out := bb.out
	bb.out = nil
	return out
}

// isAligned returns true if no partial byte is pending.
func (bb *bitBuffer) isAligned() bool {
	return (bb.obLen & 7) == 0
}

func (bb *bitBuffer) reset() {
	*bb = bitBuffer{}
}

var _ bitwriter = (*bitBuffer)(nil)

// }}}

// type bitcounter {{{

type bitcounter struct {
	numBits uint64
}

func (bc bitcounter) length() uint64 {
	return bc.numBits
}

func (bc *bitcounter) outputBufferWrite(p []byte) {
	bc.outputBitsFlush()
	bc.numBits += uint64(len(p)) << 3
}

func (bc *bitcounter) outputBitsWrite(size byte, bits block) {
	assert.Assertf(size <= bitsPerBlock, "size %d > bitsPerBlock %d", size, bitsPerBlock)
	bc.numBits += uint64(size)
}

func (bc *bitcounter) outputBitsWriteHC(hc huffman.Code) {
	bc.outputBitsWrite(hc.Size, block(hc.Bits))
}

func (bc *bitcounter) outputBitsFlush() {
	remainder := (bc.numBits & 7)
	if remainder != 0 {
		bc.numBits += (8 - remainder)
	}
}

var _ bitwriter = (*bitcounter)(nil)

// }}}
