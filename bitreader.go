package brotli

// bitReader reads LSB-first bit fields from a byte slice.
//
// Reading past the end of the slice does not fail immediately: the missing
// bits read as zero and short is set.  Callers decode a whole field group,
// then check short before acting on what they read, and rewind to a
// checkpoint if it is set.
type bitReader struct {
	data  []byte
	pos   uint64
	short bool
}

func (br *bitReader) numBits() uint64 {
	return uint64(len(br.data)) << 3
}

// bytePos returns the index of the byte containing the next unread bit.
func (br *bitReader) bytePos() int {
	return int(br.pos >> 3)
}

func (br *bitReader) isAligned() bool {
	return (br.pos & 7) == 0
}

// peek returns the next n bits without consuming them.  n must not exceed 32.
func (br *bitReader) peek(n byte) uint32 {
	if n == 0 {
		return 0
	}
	index := int(br.pos >> 3)
	shift := uint(br.pos & 7)
	var x uint64
	for i := 0; i < 5; i++ {
		j := index + i
		if j >= len(br.data) {
			break
		}
		x |= uint64(br.data[j]) << (8 * uint(i))
	}
	x >>= shift
	return uint32(x) & mask32(uint(n))
}

func (br *bitReader) skip(n byte) {
	br.pos += uint64(n)
	if br.pos > br.numBits() {
		br.short = true
	}
}

func (br *bitReader) read(n byte) uint32 {
	x := br.peek(n)
	br.skip(n)
	return x
}

func (br *bitReader) readBool() bool {
	return br.read(1) != 0
}

// alignToByte consumes the bits up to the next byte boundary and returns
// their value.
func (br *bitReader) alignToByte() uint32 {
	n := byte((8 - (br.pos & 7)) & 7)
	return br.read(n)
}

// readBytes returns up to n whole bytes starting at the current position,
// which must be byte aligned.  It returns fewer than n bytes only if the
// input runs out, and never sets short.
func (br *bitReader) readBytes(n int) []byte {
	index := br.bytePos()
	end := index + n
	if end > len(br.data) {
		end = len(br.data)
	}
	if index > end {
		index = end
	}
	br.pos = uint64(end) << 3
	return br.data[index:end]
}

// wouldOverrun returns true if reading n more bits would go past the end of
// the data.
func (br *bitReader) wouldOverrun(n byte) bool {
	return br.pos+uint64(n) > br.numBits()
}
