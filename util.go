package brotli

import (
	"math/bits"
)

const strDefault = "default"

const bitsPerByte = 8

const bitsPerBlock = bytesPerBlock * bitsPerByte

func makeMask(shift byte) block {
	if shift == 0 {
		return 0
	} else if shift >= bitsPerBlock {
		return ^block(0)
	} else {
		return (block(1) << shift) - 1
	}
}

func mask32(shift uint) uint32 {
	if shift >= 32 {
		return ^uint32(0)
	}
	return (uint32(1) << shift) - 1
}

// log2Floor returns floor(log2(x)) for x > 0, and 0 for x == 0.
func log2Floor(x uint32) uint {
	if x == 0 {
		return 0
	}
	return uint(bits.Len32(x)) - 1
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func boolToUint(b bool) uint {
	if b {
		return 1
	}
	return 0
}
