//go:build !386 && !arm

package brotli

import (
	"encoding/binary"
)

const bytesPerBlock = 8

type block uint64

func bytesFromBlock(byteOrder binary.ByteOrder, p []byte, x block) {
	byteOrder.PutUint64(p, uint64(x))
}
