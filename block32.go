//go:build 386 || arm

package brotli

import (
	"encoding/binary"
)

const bytesPerBlock = 4

type block uint32

func bytesFromBlock(byteOrder binary.ByteOrder, p []byte, x block) {
	byteOrder.PutUint32(p, uint32(x))
}
