package brotli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BlockBits indicates the maximum amount of input, as a power of two, that
// the Compressor gathers into a single metablock.
type BlockBits byte

const (
	// DefaultBlockBits requests that BlockBits be chosen from the Quality.
	DefaultBlockBits BlockBits = 0

	// MinBlockBits is the smallest possible BlockBits (64 KiB).
	MinBlockBits BlockBits = 16

	// MaxBlockBits is the largest possible BlockBits (16 MiB).
	MaxBlockBits BlockBits = 24
)

// IsValid returns true if lgblock is a valid BlockBits constant.
func (lgblock BlockBits) IsValid() bool {
	return lgblock == DefaultBlockBits || (lgblock >= MinBlockBits && lgblock <= MaxBlockBits)
}

// GoString returns the Go string representation of this BlockBits constant.
func (lgblock BlockBits) GoString() string {
	if lgblock < MinBlockBits {
		return "DefaultBlockBits"
	}
	return fmt.Sprintf("BlockBits(%d)", uint(lgblock))
}

// String returns the string representation of this BlockBits constant.
func (lgblock BlockBits) String() string {
	if lgblock < MinBlockBits {
		return strDefault
	}
	return fmt.Sprintf("%d", uint(lgblock))
}

// MarshalJSON returns the JSON representation of this BlockBits constant.
func (lgblock BlockBits) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint(lgblock))
}

// Parse parses a string representation of a BlockBits constant.
func (lgblock *BlockBits) Parse(str string) error {
	if strings.EqualFold(str, strDefault) {
		*lgblock = DefaultBlockBits
		return nil
	}

	u64, err := strconv.ParseUint(str, 10, 8)
	if err != nil {
		*lgblock = DefaultBlockBits
		return err
	}
	if u64 < uint64(MinBlockBits) || u64 > uint64(MaxBlockBits) {
		*lgblock = DefaultBlockBits
		return fmt.Errorf("value %d is outside the range %d..%d", u64, uint64(MinBlockBits), uint64(MaxBlockBits))
	}
	*lgblock = BlockBits(u64)
	return nil
}

var _ fmt.GoStringer = BlockBits(0)
var _ fmt.Stringer = BlockBits(0)
