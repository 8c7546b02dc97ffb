package brotli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WindowBits indicates the size of the LZ77 sliding window.  A stream with
// WindowBits w may refer back up to (1<<w)-16 bytes.
type WindowBits byte

const (
	// DefaultWindowBits requests that the default value for WindowBits be
	// selected.  This is currently equivalent to 22.
	DefaultWindowBits WindowBits = 0

	// MinWindowBits is the smallest possible WindowBits.
	MinWindowBits WindowBits = 10

	// MaxWindowBits is the largest possible WindowBits.  As WindowBits
	// increases, the amount of memory used for the sliding window doubles
	// with each increase.
	MaxWindowBits WindowBits = 24
)

const defaultWindowBits WindowBits = 22

// IsValid returns true if wbits is a valid WindowBits constant.
func (wbits WindowBits) IsValid() bool {
	return wbits == DefaultWindowBits || (wbits >= MinWindowBits && wbits <= MaxWindowBits)
}

// MaxDistance returns the largest backward distance that a stream using
// this WindowBits can express within its own data.
func (wbits WindowBits) MaxDistance() uint {
	if wbits < MinWindowBits {
		wbits = defaultWindowBits
	}
	return (uint(1) << wbits) - 16
}

// GoString returns the Go string representation of this WindowBits constant.
func (wbits WindowBits) GoString() string {
	if wbits < MinWindowBits {
		return "DefaultWindowBits"
	}
	return fmt.Sprintf("WindowBits(%d)", uint(wbits))
}

// String returns the string representation of this WindowBits constant.
func (wbits WindowBits) String() string {
	if wbits < MinWindowBits {
		return strDefault
	}
	return fmt.Sprintf("%d", uint(wbits))
}

// MarshalJSON returns the JSON representation of this WindowBits constant.
func (wbits WindowBits) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint(wbits))
}

// Parse parses a string representation of a WindowBits constant.
func (wbits *WindowBits) Parse(str string) error {
	if strings.EqualFold(str, strDefault) {
		*wbits = DefaultWindowBits
		return nil
	}

	u64, err := strconv.ParseUint(str, 10, 8)
	if err != nil {
		*wbits = DefaultWindowBits
		return err
	}
	if u64 < uint64(MinWindowBits) {
		*wbits = DefaultWindowBits
		return fmt.Errorf("value %d is less than minimum %d", u64, uint64(MinWindowBits))
	}
	if u64 > uint64(MaxWindowBits) {
		*wbits = DefaultWindowBits
		return fmt.Errorf("value %d is greater than maximum %d", u64, uint64(MaxWindowBits))
	}
	*wbits = WindowBits(u64)
	return nil
}

var _ fmt.GoStringer = WindowBits(0)
var _ fmt.Stringer = WindowBits(0)
