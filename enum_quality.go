package brotli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quality indicates the desired effort / CPU time to expend in finding a
// compact encoding of the data.
type Quality int8

const (
	// DefaultQuality requests that the default value for Quality be
	// selected.  This is currently equivalent to 11 (BestQuality).
	DefaultQuality Quality = -1

	// FastestQuality requests that the data be compressed with the
	// greatest speed and least effort.
	FastestQuality Quality = 0

	// BestQuality requests that the data be compressed with the greatest
	// effort and least speed.
	BestQuality Quality = 11
)

// IsValid returns true if q is a valid Quality constant.
func (q Quality) IsValid() bool {
	return q >= DefaultQuality && q <= BestQuality
}

// GoString returns the Go string representation of this Quality constant.
func (q Quality) GoString() string {
	if q < 0 {
		return "DefaultQuality"
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// String returns the string representation of this Quality constant.
func (q Quality) String() string {
	if q < 0 {
		return strDefault
	}
	if q == BestQuality {
		return "best"
	}
	return fmt.Sprintf("%d", int(q))
}

// MarshalJSON returns the JSON representation of this Quality constant.
func (q Quality) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(q))
}

// Parse parses a string representation of a Quality constant.
func (q *Quality) Parse(str string) error {
	if strings.EqualFold(str, strDefault) {
		*q = DefaultQuality
		return nil
	}

	if strings.EqualFold(str, "best") {
		*q = BestQuality
		return nil
	}

	u64, err := strconv.ParseUint(str, 10, 8)
	if err != nil {
		*q = DefaultQuality
		return err
	}
	if u64 > uint64(BestQuality) {
		*q = DefaultQuality
		return fmt.Errorf("value %d is out of range", u64)
	}
	*q = Quality(u64)
	return nil
}

var _ fmt.GoStringer = Quality(0)
var _ fmt.Stringer = Quality(0)
