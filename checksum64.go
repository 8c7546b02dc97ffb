package brotli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Checksum64 is a lightweight wrapper around uint64 that is used for the
// xxHash64 digest of the uncompressed data.  It stringifies to hexadecimal
// format.
type Checksum64 uint64

// GoString returns the Go string representation of this Checksum64 value.
func (csum Checksum64) GoString() string {
	return fmt.Sprintf("Checksum64(%#016x)", uint64(csum))
}

// String returns the string representation of this Checksum64 value.
func (csum Checksum64) String() string {
	return fmt.Sprintf("%#016x", uint64(csum))
}

// MarshalJSON returns the JSON representation of this Checksum64 value.
func (csum Checksum64) MarshalJSON() ([]byte, error) {
	return json.Marshal(csum.String())
}

// UnmarshalJSON parses the JSON representation of a Checksum64 value.
func (csum *Checksum64) UnmarshalJSON(raw []byte) error {
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return err
	}
	str = strings.TrimPrefix(str, "0x")
	u64, err := strconv.ParseUint(str, 16, 64)
	if err != nil {
		return err
	}
	*csum = Checksum64(u64)
	return nil
}

var _ fmt.GoStringer = Checksum64(0)
var _ fmt.Stringer = Checksum64(0)
var _ json.Marshaler = Checksum64(0)
var _ json.Unmarshaler = (*Checksum64)(nil)
