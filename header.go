package brotli

// Header is a collection of facts about a Brotli stream which are fixed for
// the whole stream.  The decoder learns them from the stream header; the
// encoder reports the values it chose.
type Header struct {
	WindowBits    WindowBits
	HasDictionary bool
}

// MaxDistance returns the largest backward distance into the sliding
// window that the stream may use.
func (h Header) MaxDistance() uint {
	return h.WindowBits.MaxDistance()
}
