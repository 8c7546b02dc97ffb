package brotli

import (
	"io"
	"io/fs"

	"github.com/chronos-tachyon/assert"
	buffer "github.com/chronos-tachyon/buffer/v3"
)

const readerInputNumBits = 16

// Reader wraps an io.Reader and decompresses the data which flows through it.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	r      io.Reader
	opts   []Option
	d      Decompressor
	input  buffer.Buffer
	output []byte
	err    error
	rErr   error
	closed bool
}

// NewReader constructs and returns a new Reader with the given io.Reader and
// options.
func NewReader(r io.Reader, opts ...Option) *Reader {
	assert.NotNil(&r)

	fr := &Reader{r: r, opts: opts}
	fr.input.Init(readerInputNumBits)
	fr.d.Reset(opts...)
	return fr
}

// UnderlyingReader returns the io.Reader which this Reader uses.
func (fr *Reader) UnderlyingReader() io.Reader {
	return fr.r
}

// Reset re-initializes this Reader with the given io.Reader and options.  Any
// options given here are merged with all previous options.
func (fr *Reader) Reset(r io.Reader, opts ...Option) {
	assert.NotNil(&r)
	for _, opt := range opts {
		assert.NotNil(&opt)
	}

	if len(opts) != 0 {
		merged := make([]Option, 0, len(fr.opts)+len(opts))
		merged = append(merged, fr.opts...)
		merged = append(merged, opts...)
		fr.opts = merged
	}

	fr.r = r
	fr.output = nil
	fr.err = nil
	fr.rErr = nil
	fr.closed = false
	fr.input.Clear()
	fr.d.Reset(fr.opts...)
}

// Read reads from the compressed stream into the provided slice of bytes.
// Conforms to the io.Reader interface.
func (fr *Reader) Read(p []byte) (int, error) {
	if fr.closed {
		return 0, fs.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		if len(fr.output) != 0 {
			n := copy(p, fr.output)
			fr.output = fr.output[n:]
			return n, nil
		}
		if fr.err != nil {
			return 0, fr.err
		}
		if fr.d.IsFinished() {
			fr.err = io.EOF
			if !fr.input.IsEmpty() {
				fr.err = formatErrorf(TrailingData, fr.d.offset(), "trailing data after the end of the stream")
			}
			continue
		}

		var chunk []byte
		if fr.d.CanAcceptMoreData() {
			if fr.input.IsEmpty() {
				fr.inputBufferFill()
				if fr.input.IsEmpty() {
					fr.err = fr.inputError()
					continue
				}
			}
			chunk = fr.input.PrepareBulkRead(fr.input.Size())
		}

		out, err := fr.d.Process(chunk, len(p))
		fr.input.CommitBulkRead(uint(len(chunk)))
		fr.output = out
		if err != nil {
			fr.err = err
		}
	}
}

// Close terminates decompression and closes this Reader.
//
// The underlying io.Reader is *not* closed, even if it supports io.Closer.
//
// The only method which is guaranteed to be safe to call on a Reader after
// Close is Reset, which will return the Reader to a non-closed state.
func (fr *Reader) Close() error {
	fr.closed = true
	fr.output = nil
	return nil
}

func (fr *Reader) inputBufferFill() {
	if fr.rErr != nil {
		return
	}
	n, err := fr.input.ReadFrom(fr.r)
	if err == nil && n == 0 {
		err = io.EOF
	}
	fr.rErr = err
}

// inputError converts the error that ended the underlying reader into the
// error that ends this Reader.  Running out of input before the stream is
// over means the stream was truncated.
func (fr *Reader) inputError() error {
	if fr.rErr == nil || fr.rErr == io.EOF {
		return formatErrorf(TruncatedInput, fr.d.offset(), "stream ended before its last metablock")
	}
	return fr.rErr
}

var _ io.ReadCloser = (*Reader)(nil)
