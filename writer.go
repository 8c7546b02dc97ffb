package brotli

import (
	"errors"
	"io"
	"io/fs"
	"sync"
	"syscall"

	"github.com/chronos-tachyon/assert"
	buffer "github.com/chronos-tachyon/buffer/v3"
)

const writerOutputNumBits = 16

type flushWriter interface {
	io.Writer
	Flush() error
}

type syncWriter interface {
	io.Writer
	Sync() error
}

// Writer wraps an io.Writer and compresses the data which flows through it.
type Writer struct {
	mu sync.Mutex

	w      io.Writer
	opts   []Option
	c      Compressor
	output buffer.Buffer
	state  writerState
	err    error
}

// NewWriter constructs and returns a new Writer with the given io.Writer and
// options.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	assert.NotNil(&w)

	fw := &Writer{w: w, opts: opts}
	fw.c.Reset(opts...)
	fw.output.Init(writerOutputNumBits)
	return fw
}

// UnderlyingWriter returns the io.Writer which this Writer uses.
func (fw *Writer) UnderlyingWriter() io.Writer {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.w
}

// Reset re-initializes this Writer with the given io.Writer and options.
// Any options given here are merged with all previous options.  Data
// written since the last Close is discarded.
func (fw *Writer) Reset(w io.Writer, opts ...Option) {
	assert.NotNil(&w)
	for _, opt := range opts {
		assert.NotNil(&opt)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if len(opts) != 0 {
		merged := make([]Option, 0, len(fw.opts)+len(opts))
		merged = append(merged, fw.opts...)
		merged = append(merged, opts...)
		fw.opts = merged
	}

	fw.w = w
	fw.err = nil
	fw.state = openWriterState
	fw.output.Clear()
	fw.c.Reset(fw.opts...)
}

// Write compresses the given data.  Conforms to the io.Writer interface.
func (fw *Writer) Write(buf []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.state == closedWriterState {
		return 0, fs.ErrClosed
	}
	if fw.state == errorWriterState {
		return 0, fw.err
	}

	out, err := fw.c.Process(buf)
	if err != nil {
		fw.fail(err)
		return 0, err
	}
	if !fw.outputBufferWrite(out) {
		return 0, fw.err
	}
	return len(buf), nil
}

// Flush compresses all buffered data and writes it to the underlying
// io.Writer, padded so that a reader can decode everything written so far.
func (fw *Writer) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.state == closedWriterState {
		return fs.ErrClosed
	}
	if fw.state == errorWriterState {
		return fw.err
	}

	out, err := fw.c.Flush()
	if err != nil {
		fw.fail(err)
		return err
	}
	if !fw.outputBufferWrite(out) || !fw.flushImpl() {
		return fw.err
	}
	return nil
}

// Close finishes the compressed stream and closes this Writer.
//
// The underlying io.Writer is *not* closed, even if it supports io.Closer.
//
// The only method which is guaranteed to be safe to call on a Writer after
// Close is Reset, which will return the Writer to a non-closed state.
func (fw *Writer) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.state == closedWriterState {
		return fs.ErrClosed
	}

	helper := func() error {
		err := fw.err
		fw.state = closedWriterState
		fw.err = nil
		return err
	}

	if fw.state == errorWriterState {
		return helper()
	}

	out, err := fw.c.Finish()
	if err != nil {
		fw.fail(err)
		return helper()
	}
	if !fw.outputBufferWrite(out) || !fw.flushImpl() {
		return helper()
	}

	fw.state = closedWriterState
	return nil
}

func (fw *Writer) fail(err error) {
	fw.state = errorWriterState
	fw.err = err
}

func (fw *Writer) flushImpl() bool {
	if !fw.outputBufferFlush() {
		return false
	}

	if x, ok := fw.w.(flushWriter); ok {
		if err := x.Flush(); err != nil {
			fw.fail(err)
			return false
		}
	}

	if x, ok := fw.w.(syncWriter); ok {
		if err := x.Sync(); err != nil && !isIgnoredSyncError(err) {
			fw.fail(err)
			return false
		}
	}

	return true
}

// outputBufferWrite stages compressed bytes, draining the staging buffer
// into the underlying io.Writer whenever it fills up.
func (fw *Writer) outputBufferWrite(buf []byte) bool {
	for len(buf) != 0 {
		nn, _ := fw.output.Write(buf)
		buf = buf[nn:]
		if fw.output.IsFull() {
			if !fw.outputBufferFlush() {
				return false
			}
		}
	}
	return true
}

func (fw *Writer) outputBufferFlush() bool {
	_, err := fw.output.WriteTo(fw.w)
	if err != nil {
		fw.fail(err)
		return false
	}
	return true
}

func isIgnoredSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL)
}

var _ io.WriteCloser = (*Writer)(nil)
