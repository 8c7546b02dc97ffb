package brotli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/chronos-tachyon/brotli/internal/dictionary"
)

// decompressChunked feeds compressed to d in pieces of chunkSize bytes and
// asks for at most limit bytes of output per call.
func decompressChunked(d *Decompressor, compressed []byte, chunkSize int, limit int) ([]byte, error) {
	var out []byte
	for !d.IsFinished() {
		var chunk []byte
		if d.CanAcceptMoreData() {
			if len(compressed) == 0 {
				return out, fmt.Errorf("input exhausted after %d bytes of output", len(out))
			}
			n := minInt(chunkSize, len(compressed))
			chunk = compressed[:n]
			compressed = compressed[n:]
		}
		p, err := d.Process(chunk, limit)
		if limit > 0 && len(p) > limit {
			return out, fmt.Errorf("Process returned %d bytes, limit %d", len(p), limit)
		}
		out = append(out, p...)
		if err != nil {
			return out, err
		}
	}
	if len(compressed) != 0 {
		return out, fmt.Errorf("%d bytes of input left over", len(compressed))
	}
	return out, nil
}

func TestDecompressor_Chunked(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	mixed := append(repeatToLength(lipsum, 20000), randomBytes(2, 5000)...)

	type testRow struct {
		name       string
		compressed []byte
		expect     []byte
	}

	var testData = [...]testRow{
		{"reference-q11", referenceCompress(mixed, 11), mixed},
		{"reference-q1", referenceCompress(mixed, 1), mixed},
		{"own-q5", mustCompress(mixed, WithQuality(5)), mixed},
		{"own-q0-w10", mustCompress(mixed, WithQuality(0), WithWindowBits(10)), mixed},
		{"uncompressed-hello", mustDecodeHex("40001068656c6c6f03"), []byte("hello")},
	}

	for _, row := range testData {
		for _, chunkSize := range []int{1, 7, 4096, len(row.compressed)} {
			for _, limit := range []int{0, 1, 13, 4096} {
				name := fmt.Sprintf("%s/chunk%d/limit%d", row.name, chunkSize, limit)
				t.Run(name, func(t *testing.T) {
					var footer *FooterEvent
					d := NewDecompressor(WithTracers(TracerFunc(func(ev Event) {
						if ev.Footer != nil {
							footer = ev.Footer
						}
					})))
					out, err := decompressChunked(d, row.compressed, chunkSize, limit)
					if err != nil {
						t.Fatalf("decompress failed: %v", err)
					}
					if !bytes.Equal(out, row.expect) {
						t.Errorf("wrong output: %d bytes vs %d", len(out), len(row.expect))
					}
					if want := Checksum64(xxhash.Sum64(row.expect)); footer == nil || footer.XXH64 != want {
						t.Errorf("footer %+v, expected XXH64 %v", footer, want)
					}
				})
			}
		}
	}
}

func TestDecompressor_OutputLimit(t *testing.T) {
	d := NewDecompressor()
	compressed := mustDecodeHex("40001068656c6c6f03")

	out, err := d.Process(compressed, 2)
	if err != nil || string(out) != "he" {
		t.Fatalf("first Process = %q, %v; expected \"he\", nil", out, err)
	}
	if d.CanAcceptMoreData() {
		t.Errorf("CanAcceptMoreData() = true with output pending")
	}
	if _, err := d.Process([]byte{0}, 2); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Process with new data while blocked: expected %v, got %v", ErrInvalidState, err)
	}

	out, err = d.Process(nil, 2)
	if err != nil || string(out) != "ll" {
		t.Fatalf("second Process = %q, %v; expected \"ll\", nil", out, err)
	}
	out, err = d.Process(nil, 2)
	if err != nil || string(out) != "o" {
		t.Fatalf("third Process = %q, %v; expected \"o\", nil", out, err)
	}
	if !d.IsFinished() {
		t.Errorf("IsFinished() = false after the last byte")
	}
	if d.CanAcceptMoreData() {
		t.Errorf("CanAcceptMoreData() = true after the end of the stream")
	}
}

func TestDecompressor_Errors(t *testing.T) {
	type testRow struct {
		name       string
		compressed []byte
		opts       []Option
		expect     error
	}

	var testData = [...]testRow{
		{
			name:       "truncated",
			compressed: mustDecodeHex("40001068"),
			expect:     ErrTruncatedInput,
		},
		{
			name:       "no-input",
			compressed: nil,
			expect:     ErrTruncatedInput,
		},
		{
			name:       "trailing",
			compressed: mustDecodeHex("3b00"),
			expect:     ErrTrailingData,
		},
		{
			name:       "reserved-wbits",
			compressed: mustDecodeHex("11"),
			expect:     ErrInvalidParameter,
		},
		{
			name:       "metadata-reserved-bit",
			compressed: mustDecodeHex("1c00"),
			expect:     ErrInvalidParameter,
		},
		{
			name:       "superfluous-length-nibble",
			compressed: mustDecodeHex("04000000"),
			expect:     ErrInvalidParameter,
		},
		{
			name:       "padding-before-uncompressed",
			compressed: mustDecodeHex("40003068656c6c6f03"),
			expect:     ErrInvalidParameter,
		},
		{
			name:       "padding-after-last",
			compressed: mustDecodeHex("40001068656c6c6f07"),
			expect:     ErrInvalidParameter,
		},
		{
			name:       "output-limit",
			compressed: mustDecodeHex("40001068656c6c6f03"),
			opts:       []Option{WithMaxOutputSize(4)},
			expect:     ErrOutputLimitExceeded,
		},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			_, err := Decompress(row.compressed, row.opts...)
			if !errors.Is(err, row.expect) {
				t.Errorf("expected %v, got %v", row.expect, err)
			}
			var fe FormatError
			if err != nil && !errors.As(err, &fe) {
				t.Errorf("error %v is not a FormatError", err)
			}
		})
	}
}

// encodeCommands returns a stream made of one last compressed metablock
// that sends cmds over data, but declares a length of length bytes.  The
// commands are written as given, so they can describe things the
// Compressor never produces.
func encodeCommands(data []byte, cmds []command, length int) []byte {
	var bb bitBuffer
	writeWindowBits(&bb, defaultWindowBits)
	plan := newMetaBlockPlan(data, 0, 0, cmds, distanceParams{}, planOptions{})
	writeMetaBlockHeader(&bb, length, true, false)
	plan.writeBody(&bb)
	bb.outputBitsFlush()
	return bb.take()
}

func TestDecompressor_Commands(t *testing.T) {
	word := dictionary.Word(4, 0)

	type testRow struct {
		name    string
		data    []byte
		cmds    []command
		length  int
		expect  string
		err     error
		problem string
	}

	var testData = [...]testRow{
		{
			name:   "copy",
			data:   []byte("aaa"),
			cmds:   []command{makeCopyCommand(1, 2, 1)},
			length: 3,
			expect: "aaa",
		},
		{
			name:   "dictionary-word",
			data:   word,
			cmds:   []command{makeDictionaryCommand(0, 4, 1, 4)},
			length: 4,
			expect: string(word),
		},
		{
			// The first copy leaves 1 as the last distance; short code 8
			// subtracts 3 from it.
			name: "short-code-below-one",
			data: []byte("aaaaa"),
			cmds: []command{
				makeCopyCommand(1, 2, 1),
				{copyLen: 2, outputLen: 2, shortCode: 8},
			},
			length:  5,
			err:     ErrInvalidParameter,
			problem: "distance short code 8 resolves to -2",
		},
		{
			// Word index 0, transform 121, just past the empty history.
			name:    "dictionary-transform",
			data:    word,
			cmds:    []command{makeDictionaryCommand(0, 4, 121<<dictionary.SizeBits(4)+1, 4)},
			length:  4,
			err:     ErrInvalidParameter,
			problem: "invalid transform 121",
		},
		{
			name:    "dictionary-length",
			data:    []byte("abc"),
			cmds:    []command{makeCopyCommand(0, 3, 1)},
			length:  3,
			err:     ErrInvalidParameter,
			problem: "invalid length 3",
		},
		{
			name:    "dictionary-word-overrun",
			data:    word,
			cmds:    []command{makeDictionaryCommand(0, 4, 1, 4)},
			length:  3,
			err:     ErrInvalidParameter,
			problem: "dictionary word of 4 bytes exceeds the 3 bytes left",
		},
		{
			name:    "insert-overrun",
			data:    []byte("abcdefgh"),
			cmds:    []command{makeInsertCommand(8)},
			length:  4,
			err:     ErrInvalidParameter,
			problem: "insert length 8 exceeds the 4 bytes left",
		},
		{
			name:    "copy-overrun",
			data:    []byte("aaaaaa"),
			cmds:    []command{makeCopyCommand(1, 5, 1)},
			length:  4,
			err:     ErrInvalidParameter,
			problem: "copy length 5 exceeds the 3 bytes left",
		},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			compressed := encodeCommands(row.data, row.cmds, row.length)
			out, err := Decompress(compressed)
			if row.err == nil {
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if string(out) != row.expect {
					t.Errorf("expected %q, got %q", row.expect, out)
				}
				return
			}

			if !errors.Is(err, row.err) {
				t.Fatalf("expected %v, got %v", row.err, err)
			}
			var fe FormatError
			if !errors.As(err, &fe) || !strings.Contains(fe.Problem, row.problem) {
				t.Errorf("expected a problem containing %q, got %v", row.problem, err)
			}
		})
	}
}

func TestDecompressor_WindowSize(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	dict := lipsum[:1000]

	type testRow struct {
		name       string
		compressed []byte
		opts       []Option
		expect     uint
	}

	var testData = [...]testRow{
		{"empty", mustDecodeHex("3b"), nil, 0},
		{"single-metablock", encodeCommands([]byte("aaa"), []command{makeCopyCommand(1, 2, 1)}, 3), nil, 4},
		{"single-metablock-dictionary", mustCompress(lipsum[:1500], WithQuality(5), WithDictionary(dict)), []Option{WithDictionary(dict)}, 4096},
		{"uncompressed", mustDecodeHex("40001068656c6c6f03"), nil, 1 << 16},
		{"multiple-metablocks", mustCompress(repeatToLength(lipsum, 200000), WithQuality(1), WithWindowBits(16)), nil, 1 << 16},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			d := NewDecompressor(row.opts...)
			if _, err := d.Process(row.compressed, 0); err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if !d.IsFinished() {
				t.Fatalf("stream did not finish")
			}
			if got := d.window.Size(); got != row.expect {
				t.Errorf("window size %d, expected %d", got, row.expect)
			}
		})
	}
}

func TestDecompressor_NonStrictPadding(t *testing.T) {
	for _, hexStr := range []string{"40003068656c6c6f03", "40001068656c6c6f07"} {
		out, err := Decompress(mustDecodeHex(hexStr), WithStrictPadding(false))
		if err != nil {
			t.Errorf("%s: Decompress failed: %v", hexStr, err)
			continue
		}
		if string(out) != "hello" {
			t.Errorf("%s: expected %q, got %q", hexStr, "hello", out)
		}
	}
}

func TestDecompressor_MaxOutputSizeExact(t *testing.T) {
	out, err := Decompress(mustDecodeHex("40001068656c6c6f03"), WithMaxOutputSize(5))
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("expected %q, got %q", "hello", out)
	}
}

func TestDecompressor_PartialOutputOnError(t *testing.T) {
	d := NewDecompressor()
	out, err := d.Process(mustDecodeHex("40001068656c6c6f0300"), 0)
	if !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected %v, got %v", ErrTrailingData, err)
	}
	if string(out) != "hello" {
		t.Errorf("output before the error: expected %q, got %q", "hello", out)
	}

	// Errors are permanent.
	if _, err2 := d.Process(nil, 0); !errors.Is(err2, ErrTrailingData) {
		t.Errorf("second Process: expected %v, got %v", ErrTrailingData, err2)
	}
}

func TestDecompressor_AfterFinish(t *testing.T) {
	d := NewDecompressor()
	if _, err := d.Process(mustDecodeHex("3b"), 0); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !d.IsFinished() {
		t.Fatalf("IsFinished() = false after an empty stream")
	}
	if _, err := d.Process([]byte{0x3b}, 0); !errors.Is(err, ErrTrailingData) {
		t.Errorf("Process with data after the end: expected %v, got %v", ErrTrailingData, err)
	}

	d.Reset()
	if _, err := d.Process(mustDecodeHex("3b"), 0); err != nil {
		t.Fatalf("Process after Reset failed: %v", err)
	}
	if _, err := d.Process(nil, 0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Process without data after the end: expected %v, got %v", ErrInvalidState, err)
	}
}

func TestDecompressor_Events(t *testing.T) {
	input := []byte("XXXXXXXXXXYYYYYYYYYY")
	compressed := mustCompress(input, WithQuality(5))

	var events []Event
	var header Header
	d := NewDecompressor(WithTracers(
		TracerFunc(func(ev Event) { events = append(events, ev) }),
		CaptureHeader(&header),
	))
	out, err := d.Process(compressed, 0)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("expected %q, got %q", input, out)
	}

	if header.WindowBits != defaultWindowBits || header.HasDictionary {
		t.Errorf("header = %+v, expected WindowBits %d without a dictionary", header, defaultWindowBits)
	}

	if len(events) < 4 {
		t.Fatalf("only %d events", len(events))
	}
	if events[0].Type != StreamBeginEvent {
		t.Errorf("first event %v, expected %v", events[0].Type, StreamBeginEvent)
	}
	if events[1].Type != StreamHeaderEvent {
		t.Errorf("second event %v, expected %v", events[1].Type, StreamHeaderEvent)
	}
	last := events[len(events)-1]
	if last.Type != StreamEndEvent || last.Footer == nil {
		t.Fatalf("last event %v, expected %v with a footer", last.Type, StreamEndEvent)
	}
	if want := Checksum64(xxhash.Sum64(input)); last.Footer.XXH64 != want {
		t.Errorf("footer XXH64 %v, expected %v", last.Footer.XXH64, want)
	}
	if last.OutputBytesTotal != uint64(len(input)) {
		t.Errorf("OutputBytesTotal %d, expected %d", last.OutputBytesTotal, len(input))
	}

	var trees *TreesEvent
	for _, ev := range events {
		if ev.Type == MetaBlockTreesEvent {
			trees = ev.Trees
		}
	}
	if trees == nil {
		t.Fatalf("no %v", MetaBlockTreesEvent)
	}
	if trees.NumBlockTypes != [numBlockCategories]uint16{1, 1, 1} {
		t.Errorf("NumBlockTypes = %v, expected [1 1 1]", trees.NumBlockTypes)
	}
	if len(trees.LiteralSizes) != int(trees.NumLiteralTrees) {
		t.Errorf("%d literal size lists for %d trees", len(trees.LiteralSizes), trees.NumLiteralTrees)
	}
}

func TestDecompressor_MetadataIsSkipped(t *testing.T) {
	var types []MetaBlockType
	tr := TracerFunc(func(ev Event) {
		if ev.Type == MetaBlockBeginEvent {
			types = append(types, ev.MetaBlock.Type)
		}
	})
	out, err := Decompress(mustDecodeHex("2c0161626320000868656c6c6f03"), WithTracers(tr))
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("expected %q, got %q", "hello", out)
	}
	expect := []MetaBlockType{MetadataMetaBlock, UncompressedMetaBlock, EmptyMetaBlock}
	if fmt.Sprint(types) != fmt.Sprint(expect) {
		t.Errorf("metablock types %v, expected %v", types, expect)
	}
}
