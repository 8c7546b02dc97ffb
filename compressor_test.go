package brotli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	ab "github.com/andybalholm/brotli"
	"github.com/cespare/xxhash/v2"
)

func referenceDecompress(compressed []byte) ([]byte, error) {
	return io.ReadAll(ab.NewReader(bytes.NewReader(compressed)))
}

func TestCompress_EmptyStream(t *testing.T) {
	type testRow struct {
		name   string
		opts   []Option
		expect string
	}

	var testData = [...]testRow{
		{"default", nil, "3b"},
		{"w16", []Option{WithWindowBits(16)}, "06"},
		{"w10", []Option{WithWindowBits(10)}, "a101"},
		{"q0", []Option{WithQuality(FastestQuality)}, "3b"},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			out, err := Compress(nil, row.opts...)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if expect := mustDecodeHex(row.expect); !bytes.Equal(out, expect) {
				t.Errorf("expected %x, got %x", expect, out)
			}
		})
	}
}

func TestCompress_RoundTrip(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")

	inputs := []struct {
		name string
		data []byte
	}{
		{"one-byte", []byte{'a'}},
		{"lipsum", repeatToLength(lipsum, 40<<10)},
		{"random", randomBytes(3, 16<<10)},
		{"zeros", make([]byte, 70<<10)},
		{"mixed", append(append(randomBytes(4, 3000), lipsum...), randomBytes(4, 3000)...)},
	}

	for q := FastestQuality; q <= BestQuality; q++ {
		for _, wbits := range []WindowBits{MinWindowBits, 16, defaultWindowBits, MaxWindowBits} {
			for _, in := range inputs {
				name := fmt.Sprintf("%s/%v/%s", q, wbits, in.name)
				t.Run(name, func(t *testing.T) {
					compressed := mustCompress(in.data, WithQuality(q), WithWindowBits(wbits))

					got, err := Decompress(compressed)
					if err != nil {
						t.Fatalf("Decompress failed: %v", err)
					}
					if !bytes.Equal(got, in.data) {
						t.Fatalf("Decompress returned wrong contents: %d bytes vs %d", len(got), len(in.data))
					}

					ref, err := referenceDecompress(compressed)
					if err != nil {
						t.Fatalf("reference decoder failed: %v", err)
					}
					if !bytes.Equal(ref, in.data) {
						t.Errorf("reference decoder returned wrong contents: %d bytes vs %d", len(ref), len(in.data))
					}
				})
			}
		}
	}
}

func TestCompress_Shrinks(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	for _, q := range []Quality{0, 1, 4, 5, 9, 11} {
		compressed := mustCompress(lipsum, WithQuality(q))
		if len(compressed) >= len(lipsum)*3/4 {
			t.Errorf("%v: %d bytes compressed to %d", q, len(lipsum), len(compressed))
		}
	}

	// Incompressible data falls back to uncompressed metablocks.
	random := randomBytes(5, 10000)
	compressed := mustCompress(random, WithQuality(BestQuality))
	if len(compressed) > len(random)+16 {
		t.Errorf("random: %d bytes expanded to %d", len(random), len(compressed))
	}
}

func TestCompressor_ChunkedProcess(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	input := repeatToLength(lipsum, 150<<10)

	for _, q := range []Quality{1, 5, 10} {
		t.Run(q.String(), func(t *testing.T) {
			oneShot := mustCompress(input, WithQuality(q))

			c := NewCompressor(WithQuality(q))
			var chunked []byte
			for i := 0; i < len(input); i += 1000 {
				out, err := c.Process(input[i:minInt(i+1000, len(input))])
				if err != nil {
					t.Fatalf("Process failed: %v", err)
				}
				chunked = append(chunked, out...)
			}
			tail, err := c.Finish()
			if err != nil {
				t.Fatalf("Finish failed: %v", err)
			}
			chunked = append(chunked, tail...)

			if !bytes.Equal(chunked, oneShot) {
				t.Errorf("chunked output differs from one-shot output: %d bytes vs %d", len(chunked), len(oneShot))
			}
		})
	}
}

func TestCompressor_Flush(t *testing.T) {
	c := NewCompressor(WithQuality(5))
	d := NewDecompressor()

	var all []byte
	parts := [][]byte{[]byte("Sphinx of black quartz, "), []byte("judge my vow. "), []byte("Sphinx of black quartz!")}
	for i, part := range parts {
		if _, err := c.Process(part); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		flushed, err := c.Flush()
		if err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		out, err := d.Process(flushed, 0)
		if err != nil {
			t.Fatalf("part %d: Process failed: %v", i, err)
		}
		if !bytes.Equal(out, part) {
			t.Errorf("part %d: expected %q, got %q", i, part, out)
		}
		all = append(all, flushed...)
	}

	tail, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if _, err := d.Process(tail, 0); err != nil {
		t.Fatalf("Process failed on tail: %v", err)
	}
	if !d.IsFinished() {
		t.Errorf("decoder not finished after Finish")
	}

	all = append(all, tail...)
	ref, err := referenceDecompress(all)
	if err != nil {
		t.Fatalf("reference decoder failed: %v", err)
	}
	if expect := bytes.Join(parts, nil); !bytes.Equal(ref, expect) {
		t.Errorf("reference decoder: expected %q, got %q", expect, ref)
	}
}

func TestCompressor_AfterFinish(t *testing.T) {
	c := NewCompressor()
	if _, err := c.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if !c.IsFinished() {
		t.Errorf("IsFinished() = false after Finish")
	}
	if _, err := c.Process([]byte("x")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Process after Finish: expected %v, got %v", ErrInvalidState, err)
	}
	if _, err := c.Flush(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Flush after Finish: expected %v, got %v", ErrInvalidState, err)
	}
	if _, err := c.Finish(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Finish after Finish: expected %v, got %v", ErrInvalidState, err)
	}

	c.Reset(WithWindowBits(16))
	out, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish after Reset failed: %v", err)
	}
	if !bytes.Equal(out, []byte{0x06}) {
		t.Errorf("expected 06, got %x", out)
	}
}

func TestCompressor_Events(t *testing.T) {
	input := []byte("XXXXXXXXXXYYYYYYYYYY")

	var events []Event
	c := NewCompressor(WithQuality(5), WithTracers(TracerFunc(func(ev Event) { events = append(events, ev) })))
	if _, err := c.Process(input); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if _, err := c.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	var types []EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	expect := []EventType{
		StreamBeginEvent,
		StreamHeaderEvent,
		MetaBlockBeginEvent,
		MetaBlockTreesEvent,
		MetaBlockEndEvent,
		StreamEndEvent,
	}
	if fmt.Sprint(types) != fmt.Sprint(expect) {
		t.Fatalf("event types %v, expected %v", types, expect)
	}

	if h := events[1].Header; h == nil || h.WindowBits != defaultWindowBits {
		t.Errorf("header event %+v, expected WindowBits %d", h, defaultWindowBits)
	}
	trees := events[3].Trees
	if trees.NumBlockTypes != [numBlockCategories]uint16{1, 1, 1} {
		t.Errorf("NumBlockTypes = %v, expected [1 1 1]", trees.NumBlockTypes)
	}
	end := events[5]
	if want := Checksum64(xxhash.Sum64(input)); end.Footer == nil || end.Footer.XXH64 != want {
		t.Errorf("footer %+v, expected XXH64 %v", end.Footer, want)
	}
	if end.InputBytesTotal != uint64(len(input)) {
		t.Errorf("InputBytesTotal %d, expected %d", end.InputBytesTotal, len(input))
	}
	if end.NumMetaBlocks != 1 {
		t.Errorf("NumMetaBlocks %d, expected 1", end.NumMetaBlocks)
	}
}

func TestCompressor_Dictionary(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	dict := lipsum[:1500]
	input := lipsum[:1400]

	for _, q := range []Quality{2, 5, 10} {
		t.Run(q.String(), func(t *testing.T) {
			withDict := mustCompress(input, WithQuality(q), WithDictionary(dict))
			without := mustCompress(input, WithQuality(q))
			if len(withDict)*2 >= len(without) {
				t.Errorf("dictionary did not help: %d bytes with, %d without", len(withDict), len(without))
			}

			got, err := Decompress(withDict, WithDictionary(dict))
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(got, input) {
				t.Error("Decompress returned wrong contents" + tabify(hexDiff(input, got)))
			}
		})
	}
}

func TestTreesEvent_EncoderMatchesDecoder(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")

	type testRow struct {
		name    string
		input   []byte
		quality Quality
	}

	testData := [...]testRow{
		{"XY", []byte("XXXXXXXXXXYYYYYYYYYY"), 5},
		{"lipsum", lipsum, 2},
		{"lipsum", lipsum, 5},
	}

	for _, row := range testData {
		input, q := row.input, row.quality
		t.Run(fmt.Sprintf("%s/%v", row.name, q), func(t *testing.T) {
			var encoded, decoded []*TreesEvent
			capture := func(list *[]*TreesEvent) Tracer {
				return TracerFunc(func(ev Event) {
					if ev.Type == MetaBlockTreesEvent {
						*list = append(*list, ev.Trees)
					}
				})
			}

			compressed, err := Compress(input, WithQuality(q), WithTracers(capture(&encoded)))
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if _, err := Decompress(compressed, WithTracers(capture(&decoded))); err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}

			if len(encoded) == 0 || len(encoded) != len(decoded) {
				t.Fatalf("%d trees events from the encoder, %d from the decoder", len(encoded), len(decoded))
			}
			for i := range encoded {
				a, b := encoded[i], decoded[i]
				if a.NumBlockTypes != b.NumBlockTypes || a.NumLiteralTrees != b.NumLiteralTrees || a.NumDistanceTrees != b.NumDistanceTrees {
					t.Errorf("metablock %d: tree counts differ: %+v vs %+v", i, a, b)
				}
				compareSizeLists(t, fmt.Sprintf("metablock %d literal", i), a.LiteralSizes, b.LiteralSizes)
				compareSizeLists(t, fmt.Sprintf("metablock %d command", i), a.CommandSizes, b.CommandSizes)
				compareSizeLists(t, fmt.Sprintf("metablock %d distance", i), a.DistanceSizes, b.DistanceSizes)
			}
		})
	}
}

func compareSizeLists(t *testing.T, what string, a []SizeList, b []SizeList) {
	t.Helper()
	if len(a) != len(b) {
		t.Errorf("%s: %d codes from the encoder, %d from the decoder", what, len(a), len(b))
		return
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			t.Errorf("%s code %d: sizes differ%s", what, i, tabify(hexDiff(a[i], b[i])))
		}
	}
}

func TestCompressor_DistanceParams(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	input := append(repeatToLength(lipsum, 20000), randomBytes(6, 2000)...)
	input = append(input, lipsum...)

	testData := [...]distanceParams{
		{npostfix: 0, ndirect: 0},
		{npostfix: 0, ndirect: 15},
		{npostfix: 1, ndirect: 2},
		{npostfix: 2, ndirect: 60},
		{npostfix: 3, ndirect: 120},
		{npostfix: 3, ndirect: 0},
	}

	for _, dp := range testData {
		t.Run(fmt.Sprintf("np%d-nd%d", dp.npostfix, dp.ndirect), func(t *testing.T) {
			var trees []*TreesEvent
			tr := TracerFunc(func(ev Event) {
				if ev.Type == MetaBlockTreesEvent {
					trees = append(trees, ev.Trees)
				}
			})
			compressed := mustCompress(input, WithQuality(5), withDistanceParams(dp.npostfix, dp.ndirect), WithTracers(tr))

			if len(trees) == 0 {
				t.Fatalf("no compressed metablocks")
			}
			for _, ev := range trees {
				if uint(ev.NPostfix) != dp.npostfix || uint(ev.NDirect) != dp.ndirect {
					t.Errorf("metablock uses NPOSTFIX=%d NDIRECT=%d", ev.NPostfix, ev.NDirect)
				}
			}

			ref, err := referenceDecompress(compressed)
			if err != nil {
				t.Fatalf("reference decoder failed: %v", err)
			}
			if !bytes.Equal(ref, input) {
				t.Errorf("reference decoder returned wrong contents: %d bytes vs %d", len(ref), len(input))
			}
		})
	}
}

func BenchmarkCompress(b *testing.B) {
	txt := repeatToLength(mustReadFile(testdataFS, "testdata/lipsum.txt"), 1<<20)
	for _, q := range []Quality{0, 1, 4, 5, 9, 11} {
		b.Run(q.String(), func(b *testing.B) {
			b.SetBytes(int64(len(txt)))
			for n := 0; n < b.N; n++ {
				if _, err := Compress(txt, WithQuality(q)); err != nil {
					b.Fatalf("Compress failed: %v", err)
				}
			}
		})
	}
}
