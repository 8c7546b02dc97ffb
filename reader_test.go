package brotli

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"testing"
	"testing/iotest"

	ab "github.com/andybalholm/brotli"
)

// referenceCompress compresses p with an independent Brotli encoder.
func referenceCompress(p []byte, level int) []byte {
	var buf bytes.Buffer
	w := ab.NewWriterLevel(&buf, level)
	if _, err := w.Write(p); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func mustCompress(p []byte, opts ...Option) []byte {
	out, err := Compress(p, opts...)
	if err != nil {
		panic(err)
	}
	return out
}

func TestReader(t *testing.T) {
	type testRow struct {
		name         string
		dict         []byte
		compressed   []byte
		decompressed []byte
	}

	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	pangram := []byte("Sphinx of black quartz, judge my vow.")
	repetitive := []byte(" abcd efgh abcd efgh efgh abcd abcd efgh ")

	var testData = [...]testRow{
		{
			name:         "empty-w22",
			compressed:   mustDecodeHex("3b"),
			decompressed: []byte{},
		},
		{
			name:         "empty-w16",
			compressed:   mustDecodeHex("06"),
			decompressed: []byte{},
		},
		{
			name:         "empty-w10",
			compressed:   mustDecodeHex("a101"),
			decompressed: []byte{},
		},
		{
			name:         "uncompressed-hello",
			compressed:   mustDecodeHex("40001068656c6c6f03"),
			decompressed: []byte("hello"),
		},
		{
			name:         "metadata-then-hello",
			compressed:   mustDecodeHex("2c0161626320000868656c6c6f03"),
			decompressed: []byte("hello"),
		},
		{
			name:         "pangram-reference-q5",
			compressed:   referenceCompress(pangram, 5),
			decompressed: pangram,
		},
		{
			name:         "repetitive-reference-q11",
			compressed:   referenceCompress(repetitive, 11),
			decompressed: repetitive,
		},
		{
			name:         "lipsum-reference-q0",
			compressed:   referenceCompress(lipsum, 0),
			decompressed: lipsum,
		},
		{
			name:         "lipsum-reference-q6",
			compressed:   referenceCompress(lipsum, 6),
			decompressed: lipsum,
		},
		{
			name:         "lipsum-reference-q11",
			compressed:   referenceCompress(lipsum, 11),
			decompressed: lipsum,
		},
		{
			name:         "repetitive-dict",
			dict:         []byte(" abcd efgh "),
			compressed:   mustCompress(repetitive, WithDictionary([]byte(" abcd efgh "))),
			decompressed: repetitive,
		},
	}

	for _, vector := range testData {
		t.Run(vector.name, func(t *testing.T) {
			r := NewReader(
				bytes.NewReader(vector.compressed),
				WithDictionary(vector.dict),
			)

			output, err := io.ReadAll(r)
			if err != nil {
				t.Errorf("Read failed: %v", err)
				return
			}

			actual := output
			expect := vector.decompressed
			if !bytes.Equal(actual, expect) {
				actualLen := uint(len(actual))
				expectLen := uint(len(expect))

				minLen := actualLen
				maxLen := actualLen
				if minLen > expectLen {
					minLen = expectLen
				}
				if maxLen < expectLen {
					maxLen = expectLen
				}

				hasFirst := false
				var first uint
				var count uint
				for index := uint(0); index < minLen; index++ {
					if actual[index] == expect[index] {
						continue
					}
					if !hasFirst {
						hasFirst = true
						first = index
					}
					count++
				}

				if !hasFirst {
					first = minLen
				}
				count += (maxLen - minLen)

				t.Errorf("unexpected diff: first change at offset %d, %d bytes changed, lengths %d vs %d", first, count, actualLen, expectLen)
				if maxLen < 32 {
					t.Logf("expect: %s", hex.EncodeToString(expect))
					t.Logf("actual: %s", hex.EncodeToString(actual))
				}
			}
		})
	}
}

func TestReader_OneByteReads(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	compressed := referenceCompress(lipsum, 11)

	r := NewReader(iotest.OneByteReader(bytes.NewReader(compressed)))
	var out []byte
	var p [7]byte
	for {
		n, err := r.Read(p[:])
		out = append(out, p[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed after %d bytes: %v", len(out), err)
		}
	}
	if !bytes.Equal(out, lipsum) {
		t.Error("wrong output" + tabify(hexDiff(lipsum, out)))
	}
}

func TestReader_Errors(t *testing.T) {
	type testRow struct {
		name       string
		compressed []byte
		expect     error
	}

	var testData = [...]testRow{
		{
			name:       "truncated",
			compressed: mustDecodeHex("4000106865"),
			expect:     ErrTruncatedInput,
		},
		{
			name:       "empty-input",
			compressed: []byte{},
			expect:     ErrTruncatedInput,
		},
		{
			name:       "trailing",
			compressed: mustDecodeHex("40001068656c6c6f0300"),
			expect:     ErrTrailingData,
		},
		{
			name:       "reserved-wbits",
			compressed: mustDecodeHex("11"),
			expect:     ErrInvalidParameter,
		},
		{
			name:       "nonzero-padding",
			compressed: mustDecodeHex("40003068656c6c6f03"),
			expect:     ErrInvalidParameter,
		},
	}

	for _, vector := range testData {
		t.Run(vector.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(vector.compressed))
			_, err := io.ReadAll(r)
			if !errors.Is(err, vector.expect) {
				t.Errorf("wrong error: expected %v, got %v", vector.expect, err)
			}
		})
	}
}

func TestReader_Close(t *testing.T) {
	r := NewReader(bytes.NewReader(mustDecodeHex("3b")))
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := r.Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Read after Close: expected fs.ErrClosed, got %v", err)
	}

	r.Reset(bytes.NewReader(mustDecodeHex("40001068656c6c6f03")))
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Read after Reset failed: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Read after Reset: expected %q, got %q", "hello", out)
	}
}

func BenchmarkReader(b *testing.B) {
	txt := mustReadFile(testdataFS, "testdata/lipsum.txt")
	raw := referenceCompress(txt, 11)
	r := NewReader(eofReader{})
	for n := 0; n < b.N; n++ {
		src := bytes.NewReader(raw)
		r.Reset(src)
		nn, err := io.Copy(io.Discard, r)
		if err != nil {
			b.Fatalf("io.Copy failed: %v", err)
		}
		if nn != int64(len(txt)) {
			b.Errorf("wrong length: expected %d, got %d", len(txt), nn)
		}
	}
}
