package brotli

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"testing"

	ab "github.com/andybalholm/brotli"
)

func TestWriter(t *testing.T) {
	type testRow struct {
		name    string
		quality Quality
		wbits   WindowBits
		mode    Mode
		dict    []byte
		input   []byte
	}

	smallLipsum := []byte("Lorem ipsum dolor sit amet, consectetur adipiscing elit. Donec ultrices.")
	pangram := []byte("Sphinx of black quartz, judge my vow.")
	repetitive := []byte(" abcd efgh abcd efgh efgh abcd abcd efgh ")
	repetitiveDict := []byte(" abcd efgh ")
	bigLipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	hugeLipsum := repeatToLength(bigLipsum, 300<<10)
	random := randomBytes(1, 100<<10)
	fourMegZero := make([]byte, 4<<20)

	var testData = [...]testRow{
		{
			name:    "lipsum-q11-w24",
			quality: BestQuality,
			wbits:   MaxWindowBits,
			input:   smallLipsum,
		},
		{
			name:    "lipsum-q0-w10",
			quality: FastestQuality,
			wbits:   MinWindowBits,
			input:   smallLipsum,
		},
		{
			name:    "pangram-q5",
			quality: 5,
			input:   pangram,
		},
		{
			name:    "repetitive-q1",
			quality: 1,
			input:   repetitive,
		},
		{
			name:    "repetitive-dict-q3",
			quality: 3,
			dict:    repetitiveDict,
			input:   repetitive,
		},
		{
			name:    "repetitive-dict-q7",
			quality: 7,
			dict:    repetitiveDict,
			input:   repetitive,
		},
		{
			name:    "repetitive-dict-q11",
			quality: BestQuality,
			dict:    repetitiveDict,
			input:   repetitive,
		},
		{
			name:    "big-lipsum-q4-text",
			quality: 4,
			mode:    TextMode,
			input:   bigLipsum,
		},
		{
			name:    "big-lipsum-q9",
			quality: 9,
			input:   bigLipsum,
		},
		{
			name:    "huge-lipsum-q2-w16",
			quality: 2,
			wbits:   16,
			input:   hugeLipsum,
		},
		{
			name:    "huge-lipsum-q10-w18",
			quality: 10,
			wbits:   18,
			input:   hugeLipsum,
		},
		{
			name:    "random-q6",
			quality: 6,
			input:   random,
		},
		{
			name:    "random-q11-font",
			quality: BestQuality,
			mode:    FontMode,
			input:   random,
		},
		{
			name:    "fourmegzero-q0",
			quality: FastestQuality,
			input:   fourMegZero,
		},
		{
			name:    "fourmegzero-q5-w16",
			quality: 5,
			wbits:   16,
			input:   fourMegZero,
		},
		{
			name:    "empty-q11",
			quality: BestQuality,
			input:   []byte{},
		},
	}

	fw := NewWriter(io.Discard)
	fr := NewReader(eofReader{})
	var buf bytes.Buffer

	for _, vector := range testData {
		t.Run(vector.name, func(t *testing.T) {
			buf.Reset()

			fw.Reset(
				&buf,
				WithQuality(vector.quality),
				WithWindowBits(vector.wbits),
				WithMode(vector.mode),
				WithDictionary(vector.dict),
			)

			originalSize := len(vector.input)

			nn, err := fw.Write(vector.input)
			if err != nil {
				t.Errorf("Write failed: %v", err)
				return
			}
			if nn != originalSize {
				t.Errorf("Write returned wrong length: expect %d, actual %d", originalSize, nn)
			}

			err = fw.Close()
			if err != nil {
				t.Errorf("Close failed: %v", err)
				return
			}

			compressed := append([]byte(nil), buf.Bytes()...)

			fr.Reset(
				&buf,
				WithDictionary(vector.dict),
			)

			raw, err := io.ReadAll(fr)
			if err != nil {
				t.Errorf("Read failed: %v", err)
				return
			}

			decompressedSize := len(raw)

			if originalSize != decompressedSize {
				t.Errorf("Read returned wrong length: expect %d, actual %d", originalSize, decompressedSize)
			}

			if !bytes.Equal(raw, vector.input) {
				t.Error("Read returned wrong contents" + tabify(hexDiff(vector.input, raw)))
				if len(compressed) < 256 {
					t.Log("Compressed contents are" + tabify(hexDump(compressed)))
				}
			}

			if vector.dict != nil {
				return
			}

			// Streams without a custom dictionary must also decode
			// with an independent decoder.
			ref, err := io.ReadAll(ab.NewReader(bytes.NewReader(compressed)))
			if err != nil {
				t.Errorf("reference decoder failed: %v", err)
				return
			}
			if !bytes.Equal(ref, vector.input) {
				t.Errorf("reference decoder returned wrong contents: %d bytes vs %d", len(ref), len(vector.input))
			}
		})
	}
}

func TestWriter_Flush(t *testing.T) {
	lipsum := mustReadFile(testdataFS, "testdata/lipsum.txt")
	half := len(lipsum) / 2

	var buf bytes.Buffer
	fw := NewWriter(&buf, WithQuality(6))
	if _, err := fw.Write(lipsum[:half]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := fw.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// Everything written before Flush must be decodable from the bytes
	// produced so far.
	d := NewDecompressor()
	out, err := d.Process(buf.Bytes(), 0)
	if err != nil {
		t.Fatalf("Process failed on flushed prefix: %v", err)
	}
	if !bytes.Equal(out, lipsum[:half]) {
		t.Error("flushed prefix decoded wrong" + tabify(hexDiff(lipsum[:half], out)))
	}
	if d.IsFinished() {
		t.Errorf("stream finished after Flush")
	}

	flushedLen := buf.Len()
	if _, err := fw.Write(lipsum[half:]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rest, err := d.Process(buf.Bytes()[flushedLen:], 0)
	if err != nil {
		t.Fatalf("Process failed on remainder: %v", err)
	}
	if !bytes.Equal(rest, lipsum[half:]) {
		t.Error("remainder decoded wrong" + tabify(hexDiff(lipsum[half:], rest)))
	}
	if !d.IsFinished() {
		t.Errorf("stream not finished after Close")
	}
}

func TestWriter_Close(t *testing.T) {
	var buf bytes.Buffer
	fw := NewWriter(&buf, WithWindowBits(16))
	if err := fw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x06}) {
		t.Errorf("empty stream: expected 06, got %x", buf.Bytes())
	}
	if _, err := fw.Write([]byte("x")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Write after Close: expected fs.ErrClosed, got %v", err)
	}
	if err := fw.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("second Close: expected fs.ErrClosed, got %v", err)
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriter_UnderlyingError(t *testing.T) {
	boom := errors.New("boom")
	fw := NewWriter(failingWriter{err: boom})
	if _, err := fw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write failed early: %v", err)
	}
	if err := fw.Close(); !errors.Is(err, boom) {
		t.Errorf("Close: expected %v, got %v", boom, err)
	}
}

func BenchmarkWriter(b *testing.B) {
	txt := mustReadFile(testdataFS, "testdata/lipsum.txt")
	for _, q := range []Quality{0, 5, 11} {
		b.Run(q.String(), func(b *testing.B) {
			fw := NewWriter(io.Discard, WithQuality(q))
			b.SetBytes(int64(len(txt)))
			for n := 0; n < b.N; n++ {
				fw.Reset(io.Discard)
				if _, err := fw.Write(txt); err != nil {
					b.Fatalf("Write failed: %v", err)
				}
				if err := fw.Close(); err != nil {
					b.Fatalf("Close failed: %v", err)
				}
			}
		})
	}
}
