package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/chronos-tachyon/brotli"
)

const stdinName = "-"

// expandInputs turns the command line arguments into a list of inputs.
// Each argument is a doublestar glob; one that matches nothing is kept
// as-is so that opening it reports the problem.
func expandInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{stdinName}, nil
	}

	var inputs []string
	for _, arg := range args {
		if arg == stdinName {
			inputs = append(inputs, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		inputs = append(inputs, matches...)
	}
	return inputs, nil
}

func displayName(input string) string {
	if input == stdinName {
		return "standard input"
	}
	return input
}

func processInput(input string, dict []byte) error {
	err := processInputImpl(input, dict)
	if err != nil {
		return fmt.Errorf("%s: %w", displayName(input), err)
	}
	return nil
}

func processInputImpl(input string, dict []byte) error {
	var r io.Reader = os.Stdin
	if input != stdinName {
		fi, err := os.Stat(input)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return errors.New("is a directory")
		}
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	} else if flagDecompress && isTerminal(os.Stdin) && !flagForce {
		return errors.New("refusing to read compressed data from a terminal")
	}

	switch {
	case flagTest:
		return transform(io.Discard, r, dict)

	case flagStdout || input == stdinName:
		if !flagDecompress && isTerminal(os.Stdout) && !flagForce {
			return errors.New("refusing to write compressed data to a terminal")
		}
		return transform(os.Stdout, r, dict)
	}

	outName, err := outputName(input)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(outName); err == nil && !flagForce {
		return fmt.Errorf("output file %q already exists", outName)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outName), "."+filepath.Base(outName)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	needCleanup := true
	defer func() {
		if needCleanup {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := transform(tmp, r, dict); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, outName); err != nil {
		return err
	}
	needCleanup = false

	log.Logger.Debug().
		Str("input", input).
		Str("output", outName).
		Msg("wrote output")

	if !flagKeep {
		if err := os.Remove(input); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func outputName(input string) (string, error) {
	if !flagDecompress {
		return input + flagSuffix, nil
	}
	if !strings.HasSuffix(input, flagSuffix) || len(input) == len(flagSuffix) {
		return "", fmt.Errorf("unknown suffix; expected %q", flagSuffix)
	}
	return strings.TrimSuffix(input, flagSuffix), nil
}

func transform(w io.Writer, r io.Reader, dict []byte) error {
	if flagDecompress {
		return decompressStream(w, r, dict)
	}
	return compressStream(w, r, dict)
}

func decompressStream(w io.Writer, r io.Reader, dict []byte) error {
	var footer *brotli.FooterEvent
	tr := brotli.TracerFunc(func(ev brotli.Event) {
		if ev.Footer != nil {
			footer = ev.Footer
		}
	})

	fr := brotli.NewReader(r, decompressOptions(dict, tr)...)
	nn, err := io.Copy(w, fr)
	if err != nil {
		return err
	}
	if err := fr.Close(); err != nil {
		return err
	}

	ev := log.Logger.Debug()
	if flagTest {
		ev = log.Logger.Info()
	}
	if footer != nil {
		ev = ev.Stringer("xxh64", footer.XXH64)
	}
	ev.Int64("bytes", nn).Msg("decompressed OK")
	return nil
}

func compressStream(w io.Writer, r io.Reader, dict []byte) error {
	digest := xxhash.New()
	var vw *verifyWriter
	if flagVerify {
		vw = newVerifyWriter(dict)
		w = io.MultiWriter(w, vw)
	}

	fw := brotli.NewWriter(w, compressOptions(dict)...)
	nn, err := io.Copy(fw, io.TeeReader(r, digest))
	if err != nil {
		_ = fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}

	sum := brotli.Checksum64(digest.Sum64())
	if vw != nil {
		if err := vw.check(sum); err != nil {
			return err
		}
	}

	log.Logger.Debug().
		Int64("bytes", nn).
		Stringer("xxh64", sum).
		Msg("compressed OK")
	return nil
}

// type verifyWriter {{{

// verifyWriter decompresses everything written to it and remembers the
// checksum from the end of the stream.
type verifyWriter struct {
	d      *brotli.Decompressor
	footer *brotli.FooterEvent
}

func newVerifyWriter(dict []byte) *verifyWriter {
	vw := &verifyWriter{}
	tr := brotli.TracerFunc(func(ev brotli.Event) {
		if ev.Footer != nil {
			vw.footer = ev.Footer
		}
	})
	opts := []brotli.Option{brotli.WithTracers(tr)}
	if dict != nil {
		opts = append(opts, brotli.WithDictionary(dict))
	}
	vw.d = brotli.NewDecompressor(opts...)
	return vw
}

// Write fulfills io.Writer.
func (vw *verifyWriter) Write(p []byte) (int, error) {
	if _, err := vw.d.Process(p, 0); err != nil {
		return 0, fmt.Errorf("verify: %w", err)
	}
	return len(p), nil
}

func (vw *verifyWriter) check(sum brotli.Checksum64) error {
	if !vw.d.IsFinished() || vw.footer == nil {
		return errors.New("verify: compressed stream is incomplete")
	}
	if vw.footer.XXH64 != sum {
		return fmt.Errorf("verify: checksum mismatch: input %v, round trip %v", sum, vw.footer.XXH64)
	}
	return nil
}

var _ io.Writer = (*verifyWriter)(nil)

// }}}
