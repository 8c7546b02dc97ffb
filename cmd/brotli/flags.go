package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	getopt "github.com/pborman/getopt/v2"

	"github.com/chronos-tachyon/brotli"
)

// type QualityFlag {{{

// QualityFlag implements getopt.Value for brotli.Quality.
type QualityFlag struct {
	Value brotli.Quality
}

// Set fulfills getopt.Value.
func (flag *QualityFlag) Set(str string, opt getopt.Option) error {
	return flag.Value.Parse(str)
}

// String fulfills getopt.Value.
func (flag QualityFlag) String() string {
	return flag.Value.String()
}

var _ getopt.Value = (*QualityFlag)(nil)

// }}}

// type WindowBitsFlag {{{

// WindowBitsFlag implements getopt.Value for brotli.WindowBits.
type WindowBitsFlag struct {
	Value brotli.WindowBits
}

// Set fulfills getopt.Value.
func (flag *WindowBitsFlag) Set(str string, opt getopt.Option) error {
	return flag.Value.Parse(str)
}

// String fulfills getopt.Value.
func (flag WindowBitsFlag) String() string {
	return flag.Value.String()
}

var _ getopt.Value = (*WindowBitsFlag)(nil)

// }}}

// type BlockBitsFlag {{{

// BlockBitsFlag implements getopt.Value for brotli.BlockBits.
type BlockBitsFlag struct {
	Value brotli.BlockBits
}

// Set fulfills getopt.Value.
func (flag *BlockBitsFlag) Set(str string, opt getopt.Option) error {
	return flag.Value.Parse(str)
}

// String fulfills getopt.Value.
func (flag BlockBitsFlag) String() string {
	return flag.Value.String()
}

var _ getopt.Value = (*BlockBitsFlag)(nil)

// }}}

// type ModeFlag {{{

// ModeFlag implements getopt.Value for brotli.Mode.
type ModeFlag struct {
	Value brotli.Mode
}

// Set fulfills getopt.Value.
func (flag *ModeFlag) Set(str string, opt getopt.Option) error {
	return flag.Value.Parse(str)
}

// String fulfills getopt.Value.
func (flag ModeFlag) String() string {
	return flag.Value.String()
}

var _ getopt.Value = (*ModeFlag)(nil)

// }}}

// type SizeFlag {{{

// SizeFlag implements getopt.Value for byte counts with an optional K, M,
// or G suffix (powers of 1024).
type SizeFlag struct {
	Value uint64
}

// Set fulfills getopt.Value.
func (flag *SizeFlag) Set(str string, opt getopt.Option) error {
	s := strings.TrimSpace(str)
	shift := uint(0)
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'k', 'K':
			shift = 10
		case 'm', 'M':
			shift = 20
		case 'g', 'G':
			shift = 30
		}
		if shift != 0 {
			s = s[:n-1]
		}
	}
	u64, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse size %q: %w", str, err)
	}
	if u64 > (^uint64(0))>>shift {
		return fmt.Errorf("size %q overflows 64 bits", str)
	}
	flag.Value = u64 << shift
	return nil
}

// String fulfills getopt.Value.
func (flag SizeFlag) String() string {
	return strconv.FormatUint(flag.Value, 10)
}

var _ getopt.Value = (*SizeFlag)(nil)

// }}}

// validateFlags checks the flag combination and loads the dictionary.  All
// problems are reported together.
func validateFlags() ([]byte, error) {
	var errlist []error

	if flagSuffix == "" {
		errlist = append(errlist, errors.New("--suffix must not be empty"))
	}
	if strings.ContainsRune(flagSuffix, os.PathSeparator) {
		errlist = append(errlist, fmt.Errorf("--suffix %q contains a path separator", flagSuffix))
	}
	if flagTest && !flagDecompress {
		flagDecompress = true
	}
	if flagTest && flagStdout {
		errlist = append(errlist, errors.New("--test and --stdout are mutually exclusive"))
	}
	if flagVerify && flagDecompress {
		errlist = append(errlist, errors.New("--verify only applies when compressing"))
	}
	if flagMaxOutput.Value != 0 && !flagDecompress {
		errlist = append(errlist, errors.New("--max-output-size only applies when decompressing"))
	}

	var dict []byte
	if flagDict != "" {
		if flagDict[0] == '@' {
			raw, err := os.ReadFile(flagDict[1:])
			if err != nil {
				errlist = append(errlist, fmt.Errorf("failed to read dictionary file %q: %w", flagDict[1:], err))
			} else if len(raw) == 0 {
				errlist = append(errlist, fmt.Errorf("dictionary file %q is empty", flagDict[1:]))
			}
			dict = raw
		} else {
			dict = []byte(flagDict)
		}
	}

	switch len(errlist) {
	case 0:
		return dict, nil
	case 1:
		return nil, errlist[0]
	default:
		return nil, &multierror.Error{Errors: errlist}
	}
}
