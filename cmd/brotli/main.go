package main

import (
	_ "embed"
	"fmt"
	stdlog "log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	getopt "github.com/pborman/getopt/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chronos-tachyon/brotli"
)

//go:embed version.txt
var version string

var (
	flagVersion   = false
	flagDebug     = false
	flagTrace     = false
	flagLogStderr = false

	flagStdout     = false
	flagDecompress = false
	flagTest       = false
	flagVerify     = false
	flagForce      = false
	flagKeep       = false
	flagNoStrict   = false

	flagBest    = false
	flagFastest = false

	flagQuality   = QualityFlag{brotli.DefaultQuality}
	flagWBits     = WindowBitsFlag{brotli.DefaultWindowBits}
	flagBlockBits = BlockBitsFlag{brotli.DefaultBlockBits}
	flagMode      = ModeFlag{brotli.GenericMode}
	flagMaxOutput = SizeFlag{0}
	flagDict      = ""
	flagSuffix    = ".br"

	flagCPUProfile = ""
	flagMemProfile = ""
)

func init() {
	getopt.SetParameters("[<input>...]")

	getopt.FlagLong(&flagVersion, "version", 'V', "print version and exit")

	getopt.FlagLong(&flagDebug, "verbose", 'v', "enable debug logging")
	getopt.FlagLong(&flagTrace, "debug", 'D', "enable debug and trace logging")
	getopt.FlagLong(&flagLogStderr, "log-stderr", 'L', "log JSON to stderr")

	getopt.FlagLong(&flagCPUProfile, "cpu-profile", 0, "CPU profile output file")
	getopt.FlagLong(&flagMemProfile, "mem-profile", 0, "memory profile output file")

	getopt.FlagLong(&flagQuality, "quality", 'q', "compression quality; one of default, 0 through 11, or best").SetGroup("quality")
	getopt.FlagLong(&flagWBits, "lgwin", 'w', "base-2 logarithm of window size; one of default, or 10 through 24")
	getopt.FlagLong(&flagBlockBits, "lgblock", 0, "base-2 logarithm of input block size; one of default, or 16 through 24")
	getopt.FlagLong(&flagMode, "mode", 'M', "kind of input; one of generic, text, or font")
	getopt.FlagLong(&flagDict, "dictionary", 0, "contents of custom dictionary, or @filename")
	getopt.FlagLong(&flagMaxOutput, "max-output-size", 0, "refuse to decompress more than this many bytes per input (K, M, G suffixes allowed)")
	getopt.FlagLong(&flagNoStrict, "no-strict", 0, "accept nonzero padding bits when decompressing")
	getopt.FlagLong(&flagSuffix, "suffix", 'S', "suffix of compressed files")

	getopt.FlagLong(&flagStdout, "stdout", 'c', "write on standard output, keep original files unchanged")
	getopt.FlagLong(&flagDecompress, "decompress", 'd', "decompress")
	getopt.FlagLong(&flagTest, "test", 't', "test compressed file integrity")
	getopt.FlagLong(&flagVerify, "verify", 0, "decompress the output after compressing and compare checksums")
	getopt.FlagLong(&flagForce, "force", 'f', "force overwrite of output file and writing to a terminal")
	getopt.FlagLong(&flagKeep, "keep", 'k', "keep (don't delete) input files")

	getopt.FlagLong(&flagFastest, "fast", '0', "fastest compression").SetGroup("quality")
	getopt.FlagLong(&flagBest, "best", '9', "best compression").SetGroup("quality")
}

func main() {
	getopt.Parse()

	if flagVersion {
		fmt.Println(strings.TrimSpace(version))
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldUnit = time.Second
	zerolog.DurationFieldInteger = false
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if flagDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if flagTrace {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	switch {
	case flagLogStderr:
		// do nothing

	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)

	switch {
	case flagFastest:
		flagQuality.Value = brotli.FastestQuality
	case flagBest:
		flagQuality.Value = brotli.BestQuality
	}

	dict, err := validateFlags()
	if err != nil {
		log.Logger.Fatal().
			Err(err).
			Msg("invalid flags")
	}

	inputs, err := expandInputs(getopt.Args())
	if err != nil {
		log.Logger.Fatal().
			Err(err).
			Msg("failed to expand input patterns")
	}

	if flagCPUProfile != "" {
		f, err := os.OpenFile(flagCPUProfile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
		if err != nil {
			log.Logger.Fatal().
				Str("filename", flagCPUProfile).
				Err(err).
				Msg("os.OpenFile(O_WRONLY|O_CREATE|O_TRUNC) failed")
		}

		defer func() {
			err := f.Close()
			if err != nil {
				log.Logger.Error().
					Str("filename", flagCPUProfile).
					Err(err).
					Msg("failed to Close CPU profiling output file")
			}
		}()

		err = pprof.StartCPUProfile(f)
		if err != nil {
			log.Logger.Fatal().
				Err(err).
				Msg("pprof.StartCPUProfile failed")
		}

		defer pprof.StopCPUProfile()
	}

	var errs *multierror.Error
	for _, input := range inputs {
		if err := processInput(input, dict); err != nil {
			log.Logger.Error().
				Str("input", displayName(input)).
				Err(err).
				Msg("failed")
			errs = multierror.Append(errs, err)
		}
	}

	if flagMemProfile != "" {
		writeMemProfile()
	}

	if errs.ErrorOrNil() != nil {
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func writeMemProfile() {
	f, err := os.OpenFile(flagMemProfile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		log.Logger.Fatal().
			Str("filename", flagMemProfile).
			Err(err).
			Msg("failed to Open memory profiling output file")
	}
	err = pprof.Lookup("allocs").WriteTo(f, 0)
	if err != nil {
		_ = f.Close()
		log.Logger.Fatal().
			Str("filename", flagMemProfile).
			Err(err).
			Msg("failed to Write memory profile to output file")
	}
	err = f.Close()
	if err != nil {
		log.Logger.Fatal().
			Str("filename", flagMemProfile).
			Err(err).
			Msg("failed to Close memory profile output file")
	}
}

func compressOptions(dict []byte) []brotli.Option {
	opts := make([]brotli.Option, 5, 6)
	opts[0] = brotli.WithTracers(brotli.Log(log.Logger))
	opts[1] = brotli.WithQuality(flagQuality.Value)
	opts[2] = brotli.WithWindowBits(flagWBits.Value)
	opts[3] = brotli.WithBlockBits(flagBlockBits.Value)
	opts[4] = brotli.WithMode(flagMode.Value)
	if dict != nil {
		opts = append(opts, brotli.WithDictionary(dict))
	}
	return opts
}

func decompressOptions(dict []byte, tracers ...brotli.Tracer) []brotli.Option {
	tracers = append(tracers, brotli.Log(log.Logger))
	opts := make([]brotli.Option, 3, 4)
	opts[0] = brotli.WithTracers(tracers...)
	opts[1] = brotli.WithStrictPadding(!flagNoStrict)
	opts[2] = brotli.WithMaxOutputSize(flagMaxOutput.Value)
	if dict != nil {
		opts = append(opts, brotli.WithDictionary(dict))
	}
	return opts
}
