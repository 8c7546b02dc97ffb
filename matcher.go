package brotli

import (
	"github.com/andybalholm/brotli/matchfinder"
	"github.com/chronos-tachyon/assert"
	buffer "github.com/chronos-tachyon/buffer/v3"
)

const (
	minMatchLength = 4

	// M0 keeps 16-bit positions and refuses larger inputs.
	maxM0ChunkSize = 1 << 16

	lz77BufferNumBits = 16
	lz77MaxWindowBits = 15
	lz77MaxLength     = 258
)

// newMatchFinder returns the backward reference search used at the
// configured quality.  The finder is primed with the custom dictionary, if
// any, so that matches may reach into it.
func newMatchFinder(cfg config) matchfinder.MatchFinder {
	maxDistance := int(cfg.wbits.MaxDistance())
	q := cfg.quality

	var mf matchfinder.MatchFinder
	switch {
	case q <= 1:
		mf = &chunkedM0{m0: matchfinder.M0{Lazy: q == 1, MaxDistance: maxDistance}}
	case q <= 4:
		mf = newHashChainMatcher(cfg)
	case q <= 9:
		mf = &matchfinder.M4{
			MaxDistance:     maxDistance,
			MinLength:       minMatchLength,
			HashLen:         5,
			TableBits:       m4TableBits(cfg.wbits),
			ChainLength:     int(q-4) * 8,
			DistanceBitCost: 57,
		}
	default:
		mf = &matchfinder.Pathfinder{
			MaxDistance: maxDistance,
			MinLength:   minMatchLength,
			HashLen:     5,
			TableBits:   m4TableBits(cfg.wbits),
			ChainLength: 32 << uint(q-10),
		}
	}
	primeMatchFinder(mf, cfg.dict)
	return mf
}

func m4TableBits(wbits WindowBits) int {
	bits := int(wbits) - 2
	if bits < 14 {
		bits = 14
	}
	if bits > 20 {
		bits = 20
	}
	return bits
}

// primeMatchFinder feeds dict through mf and throws the matches away.
// Finders without history ignore it.
func primeMatchFinder(mf matchfinder.MatchFinder, dict []byte) {
	if len(dict) == 0 {
		return
	}
	switch x := mf.(type) {
	case *matchfinder.M4, *matchfinder.Pathfinder:
		_ = x.FindMatches(nil, dict)
	case *hashChainMatcher:
		x.setDictionary(dict)
	}
}

// normalizeMatches makes sure the matches cover exactly n bytes by adding
// an unmatched tail where the finder stopped short.
func normalizeMatches(matches []matchfinder.Match, n int) []matchfinder.Match {
	total := 0
	for _, m := range matches {
		total += m.Unmatched + m.Length
	}
	assert.Assertf(total <= n, "matches cover %d bytes of a %d byte block", total, n)
	if total < n {
		matches = append(matches, matchfinder.Match{Unmatched: n - total})
	}
	return matches
}

// type chunkedM0 {{{

// chunkedM0 runs matchfinder.M0 over inputs of any size by splitting them
// into chunks it can handle.  Matches never cross a chunk boundary.
type chunkedM0 struct {
	m0 matchfinder.M0
}

func (x *chunkedM0) FindMatches(dst []matchfinder.Match, src []byte) []matchfinder.Match {
	for len(src) > 0 {
		n := minInt(len(src), maxM0ChunkSize)
		dst = x.m0.FindMatches(dst, src[:n])
		src = src[n:]
	}
	return dst
}

func (x *chunkedM0) Reset() {
	x.m0.Reset()
}

var _ matchfinder.MatchFinder = (*chunkedM0)(nil)

// }}}

// type hashChainMatcher {{{

// hashChainMatcher adapts the buffer.LZ77 hash chain search to the
// matchfinder.MatchFinder interface.
type hashChainMatcher struct {
	hybrid buffer.LZ77
	dict   []byte
}

func newHashChainMatcher(cfg config) *hashChainMatcher {
	windowNumBits := uint(cfg.wbits)
	if windowNumBits > lz77MaxWindowBits {
		windowNumBits = lz77MaxWindowBits
	}
	maxDistance := cfg.wbits.MaxDistance()
	if limit := (uint(1) << windowNumBits) - 1; maxDistance > limit {
		maxDistance = limit
	}

	x := &hashChainMatcher{}
	x.hybrid.Init(buffer.LZ77Options{
		BufferNumBits:       lz77BufferNumBits,
		WindowNumBits:       windowNumBits,
		HashNumBits:         uint(cfg.quality) + 12,
		MinMatchLength:      minMatchLength,
		MaxMatchLength:      lz77MaxLength,
		MaxMatchDistance:    maxDistance,
		HasMinMatchLength:   true,
		HasMaxMatchLength:   true,
		HasMaxMatchDistance: true,
	})
	return x
}

func (x *hashChainMatcher) setDictionary(dict []byte) {
	x.dict = dict
	x.hybrid.SetWindow(dict)
}

func (x *hashChainMatcher) FindMatches(dst []matchfinder.Match, src []byte) []matchfinder.Match {
	unmatched := 0
	for len(src) > 0 {
		nn, _ := x.hybrid.Write(src)
		src = src[nn:]

		for !x.hybrid.IsEmpty() {
			p, distance, length, found := x.hybrid.Advance()
			if !found {
				unmatched += len(p)
				continue
			}
			assert.Assertf(length >= minMatchLength, "length %d < %d", length, minMatchLength)
			assert.Assertf(distance >= 1, "distance %d < 1", distance)
			dst = append(dst, matchfinder.Match{
				Unmatched: unmatched,
				Length:    int(length),
				Distance:  int(distance),
			})
			unmatched = 0
		}
	}
	if unmatched > 0 {
		dst = append(dst, matchfinder.Match{Unmatched: unmatched})
	}
	return dst
}

func (x *hashChainMatcher) Reset() {
	x.hybrid.Clear()
	if x.dict != nil {
		x.hybrid.SetWindow(x.dict)
	}
}

var _ matchfinder.MatchFinder = (*hashChainMatcher)(nil)

// }}}
