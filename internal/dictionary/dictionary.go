// Package dictionary holds the static dictionary of the Brotli format and
// its word transforms.  Everything here is read-only and shared by every
// stream in the process.
package dictionary

import (
	_ "embed"
	"sync"
)

const (
	// MinWordLength and MaxWordLength bound the lengths that have words.
	MinWordLength = 4
	MaxWordLength = 24

	// NumTransforms is the number of word transforms.
	NumTransforms = 121

	// Size is the length of the dictionary data in bytes.
	Size = 122784
)

//go:embed dictionary.bin
var data []byte

var offsetsByLength = [MaxWordLength + 2]uint32{
	0, 0, 0, 0, 0, 4096, 9216, 21504, 35840, 44032,
	53248, 63488, 74752, 87040, 93696, 100864, 104704, 106752, 108928, 113536,
	115968, 118528, 119872, 121280, 122016, 122784,
}

var sizeBitsByLength = [MaxWordLength + 1]uint{
	0, 0, 0, 0, 10, 10, 11, 11, 10, 10,
	10, 10, 10, 9, 9, 8, 7, 7, 8, 7,
	7, 6, 6, 5, 5,
}

// SizeBits returns log2 of the number of words of the given length, or 0
// if there are none.
func SizeBits(length int) uint {
	if length < MinWordLength || length > MaxWordLength {
		return 0
	}
	return sizeBitsByLength[length]
}

// NumWords returns the number of words of the given length.
func NumWords(length int) int {
	bits := SizeBits(length)
	if bits == 0 {
		return 0
	}
	return 1 << bits
}

// Word returns word number index of the given length.  The result aliases
// the dictionary and must not be modified.
func Word(length int, index int) []byte {
	start := int(offsetsByLength[length]) + index*length
	return data[start : start+length : start+length]
}

type kind byte

const (
	identity kind = iota
	omitLast1
	omitLast2
	omitLast3
	omitLast4
	omitLast5
	omitLast6
	omitLast7
	omitLast8
	omitLast9
	upperFirst
	upperAll
	omitFirst1
	omitFirst2
	omitFirst3
	omitFirst4
	omitFirst5
	omitFirst6
	omitFirst7
	omitFirst8
	omitFirst9
)

type transform struct {
	prefix string
	kind   kind
	suffix string
}

var transforms = [NumTransforms]transform{
	{"", identity, ""},
	{"", identity, " "},
	{" ", identity, " "},
	{"", omitFirst1, ""},
	{"", upperFirst, " "},
	{"", identity, " the "},
	{" ", identity, ""},
	{"s ", identity, " "},
	{"", identity, " of "},
	{"", upperFirst, ""},
	{"", identity, " and "},
	{"", omitFirst2, ""},
	{"", omitLast1, ""},
	{", ", identity, " "},
	{"", identity, ", "},
	{" ", upperFirst, " "},
	{"", identity, " in "},
	{"", identity, " to "},
	{"e ", identity, " "},
	{"", identity, "\""},
	{"", identity, "."},
	{"", identity, "\">"},
	{"", identity, "\n"},
	{"", omitLast3, ""},
	{"", identity, "]"},
	{"", identity, " for "},
	{"", omitFirst3, ""},
	{"", omitLast2, ""},
	{"", identity, " a "},
	{"", identity, " that "},
	{" ", upperFirst, ""},
	{"", identity, ". "},
	{".", identity, ""},
	{" ", identity, ", "},
	{"", omitFirst4, ""},
	{"", identity, " with "},
	{"", identity, "'"},
	{"", identity, " from "},
	{"", identity, " by "},
	{"", omitFirst5, ""},
	{"", omitFirst6, ""},
	{" the ", identity, ""},
	{"", omitLast4, ""},
	{"", identity, ". The "},
	{"", upperAll, ""},
	{"", identity, " on "},
	{"", identity, " as "},
	{"", identity, " is "},
	{"", omitLast7, ""},
	{"", omitLast1, "ing "},
	{"", identity, "\n\t"},
	{"", identity, ":"},
	{" ", identity, ". "},
	{"", identity, "ed "},
	{"", omitFirst9, ""},
	{"", omitFirst7, ""},
	{"", omitLast6, ""},
	{"", identity, "("},
	{"", upperFirst, ", "},
	{"", omitLast8, ""},
	{"", identity, " at "},
	{"", identity, "ly "},
	{" the ", identity, " of "},
	{"", omitLast5, ""},
	{"", omitLast9, ""},
	{" ", upperFirst, ", "},
	{"", upperFirst, "\""},
	{".", identity, "("},
	{"", upperAll, " "},
	{"", upperFirst, "\">"},
	{"", identity, "=\""},
	{" ", identity, "."},
	{".com/", identity, ""},
	{" the ", identity, " of the "},
	{"", upperFirst, "'"},
	{"", identity, ". This "},
	{"", identity, ","},
	{".", identity, " "},
	{"", upperFirst, "("},
	{"", upperFirst, "."},
	{"", identity, " not "},
	{" ", identity, "=\""},
	{"", identity, "er "},
	{" ", upperAll, " "},
	{"", identity, "al "},
	{" ", upperAll, ""},
	{"", identity, "='"},
	{"", upperAll, "\""},
	{"", upperFirst, ". "},
	{" ", identity, "("},
	{"", identity, "ful "},
	{" ", upperFirst, ". "},
	{"", identity, "ive "},
	{"", identity, "less "},
	{"", upperAll, "'"},
	{"", identity, "est "},
	{" ", upperFirst, "."},
	{"", upperAll, "\">"},
	{" ", identity, "='"},
	{"", upperFirst, ","},
	{"", identity, "ize "},
	{"", upperAll, "."},
	{"\xc2\xa0", identity, ""},
	{" ", identity, ","},
	{"", upperFirst, "=\""},
	{"", upperAll, "=\""},
	{"", identity, "ous "},
	{"", upperAll, ", "},
	{"", upperFirst, "='"},
	{" ", upperFirst, ","},
	{" ", upperAll, "=\""},
	{" ", upperAll, ", "},
	{"", upperAll, ","},
	{"", upperAll, "("},
	{"", upperAll, ". "},
	{" ", upperAll, "."},
	{"", upperAll, "='"},
	{" ", upperAll, ". "},
	{" ", upperFirst, "=\""},
	{" ", upperAll, "='"},
	{" ", upperFirst, "='"},
}

// Transform appends word, with transform id applied, to dst.
func Transform(dst []byte, word []byte, id int) []byte {
	t := &transforms[id]
	dst = append(dst, t.prefix...)

	switch {
	case t.kind >= omitFirst1:
		skip := int(t.kind-omitFirst1) + 1
		if skip > len(word) {
			skip = len(word)
		}
		dst = append(dst, word[skip:]...)
	case t.kind >= omitLast1 && t.kind <= omitLast9:
		cut := int(t.kind-omitLast1) + 1
		if cut > len(word) {
			cut = len(word)
		}
		dst = append(dst, word[:len(word)-cut]...)
	default:
		start := len(dst)
		dst = append(dst, word...)
		switch t.kind {
		case upperFirst:
			toUpper(dst[start:])
		case upperAll:
			for p := dst[start:]; len(p) > 0; {
				p = p[toUpper(p):]
			}
		}
	}

	return append(dst, t.suffix...)
}

// toUpper uppercases the character at the start of p in the manner of the
// format, which treats multi-byte sequences by flipping fixed bits, and
// returns the number of bytes it covered.
func toUpper(p []byte) int {
	switch {
	case p[0] < 0xc0:
		if p[0] >= 'a' && p[0] <= 'z' {
			p[0] ^= 32
		}
		return 1
	case p[0] < 0xe0:
		if len(p) < 2 {
			return len(p)
		}
		p[1] ^= 32
		return 2
	default:
		if len(p) < 3 {
			return len(p)
		}
		p[2] ^= 5
		return 3
	}
}

var (
	indexOnce sync.Once
	index     [MaxWordLength + 1]map[string]int
)

func buildIndex() {
	for length := MinWordLength; length <= MaxWordLength; length++ {
		n := NumWords(length)
		m := make(map[string]int, n)
		for i := 0; i < n; i++ {
			w := string(Word(length, i))
			if _, found := m[w]; !found {
				m[w] = i
			}
		}
		index[length] = m
	}
}

// Lookup finds the longest word that is a prefix of p, returning its length
// and index.
func Lookup(p []byte) (length int, wordIndex int, ok bool) {
	indexOnce.Do(buildIndex)
	max := len(p)
	if max > MaxWordLength {
		max = MaxWordLength
	}
	for length = max; length >= MinWordLength; length-- {
		if i, found := index[length][string(p[:length])]; found {
			return length, i, true
		}
	}
	return 0, 0, false
}
