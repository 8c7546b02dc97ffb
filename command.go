package brotli

import (
	"fmt"

	"github.com/andybalholm/brotli/matchfinder"
	"github.com/chronos-tachyon/assert"

	"github.com/chronos-tachyon/brotli/internal/dictionary"
)

const (
	// minDictionaryMatch is the shortest static dictionary word the
	// Compressor will reference instead of sending literals.
	minDictionaryMatch = 6

	// identityTransform and spaceSuffixTransform are the only dictionary
	// transforms the Compressor produces.
	identityTransform    = 0
	spaceSuffixTransform = 1

	// insertOnlyCopyCode is the copy length code sent with the final
	// command of a metablock, whose copy is never performed.
	insertOnlyCopyCode = 2
)

// command is one insert-and-copy step of a compressed metablock:
// insertLen literals, then outputLen bytes copied from distance bytes back
// or, for a static dictionary reference, produced by a transformed word.
//
// A command with copyLen 0 only inserts.  It can only be the last command
// of a metablock.
type command struct {
	insertLen  uint32
	copyLen    uint32
	distance   uint32
	outputLen  uint32
	shortCode  int8
	dictionary bool
}

func makeCopyCommand(insertLen uint32, copyLen uint32, distance uint32) command {
	assert.Assertf(copyLen >= 2, "copy length %d < minimum 2", copyLen)
	assert.Assertf(distance >= 1, "copy distance %d < minimum 1", distance)
	return command{
		insertLen: insertLen,
		copyLen:   copyLen,
		distance:  distance,
		outputLen: copyLen,
		shortCode: -1,
	}
}

func makeDictionaryCommand(insertLen uint32, wordLen int, distance uint32, outputLen int) command {
	assert.Assertf(wordLen >= dictionary.MinWordLength, "word length %d < minimum %d", wordLen, dictionary.MinWordLength)
	assert.Assertf(wordLen <= dictionary.MaxWordLength, "word length %d > maximum %d", wordLen, dictionary.MaxWordLength)
	return command{
		insertLen:  insertLen,
		copyLen:    uint32(wordLen),
		distance:   distance,
		outputLen:  uint32(outputLen),
		shortCode:  -1,
		dictionary: true,
	}
}

func makeInsertCommand(insertLen uint32) command {
	assert.Assertf(insertLen >= 1, "insert length %d < minimum 1", insertLen)
	return command{insertLen: insertLen, shortCode: -1}
}

func (c command) isInsertOnly() bool {
	return c.copyLen == 0
}

func (c command) insertCode() int {
	return insertCodeFor(c.insertLen)
}

func (c command) copyCode() int {
	if c.isInsertOnly() {
		return insertOnlyCopyCode
	}
	return copyCodeFor(c.copyLen)
}

// implicitDistance returns true if the command symbol itself carries
// distance code 0, so that no distance symbol follows.
func (c command) implicitDistance() bool {
	if !c.isInsertOnly() && c.shortCode != 0 {
		return false
	}
	return canUseImplicitCell(c.insertCode(), c.copyCode())
}

// hasDistanceSymbol returns true if a distance symbol follows the
// command's literals.
func (c command) hasDistanceSymbol() bool {
	return !c.isInsertOnly() && !c.implicitDistance()
}

func (c command) symbol() int {
	return encodeCommandSymbol(c.insertCode(), c.copyCode(), c.implicitDistance())
}

// distanceSymbol returns the distance code and extra bits for the command
// under the given distance parameters.
func (c command) distanceSymbol(dp distanceParams) (code int, nbits byte, extra uint32) {
	if c.shortCode >= 0 {
		return int(c.shortCode), 0, 0
	}
	return dp.encode(uint(c.distance))
}

func (c command) distanceContext() int {
	return distanceContext(c.copyLen)
}

func (c command) writeLengthExtras(bw bitwriter) {
	ic := insertLengthCodes[c.insertCode()]
	bw.outputBitsWrite(ic.extra, block(c.insertLen-ic.base))
	if c.isInsertOnly() {
		return
	}
	cc := copyLengthCodes[c.copyCode()]
	bw.outputBitsWrite(cc.extra, block(c.copyLen-cc.base))
}

func (c command) String() string {
	sb := takeStringsBuilder()
	defer giveStringsBuilder(sb)

	fmt.Fprintf(sb, "[command: insert=%d", c.insertLen)
	switch {
	case c.isInsertOnly():
		// pass
	case c.dictionary:
		fmt.Fprintf(sb, " word=%d distance=%d output=%d", c.copyLen, c.distance, c.outputLen)
	default:
		fmt.Fprintf(sb, " copy=%d distance=%d", c.copyLen, c.distance)
	}
	if c.shortCode >= 0 {
		fmt.Fprintf(sb, " short=%d", c.shortCode)
	}
	sb.WriteString("]")
	return sb.String()
}

// type commandBuilder {{{

// commandBuilder turns the matches for one metablock into commands.  It
// tracks the distance cache the decoder will have, so the caller must
// only keep the updated cache if the commands are actually sent.
type commandBuilder struct {
	data          []byte
	pos           uint64
	maxBackward   uint
	useDictionary bool
	cache         distanceCache

	commands []command
	pending  uint32
	i        int
}

// maxDistanceAt returns the largest distance that still refers to
// earlier stream data at offset i of the metablock.
func (cb *commandBuilder) maxDistanceAt(i int) uint {
	pos := cb.pos + uint64(i)
	if pos < uint64(cb.maxBackward) {
		return uint(pos)
	}
	return cb.maxBackward
}

func (cb *commandBuilder) build(matches []matchfinder.Match) []command {
	for _, m := range matches {
		if m.Unmatched > 0 {
			cb.literals(m.Unmatched)
		}
		if m.Length > 0 {
			cb.backReference(uint32(m.Length), uint32(m.Distance))
		}
	}
	assert.Assertf(cb.i == len(cb.data), "commands cover %d bytes of a %d byte block", cb.i, len(cb.data))
	if cb.pending > 0 {
		cb.commands = append(cb.commands, makeInsertCommand(cb.pending))
		cb.pending = 0
	}
	return cb.commands
}

// literals accounts for n unmatched bytes, replacing runs of them with
// static dictionary words where the dictionary is enabled.
func (cb *commandBuilder) literals(n int) {
	end := cb.i + n
	for cb.useDictionary && end-cb.i >= minDictionaryMatch {
		wordLen, wordIndex, ok := dictionary.Lookup(cb.data[cb.i:end])
		if !ok || wordLen < minDictionaryMatch {
			cb.pending++
			cb.i++
			continue
		}

		transform := identityTransform
		outputLen := wordLen
		if cb.i+wordLen < end && cb.data[cb.i+wordLen] == ' ' {
			transform = spaceSuffixTransform
			outputLen++
		}
		address := uint(wordIndex) | uint(transform)<<dictionary.SizeBits(wordLen)
		distance := cb.maxDistanceAt(cb.i) + 1 + address

		cb.commands = append(cb.commands, makeDictionaryCommand(cb.pending, wordLen, uint32(distance), outputLen))
		cb.pending = 0
		cb.i += outputLen
	}
	cb.pending += uint32(end - cb.i)
	cb.i = end
}

func (cb *commandBuilder) backReference(length uint32, distance uint32) {
	assert.Assertf(uint(distance) <= cb.maxDistanceAt(cb.i), "distance %d reaches before the start of the stream at offset %d", distance, cb.i)

	cmd := makeCopyCommand(cb.pending, length, distance)
	d := int(distance)
	switch code, found := cb.cache.find(d); {
	case found && code == 0:
		cmd.shortCode = 0
	case found:
		cmd.shortCode = int8(code)
		cb.cache.push(d)
	default:
		cb.cache.push(d)
	}
	cb.commands = append(cb.commands, cmd)
	cb.pending = 0
	cb.i += int(length)
}

// }}}
