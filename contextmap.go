package brotli

import (
	"github.com/chronos-tachyon/assert"
)

const maxRunLengthPrefix = 6

// readContextMap reads a context map of size entries whose values are tree
// indices below numTrees.  numTrees must be at least 2; with a single tree
// the map is all zeros and is not transmitted.
func readContextMap(br *bitReader, size int, numTrees int) ([]byte, error) {
	rleMax := 0
	if br.readBool() {
		rleMax = int(br.read(4)) + 1
	}

	var pd prefixDecoder
	if err := readPrefixCode(br, numTrees+rleMax, &pd); err != nil || br.short {
		return nil, err
	}

	cmap := make([]byte, size)
	for i := 0; i < size; {
		code, ok := pd.decode(br)
		if br.short {
			return nil, nil
		}
		if !ok {
			return nil, formatErrorf(InvalidPrefixCode, 0, "no context map codeword matches the input")
		}

		switch {
		case code == 0:
			cmap[i] = 0
			i++
		case code <= rleMax:
			reps := (1 << uint(code)) + int(br.read(byte(code)))
			if i+reps > size {
				return nil, formatErrorf(InvalidParameter, 0, "context map zero run of %d overruns map size %d at entry %d", reps, size, i)
			}
			for j := 0; j < reps; j++ {
				cmap[i] = 0
				i++
			}
		default:
			cmap[i] = byte(code - rleMax)
			i++
		}
	}

	if br.readBool() {
		inverseMoveToFront(cmap)
	}
	return cmap, nil
}

// writeContextMap writes cmap for numTrees trees.  The map is always sent
// through move-to-front and zero run-length coding.
func writeContextMap(bw bitwriter, cmap []byte, numTrees int) {
	assert.Assertf(numTrees >= 2, "context map for %d trees is implicit", numTrees)

	mtf := moveToFront(cmap)
	symbols, extras, maxPrefix := runLengthCodeZeros(mtf)

	alphabetSize := numTrees + maxPrefix
	hist := make([]uint32, alphabetSize)
	for _, sym := range symbols {
		hist[sym]++
	}

	if maxPrefix > 0 {
		bw.outputBitsWrite(1, 1)
		bw.outputBitsWrite(4, block(maxPrefix-1))
	} else {
		bw.outputBitsWrite(1, 0)
	}

	var pe prefixEncoder
	pe.initFromHistogram(hist)
	pe.write(bw, alphabetSize)
	for i, sym := range symbols {
		pe.encode(bw, sym)
		if sym > 0 && sym <= maxPrefix {
			bw.outputBitsWrite(byte(sym), block(extras[i]))
		}
	}

	bw.outputBitsWrite(1, 1)
}

// runLengthCodeZeros converts runs of zeros in v into run length prefix
// codes 1..maxPrefix with extra bits; nonzero values are shifted up by
// maxPrefix.
func runLengthCodeZeros(v []byte) (symbols []int, extras []uint32, maxPrefix int) {
	maxReps := 0
	for i := 0; i < len(v); {
		if v[i] != 0 {
			i++
			continue
		}
		reps := 0
		for i < len(v) && v[i] == 0 {
			reps++
			i++
		}
		if reps > maxReps {
			maxReps = reps
		}
	}
	if maxReps > 0 {
		maxPrefix = int(log2Floor(uint32(maxReps)))
	}
	if maxPrefix > maxRunLengthPrefix {
		maxPrefix = maxRunLengthPrefix
	}

	for i := 0; i < len(v); {
		if v[i] != 0 {
			symbols = append(symbols, int(v[i])+maxPrefix)
			extras = append(extras, 0)
			i++
			continue
		}
		reps := 0
		for i < len(v) && v[i] == 0 {
			reps++
			i++
		}
		for reps != 0 {
			if reps < (2 << uint(maxPrefix)) {
				prefix := int(log2Floor(uint32(reps)))
				symbols = append(symbols, prefix)
				extras = append(extras, uint32(reps-(1<<uint(prefix))))
				break
			}
			symbols = append(symbols, maxPrefix)
			extras = append(extras, uint32(1<<uint(maxPrefix))-1)
			reps -= (2 << uint(maxPrefix)) - 1
		}
	}
	return symbols, extras, maxPrefix
}

func moveToFront(v []byte) []byte {
	var mtf [256]byte
	for i := range mtf {
		mtf[i] = byte(i)
	}
	out := make([]byte, len(v))
	for i, value := range v {
		index := 0
		for mtf[index] != value {
			index++
		}
		out[i] = byte(index)
		copy(mtf[1:index+1], mtf[:index])
		mtf[0] = value
	}
	return out
}

func inverseMoveToFront(v []byte) {
	var mtf [256]byte
	for i := range mtf {
		mtf[i] = byte(i)
	}
	for i, index := range v {
		value := mtf[index]
		v[i] = value
		copy(mtf[1:int(index)+1], mtf[:index])
		mtf[0] = value
	}
}
