package brotli

import (
	"math"
)

const (
	maxLiteralClusters  = 16
	maxDistanceClusters = 4

	maxSplitTypes         = 4
	literalSplitChunkSize = 1024
	commandSplitChunkSize = 128
)

// type histogram {{{

type histogram struct {
	counts []uint32
	total  uint32
}

func newHistogram(alphabetSize int) histogram {
	return histogram{counts: make([]uint32, alphabetSize)}
}

func (h *histogram) add(symbol int) {
	h.counts[symbol]++
	h.total++
}

func (h *histogram) merge(other histogram) {
	for i, count := range other.counts {
		h.counts[i] += count
	}
	h.total += other.total
}

func (h histogram) clone() histogram {
	out := histogram{counts: make([]uint32, len(h.counts)), total: h.total}
	copy(out.counts, h.counts)
	return out
}

// bitCost estimates the number of bits needed to send the histogram's
// symbols with a prefix code built for it, including the code itself.
func (h histogram) bitCost() float64 {
	return populationCost(h.counts, h.total, nil)
}

// mergedBitCost is bitCost of the union of h and other, computed without
// allocating it.
func (h histogram) mergedBitCost(other histogram) float64 {
	return populationCost(h.counts, h.total+other.total, other.counts)
}

func populationCost(counts []uint32, total uint32, extra []uint32) float64 {
	if total == 0 {
		return 0
	}
	t := float64(total)
	numUsed := 0
	bits := 0.0
	for i, count := range counts {
		if extra != nil {
			count += extra[i]
		}
		if count == 0 {
			continue
		}
		numUsed++
		c := float64(count)
		bits += c * math.Log2(t/c)
	}
	switch {
	case numUsed <= 1:
		return 12
	case numUsed <= 4:
		return 20 + bits + float64(numUsed)*math.Log2(float64(len(counts)))
	default:
		return 40 + bits + 3.5*float64(numUsed)
	}
}

// }}}

// clusterHistograms greedily merges the given histograms until no merge
// lowers the estimated total cost and at most maxClusters remain.  It
// returns the cluster of each input and the merged histograms.  Clusters
// are numbered by first appearance; empty inputs join the cluster of the
// input before them.
func clusterHistograms(hists []histogram, maxClusters int) ([]byte, []histogram) {
	n := len(hists)
	owner := make([]int, n)
	var live []int
	for i, h := range hists {
		owner[i] = -1
		if h.total != 0 {
			owner[i] = i
			live = append(live, i)
		}
	}

	merged := make([]histogram, n)
	costs := make([]float64, n)
	for _, i := range live {
		merged[i] = hists[i].clone()
		costs[i] = merged[i].bitCost()
	}

	delta := func(a, b int) float64 {
		return merged[a].mergedBitCost(merged[b]) - costs[a] - costs[b]
	}

	deltas := make(map[[2]int]float64)
	for x := 0; x < len(live); x++ {
		for y := x + 1; y < len(live); y++ {
			a, b := live[x], live[y]
			deltas[[2]int{a, b}] = delta(a, b)
		}
	}

	for len(live) > 1 {
		bestA, bestB := -1, -1
		best := math.Inf(1)
		for x := 0; x < len(live); x++ {
			for y := x + 1; y < len(live); y++ {
				a, b := live[x], live[y]
				if d := deltas[[2]int{a, b}]; d < best {
					best, bestA, bestB = d, a, b
				}
			}
		}
		if best >= 0 && len(live) <= maxClusters {
			break
		}

		merged[bestA].merge(merged[bestB])
		costs[bestA] = merged[bestA].bitCost()
		merged[bestB] = histogram{}
		for i := range owner {
			if owner[i] == bestB {
				owner[i] = bestA
			}
		}

		next := live[:0]
		for _, i := range live {
			if i != bestB {
				next = append(next, i)
			}
		}
		live = next
		for _, other := range live {
			if other == bestA {
				continue
			}
			a, b := bestA, other
			if a > b {
				a, b = b, a
			}
			deltas[[2]int{a, b}] = delta(a, b)
		}
	}

	assignment := make([]byte, n)
	var clusters []histogram
	renumber := make(map[int]byte)
	last := -1
	for i := range hists {
		o := owner[i]
		if o < 0 {
			o = last
		}
		if o < 0 {
			// Leading empty inputs share the first real cluster.
			for _, j := range owner {
				if j >= 0 {
					o = j
					break
				}
			}
		}
		if o < 0 {
			assignment[i] = 0
			continue
		}
		id, found := renumber[o]
		if !found {
			id = byte(len(clusters))
			renumber[o] = id
			clusters = append(clusters, merged[o])
		}
		assignment[i] = id
		last = o
	}
	if len(clusters) == 0 {
		clusters = append(clusters, newHistogram(len(hists[0].counts)))
	}
	return assignment, clusters
}

// type blockSplit {{{

// blockSplit divides one category's symbol stream into typed blocks.
type blockSplit struct {
	numTypes int
	types    []byte
	lengths  []uint32
}

func singleBlockSplit(numSymbols int) blockSplit {
	return blockSplit{
		numTypes: 1,
		types:    []byte{0},
		lengths:  []uint32{uint32(numSymbols)},
	}
}

// switchCodes returns the block type code that announces each block after
// the first.
func (bs blockSplit) switchCodes() []int {
	var ring blockTypeRing
	ring.reset()
	codes := make([]int, 0, len(bs.types))
	for _, t := range bs.types[1:] {
		codes = append(codes, ring.codeFor(int(t), bs.numTypes))
	}
	return codes
}

// symbolTypes returns the block type of every symbol in order.
func (bs blockSplit) symbolTypes() []byte {
	var out []byte
	for i, length := range bs.lengths {
		for j := uint32(0); j < length; j++ {
			out = append(out, bs.types[i])
		}
	}
	return out
}

// }}}

// splitSymbols cuts symbols into chunks of chunkSize, clusters the chunk
// histograms into at most maxTypes block types, and joins neighboring
// chunks of the same type into blocks.
func splitSymbols(symbols []uint16, alphabetSize int, chunkSize int, maxTypes int) blockSplit {
	if len(symbols) < 2*chunkSize {
		return singleBlockSplit(len(symbols))
	}

	var hists []histogram
	for start := 0; start < len(symbols); start += chunkSize {
		end := minInt(start+chunkSize, len(symbols))
		h := newHistogram(alphabetSize)
		for _, sym := range symbols[start:end] {
			h.add(int(sym))
		}
		hists = append(hists, h)
	}

	assignment, clusters := clusterHistograms(hists, maxTypes)
	if len(clusters) <= 1 {
		return singleBlockSplit(len(symbols))
	}

	bs := blockSplit{numTypes: len(clusters)}
	for i, t := range assignment {
		length := uint32(minInt(chunkSize, len(symbols)-i*chunkSize))
		if n := len(bs.types); n != 0 && bs.types[n-1] == t {
			bs.lengths[n-1] += length
			continue
		}
		bs.types = append(bs.types, t)
		bs.lengths = append(bs.lengths, length)
	}
	return bs
}

// contextHistograms counts literals by block type and context id.  The
// result is indexed by type<<literalContextBits | context.
func contextHistograms(literals []byte, p1s []byte, p2s []byte, types []byte, numTypes int, modes []ContextMode) []histogram {
	hists := make([]histogram, numTypes<<literalContextBits)
	for i := range hists {
		hists[i] = newHistogram(numLiteralSymbols)
	}
	for i, ch := range literals {
		t := int(types[i])
		ctx := literalContext(modes[t], p1s[i], p2s[i])
		hists[t<<literalContextBits|ctx].add(int(ch))
	}
	return hists
}

// chooseContextMode picks the context mode under which the literals of
// one block type have the lowest conditional entropy.
func chooseContextMode(literals []byte, p1s []byte, p2s []byte, hint Mode) ContextMode {
	if hint == TextMode {
		return UTF8Context
	}

	best := UTF8Context
	bestCost := math.Inf(1)
	for _, mode := range [...]ContextMode{UTF8Context, SignedContext, LSB6Context, MSB6Context} {
		var hists [1 << literalContextBits]histogram
		for i := range hists {
			hists[i] = newHistogram(numLiteralSymbols)
		}
		for i, ch := range literals {
			hists[literalContext(mode, p1s[i], p2s[i])].add(int(ch))
		}
		cost := 0.0
		for _, h := range hists {
			cost += h.bitCost()
		}
		if cost < bestCost {
			best, bestCost = mode, cost
		}
	}
	return best
}

// estimateDistanceCost prices the distance symbols of cmds under dp.
func estimateDistanceCost(cmds []command, dp distanceParams) float64 {
	h := newHistogram(dp.alphabetSize())
	extraBits := 0.0
	for _, c := range cmds {
		if !c.hasDistanceSymbol() {
			continue
		}
		code, nbits, _ := c.distanceSymbol(dp)
		h.add(code)
		extraBits += float64(nbits)
	}
	return h.bitCost() + extraBits
}

// chooseDistanceParams tries every NPOSTFIX and every NDIRECT that is a
// multiple of 1<<NPOSTFIX and returns the cheapest.
func chooseDistanceParams(cmds []command) distanceParams {
	best := distanceParams{}
	bestCost := estimateDistanceCost(cmds, best)
	for np := uint(0); np <= maxNPostfix; np++ {
		for k := uint(0); k < 16; k++ {
			dp := distanceParams{npostfix: np, ndirect: k << np}
			if !dp.isValid() || dp == (distanceParams{}) {
				continue
			}
			if cost := estimateDistanceCost(cmds, dp); cost < bestCost {
				best, bestCost = dp, cost
			}
		}
	}
	return best
}
