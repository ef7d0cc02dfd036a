// Package analysis produces the numeric payloads consumed by the
// visualization layer: plottable state series, per-state descriptive
// statistics, and bit-level difference measurements between digests.
package analysis

import (
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quanthash/internal/quantum"
)

// PlotStates is how many superposition states the visualization shows.
const PlotStates = 4

// PlotBytes is how many byte positions per state are plotted.
const PlotBytes = 16

// StateSeries is one state prepared for client-side plotting.
type StateSeries struct {
	Index  int       `json:"index"`
	Values []int     `json:"values"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"std_dev"`
	// EntropyBits is the Shannon entropy of the full state's byte
	// histogram, in bits per byte (8.0 is the maximum).
	EntropyBits float64 `json:"entropy_bits"`
}

// BitDiff quantifies how many bit positions differ between two
// equal-length digests.
type BitDiff struct {
	DifferingBits int     `json:"differing_bits"`
	TotalBits     int     `json:"total_bits"`
	Fraction      float64 `json:"fraction"`
}

// Series converts the first PlotStates entries of a StateSet into
// plottable series. Values carry the first PlotBytes byte positions;
// the statistics cover the whole state.
func Series(states quantum.StateSet) []StateSeries {
	series := make([]StateSeries, 0, PlotStates)

	for i := 0; i < PlotStates; i++ {
		values := make([]int, PlotBytes)
		full := make([]float64, quantum.DigestSize)
		for p := 0; p < quantum.DigestSize; p++ {
			if p < PlotBytes {
				values[p] = int(states[i][p])
			}
			full[p] = float64(states[i][p])
		}

		series = append(series, StateSeries{
			Index:       i,
			Values:      values,
			Mean:        stat.Mean(full, nil),
			StdDev:      stat.StdDev(full, nil),
			EntropyBits: byteEntropy(states[i][:]),
		})
	}

	return series
}

// byteEntropy computes the Shannon entropy of the byte histogram in
// bits per byte.
func byteEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var counts [256]float64
	for _, b := range data {
		counts[b]++
	}

	dist := make([]float64, 0, 256)
	total := float64(len(data))
	for _, c := range counts {
		if c > 0 {
			dist = append(dist, c/total)
		}
	}

	// stat.Entropy returns nats; convert to bits.
	return stat.Entropy(dist) / math.Ln2
}

// BitDifference counts differing bit positions between two digests of
// equal length.
func BitDifference(a, b []byte) (BitDiff, error) {
	if len(a) != len(b) {
		return BitDiff{}, fmt.Errorf("digest lengths differ: %d vs %d", len(a), len(b))
	}

	diff := BitDiff{TotalBits: len(a) * 8}
	for i := range a {
		diff.DifferingBits += bits.OnesCount8(a[i] ^ b[i])
	}
	if diff.TotalBits > 0 {
		diff.Fraction = float64(diff.DifferingBits) / float64(diff.TotalBits)
	}
	return diff, nil
}

// FlipBit returns a copy of the input with the given bit inverted.
// bitIndex counts from bit 0 of byte 0; an index past the end of the
// input is an error.
func FlipBit(input []byte, bitIndex int) ([]byte, error) {
	if bitIndex < 0 || bitIndex >= len(input)*8 {
		return nil, fmt.Errorf("bit index %d out of range for %d-byte input", bitIndex, len(input))
	}

	out := make([]byte, len(input))
	copy(out, input)
	out[bitIndex/8] ^= 1 << (bitIndex % 8)
	return out, nil
}
