package hqsagent

import (
	"strconv"

	"github.com/pkg/errors"
)

// BitstringsToSamples converts raw per-shot bitstrings into a (shots, wires)
// matrix of 0/1 ints. Each bitstring is parsed as a base-2 integer and
// unravelled big-endian: classical-register bit index 0 maps to the first
// (leftmost) character, i.e. the most significant bit. This ordering is a
// compatibility contract with the host framework, not a free choice.
func BitstringsToSamples(bitstrings []string, wires int) ([][]int, error) {
	if wires <= 0 {
		return nil, errors.Errorf("hqsagent: wire count must be positive, got %d", wires)
	}
	if wires > 63 {
		return nil, errors.Errorf("hqsagent: wire count %d exceeds supported maximum 63", wires)
	}
	samples := make([][]int, len(bitstrings))
	for shot, bits := range bitstrings {
		value, err := strconv.ParseUint(bits, 2, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse bitstring %q (shot %d) failed", bits, shot)
		}
		if value>>uint(wires) != 0 {
			return nil, errors.Errorf("hqsagent: bitstring %q (shot %d) does not fit %d wires", bits, shot, wires)
		}
		row := make([]int, wires)
		for w := 0; w < wires; w++ {
			row[w] = int(value >> uint(wires-1-w) & 1)
		}
		samples[shot] = row
	}
	return samples, nil
}
